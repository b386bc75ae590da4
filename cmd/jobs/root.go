package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reseller/internal/app"
	"reseller/internal/platform/config"
	id "reseller/pkg/domain"
)

var (
	cfgFile string
	deps    *app.App
)

var rootCmd = &cobra.Command{
	Use:   "reseller-jobs",
	Short: "Scheduled batch jobs of the reseller billing core",
	Long: `Runs one of the reseller batch jobs against the configured database and
registrars: auto-renewal, registrar status sync, transfer polling or TLD price
sync. Each run prints a summary and exits non-zero when items failed.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		deps, err = app.New(cmd.Context(), cfg, version)
		if err != nil {
			return fmt.Errorf("failed to initialise: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./reseller.yaml or /etc/reseller/reseller.yaml)")

	rootCmd.AddCommand(renewCmd, syncStatusCmd, syncTransfersCmd, syncPricesCmd)
}

// addScopeFlags registers the partner and limit flags shared by the domain jobs.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("partner", "", "restrict the run to one partner ID")
	cmd.Flags().Int("limit", 0, "maximum number of domains to process (0 uses the configured default)")
}

func scopeFromFlags(cmd *cobra.Command) (*id.PartnerID, int, error) {
	raw, _ := cmd.Flags().GetString("partner")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return nil, 0, fmt.Errorf("--limit must not be negative")
	}
	if raw == "" {
		return nil, limit, nil
	}
	partnerID, err := id.ParsePartnerID(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("--partner: %w", err)
	}
	return &partnerID, limit, nil
}
