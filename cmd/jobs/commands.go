package main

import (
	"github.com/spf13/cobra"

	"reseller/internal/jobs"
)

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Charge and renew auto-renew domains nearing expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partnerID, limit, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}
		leadDays, _ := cmd.Flags().GetInt("lead-days")
		years, _ := cmd.Flags().GetInt("years")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		res, err := deps.Renewal.Run(cmd.Context(), jobs.RenewalOptions{
			PartnerID: partnerID,
			LeadDays:  leadDays,
			Years:     years,
			Limit:     limit,
			DryRun:    dryRun,
		})
		return report(cmd, res, err)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "sync-status",
	Short: "Reconcile domain status and expiry with the registrars",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partnerID, limit, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")
		force, _ := cmd.Flags().GetBool("force")

		res, err := deps.StatusSync.Run(cmd.Context(), jobs.SyncOptions{
			PartnerID:        partnerID,
			Limit:            limit,
			ExpiryWindowDays: days,
			Force:            force,
		})
		return report(cmd, res, err)
	},
}

var syncTransfersCmd = &cobra.Command{
	Use:   "sync-transfers",
	Short: "Poll the registrars for the state of pending inbound transfers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		partnerID, limit, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}
		window, _ := cmd.Flags().GetDuration("window")

		res, err := deps.TransferSync.Run(cmd.Context(), jobs.TransferOptions{
			PartnerID:        partnerID,
			Limit:            limit,
			CompletionWindow: window,
		})
		return report(cmd, res, err)
	},
}

var syncPricesCmd = &cobra.Command{
	Use:   "sync-prices",
	Short: "Pull wholesale TLD prices from the registrars into the price history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registrarID, _ := cmd.Flags().GetInt64("registrar")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		res, err := deps.PriceSync.Run(cmd.Context(), jobs.PriceSyncOptions{
			RegistrarID: registrarID,
			DryRun:      dryRun,
		})
		return report(cmd, res, err)
	},
}

func init() {
	addScopeFlags(renewCmd)
	renewCmd.Flags().Int("lead-days", 0, "renew domains expiring within this many days (0 uses the configured default)")
	renewCmd.Flags().Int("years", 0, "renewal period in years (0 uses the configured default)")
	renewCmd.Flags().Bool("dry-run", false, "quote candidates without charging or renewing")
	addFormatFlag(renewCmd)

	addScopeFlags(syncStatusCmd)
	syncStatusCmd.Flags().Int("days", 0, "only sync domains expiring within this many days (0 syncs all)")
	syncStatusCmd.Flags().Bool("force", false, "poll domains even if they were synced recently")
	addFormatFlag(syncStatusCmd)

	addScopeFlags(syncTransfersCmd)
	syncTransfersCmd.Flags().Duration("window", 0, "confirm ownership of transfers older than this (0 uses the configured default)")
	addFormatFlag(syncTransfersCmd)

	syncPricesCmd.Flags().Int64("registrar", 0, "only sync TLDs of this registrar ID (0 syncs every active TLD)")
	syncPricesCmd.Flags().Bool("dry-run", false, "report price changes without recording them")
	addFormatFlag(syncPricesCmd)
}
