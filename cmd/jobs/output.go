package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"reseller/internal/jobs"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", formatText, "output format (text|json)")
}

// report prints the run result and maps it to the process exit status.
func report(cmd *cobra.Command, res *jobs.Result, runErr error) error {
	if runErr != nil {
		return runErr
	}
	format, _ := cmd.Flags().GetString("output")
	if err := writeResult(cmd.OutOrStdout(), format, res); err != nil {
		return err
	}
	return exitStatus(res)
}

func exitStatus(res *jobs.Result) error {
	switch {
	case res.Interrupted:
		return &exitError{code: exitInterrupted}
	case res.Failed > 0:
		return &exitError{code: exitItemsFailed}
	default:
		return nil
	}
}

func writeResult(w io.Writer, format string, res *jobs.Result) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case formatText:
		return writeText(w, res)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, res *jobs.Result) error {
	mode := ""
	if res.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "%s run %s%s finished in %s\n", res.Job, res.RunID, mode,
		res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "total %d  succeeded %d  unchanged %d  failed %d\n",
		res.Total, res.Succeeded, res.Unchanged, res.Failed)
	if len(res.Counters) > 0 {
		keys := make([]string, 0, len(res.Counters))
		for k := range res.Counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %d\n", k, res.Counters[k])
		}
	}
	if res.Interrupted {
		fmt.Fprintf(w, "interrupted after %d of %d items\n", len(res.Items), res.Total)
	}
	if len(res.Items) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nITEM\tOUTCOME\tFROM\tTO\tAMOUNT\tDETAIL")
	for _, item := range res.Items {
		name := item.Domain
		if name == "" {
			name = "." + item.TLD
		}
		detail := item.Message
		if item.Error != "" {
			detail = fmt.Sprintf("[%s] %s", item.ErrorCategory, item.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name, item.Outcome, item.From, item.To, item.Amount, detail)
	}
	return tw.Flush()
}
