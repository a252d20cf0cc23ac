package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/report"
)

var reportRunID string

var reportCmd = &cobra.Command{
	Use:   "report --run ID",
	Short: "Rebuild the reports of an earlier run from the results database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp(cmd)
		if err != nil {
			return err
		}
		runID, err := uuid.Parse(reportRunID)
		if err != nil {
			return aerr.Newf(aerr.CodeConfig, "--run %q: %w", reportRunID, err)
		}
		formats, err := report.Parse(outFormats)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, database, err := openStore(ctx, app.Config)
		if err != nil {
			return err
		}
		defer database.Close()

		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		results, err := store.Results(ctx, runID)
		if err != nil {
			return err
		}
		app.Log.Info("Loaded run", "run_id", run.ID, "paths", len(results), "target", run.TgtDir)

		written, err := report.WriteFiles(formats, app.Config.ReportPaths(), results)
		for _, name := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
		}
		return err
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "run ID to report on")
	reportCmd.Flags().StringVarP(&outFormats, "out-formats", "o", "t", "report formats: t (text), c (csv), x (xlsx)")
	_ = reportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(reportCmd)
}
