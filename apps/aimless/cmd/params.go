package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var paramsJSON bool

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the step counts derived from the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp(cmd)
		if err != nil {
			return err
		}
		p := app.Config.StepParams()
		out := cmd.OutOrStdout()
		if paramsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		fmt.Fprintf(out, "numpaths:   %d\n", p.NumPaths)
		fmt.Fprintf(out, "totalsteps: %d\n", p.TotalSteps)
		fmt.Fprintf(out, "fwsteps:    %d (out %d)\n", p.FwSteps, p.FwOut)
		fmt.Fprintf(out, "bwsteps:    %d (out %d)\n", p.BwSteps, p.BwOut)
		fmt.Fprintf(out, "dtsteps:    %d (out %d)\n", p.DtSteps, p.DtOut)
		return nil
	},
}

func init() {
	paramsCmd.Flags().BoolVar(&paramsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(paramsCmd)
}
