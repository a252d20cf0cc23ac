package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quatton/aimless/apps/aimless/skeleton"
)

var initCmd = &cobra.Command{
	Use:   "init DIR",
	Short: "Create a starter project in DIR",
	Long: `Writes a sample aimless.yaml and the AMBER input templates
(amber_job.tpl, cons.tpl, instarter.tpl, indt.tpl, inforward.tpl,
inbackward.tpl) into DIR. Existing files are never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		written, err := skeleton.CopyTo(args[0])
		if err != nil {
			return err
		}
		for _, name := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
