package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Print a stored quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		rec, err := fetchRecord(cmd, args[0])
		if err != nil {
			return err
		}
		return writeAs(cmd.OutOrStdout(), format, rec, func(w io.Writer) {
			printRecord(w, rec)
		})
	},
}

func init() {
	showCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
}
