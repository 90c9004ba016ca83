package cli

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
)

var columnsSourceB bool

// columnsCmd represents the columns command
var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "List the columns of a file and the suggested mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		t, err := ingest.ReadFile(args[0])
		if err != nil {
			return err
		}

		hints := cfg.Columns.AmountHintsA
		if columnsSourceB {
			hints = cfg.Columns.AmountHintsB
		}
		PrintColumns(cmd.OutOrStdout(), t.Name, t.Columns,
			ingest.SuggestMapping(t.Columns, cfg.Columns.IdentifierHints, hints))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().BoolVar(&columnsSourceB, "b", false, "suggest with the amount hints of source B")
}
