package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/aggregate"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

var (
	providersColumns ColumnFlags
	providersQuery   string
	providersOpen    bool
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers <source-a> <source-b>",
	Short: "List every identifier with its totals after the automatic pass",
	Args:  cobra.ExactArgs(2),
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersColumns.Register(providersCmd.Flags())
	providersCmd.Flags().StringVarP(&providersQuery, "query", "q", "", "only identifiers containing this text")
	providersCmd.Flags().BoolVar(&providersOpen, "open", false, "only identifiers with pending or unmatched records")
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger(cfg, "cli")

	// A listing is not journaled past the process lifetime.
	journal, err := storage.NewStorageWithLogger(":memory:", logger)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	s := session.New(uuid.NewString(), journal, logger)
	if err := s.LoadFiles(context.Background(), args[0], args[1]); err != nil {
		return err
	}

	tableA, _ := s.Table(record.SourceA)
	tableB, _ := s.Table(record.SourceB)
	colsA, err := resolveMapping(record.SourceA, tableA,
		record.ColumnMapping{Identifier: providersColumns.IdentifierA, Amount: providersColumns.AmountA},
		ingest.SuggestMapping(tableA.Columns, cfg.Columns.IdentifierHints, cfg.Columns.AmountHintsA))
	if err != nil {
		return err
	}
	colsB, err := resolveMapping(record.SourceB, tableB,
		record.ColumnMapping{Identifier: providersColumns.IdentifierB, Amount: providersColumns.AmountB},
		ingest.SuggestMapping(tableB.Columns, cfg.Columns.IdentifierHints, cfg.Columns.AmountHintsB))
	if err != nil {
		return err
	}
	if _, err := s.Reconcile(colsA, colsB); err != nil {
		return err
	}

	ids, err := s.Providers(providersQuery)
	if err != nil {
		return err
	}
	summaries := make([]aggregate.ProviderSummary, 0, len(ids))
	for _, id := range ids {
		p, err := s.ProviderDetails(id)
		if err != nil {
			return err
		}
		if providersOpen && len(p.PendingA) == 0 && len(p.UnmatchedB) == 0 {
			continue
		}
		summaries = append(summaries, p)
	}
	PrintProviders(cmd.OutOrStdout(), summaries)
	return nil
}
