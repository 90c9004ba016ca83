package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/export"
	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/aggregate"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

var runFlags RunFlags

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <source-a> <source-b>",
	Short: "Run the automatic pass over two files and print a summary",
	Long: `Run imports both files, pairs entries with the same identifier and the
same amount to the cent, prints the totals and optionally writes a report.

Example:
  reconcile run retenciones.xlsx mayor.csv
  reconcile run a.xlsx b.xlsx --id-b "CUIT Proveedor" --out report.xlsx
  reconcile run a.xlsx b.xlsx --provider 20-12345678-9 --csv-dir out/`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runFlags.Columns.Register(runCmd.Flags())
	runCmd.Flags().StringVarP(&runFlags.Out, "out", "o", "", "write the report workbook to this path")
	runCmd.Flags().StringVar(&runFlags.CSVDir, "csv-dir", "", "write one CSV per report sheet into this directory")
	runCmd.Flags().StringVar(&runFlags.Provider, "provider", "", "restrict the report to one identifier")
	runCmd.Flags().StringVar(&runFlags.DBPath, "db", "", "journal database path (default: from config)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger(cfg, "cli")
	out := cmd.OutOrStdout()

	dbPath := cfg.Storage.DatabasePath
	if runFlags.DBPath != "" {
		dbPath = runFlags.DBPath
	}
	store, err := storage.NewStorageWithLogger(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = store.Close() }()

	s := session.New(uuid.NewString(), store, logger)
	if err := s.LoadFiles(context.Background(), args[0], args[1]); err != nil {
		return err
	}

	tableA, _ := s.Table(record.SourceA)
	tableB, _ := s.Table(record.SourceB)
	colsA, err := resolveMapping(record.SourceA, tableA,
		record.ColumnMapping{Identifier: runFlags.Columns.IdentifierA, Amount: runFlags.Columns.AmountA},
		ingest.SuggestMapping(tableA.Columns, cfg.Columns.IdentifierHints, cfg.Columns.AmountHintsA))
	if err != nil {
		return err
	}
	colsB, err := resolveMapping(record.SourceB, tableB,
		record.ColumnMapping{Identifier: runFlags.Columns.IdentifierB, Amount: runFlags.Columns.AmountB},
		ingest.SuggestMapping(tableB.Columns, cfg.Columns.IdentifierHints, cfg.Columns.AmountHintsB))
	if err != nil {
		return err
	}
	logger.Debug("columns chosen",
		"identifier_a", colsA.Identifier, "amount_a", colsA.Amount,
		"identifier_b", colsB.Identifier, "amount_b", colsB.Amount)

	summary, err := s.Reconcile(colsA, colsB)
	if err != nil {
		return err
	}
	PrintSummary(out, summary)

	if runFlags.Provider != "" {
		p, err := s.ProviderDetails(runFlags.Provider)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		PrintProviders(out, []aggregate.ProviderSummary{p})
	}

	if runFlags.Out == "" && runFlags.CSVDir == "" {
		return nil
	}
	rep, err := s.Report(runFlags.Provider)
	if err != nil {
		return err
	}
	if runFlags.Out != "" {
		if err := writeWorkbook(runFlags.Out, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nReport written to %s\n", runFlags.Out)
	}
	if runFlags.CSVDir != "" {
		paths, err := export.WriteCSVDir(runFlags.CSVDir, rep)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "CSV written to %s\n", p)
		}
	}
	return nil
}

func writeWorkbook(path string, rep *export.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, rep); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
