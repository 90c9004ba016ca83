package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// ColumnFlags name the identifier and amount columns of both sources.
// Empty values are filled from the configured hints.
type ColumnFlags struct {
	IdentifierA string
	AmountA     string
	IdentifierB string
	AmountB     string
}

// Register adds the column flags to fs.
func (f *ColumnFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.IdentifierA, "id-a", "", "identifier column of source A (default: suggested)")
	fs.StringVar(&f.AmountA, "amount-a", "", "amount column of source A (default: suggested)")
	fs.StringVar(&f.IdentifierB, "id-b", "", "identifier column of source B (default: suggested)")
	fs.StringVar(&f.AmountB, "amount-b", "", "amount column of source B (default: suggested)")
}

// resolveMapping completes a mapping for table from the explicit flags and the
// suggested columns.
func resolveMapping(source record.Source, t *ingest.Table, explicit, suggested record.ColumnMapping) (record.ColumnMapping, error) {
	m := explicit
	if m.Identifier == "" {
		m.Identifier = suggested.Identifier
	}
	if m.Amount == "" {
		m.Amount = suggested.Amount
	}
	if !m.Complete() {
		return m, fmt.Errorf("source %s (%s): cannot pick identifier and amount columns, use --id-%s and --amount-%s (columns: %v)",
			source, t.Name, source, source, t.Columns)
	}
	return m, nil
}

// RunFlags are the flags of the run command.
type RunFlags struct {
	Columns  ColumnFlags
	Out      string
	CSVDir   string
	Provider string
	DBPath   string
}
