// Package session runs one reconciliation workflow end to end: loading both
// sources, the automatic pass, the manual selection, provider focus and
// report export.
//
// A Session serializes every operation with a mutex, so each runs to
// completion before the next starts. The domain packages it drives are not
// safe for concurrent use on their own.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/aggregate"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/selection"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/state"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// Journal is the subset of the storage repository a session writes to.
type Journal interface {
	StartRun(run *storage.Run) (int64, error)
	CompleteRun(runID int64, autoMatches int) error
	LogEvent(event *storage.MatchEvent) error
}

// Option configures a Session.
type Option func(*Session)

// WithMatcherConfig overrides the automatic pass configuration.
func WithMatcherConfig(cfg matcher.Config) Option {
	return func(s *Session) {
		s.matcherCfg = cfg
	}
}

// WithSelectionOptions passes options to every selection engine the
// session creates.
func WithSelectionOptions(opts ...selection.Option) Option {
	return func(s *Session) {
		s.selectionOpts = append(s.selectionOpts, opts...)
	}
}

// ReconcileSummary describes the outcome of an automatic pass.
type ReconcileSummary struct {
	RunID       int64
	RecordsA    int
	RecordsB    int
	AutoMatches int
	Overview    aggregate.Overview
}

// Session holds the state of one reconciliation.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu            sync.Mutex
	journal       Journal
	logger        *slog.Logger
	matcherCfg    matcher.Config
	selectionOpts []selection.Option

	tables   map[record.Source]*ingest.Table
	cols     map[record.Source]record.ColumnMapping
	store    *state.Store
	engine   *selection.Engine
	agg      *aggregate.Aggregator
	runID    int64
	provider string
}

// New creates an empty session.
func New(id string, journal Journal, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		journal:    journal,
		logger:     logger.With("session", id),
		matcherCfg: matcher.DefaultConfig(),
		tables:     make(map[record.Source]*ingest.Table, 2),
		cols:       make(map[record.Source]record.ColumnMapping, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseSource maps "a"/"b" to a source.
func ParseSource(name string) (record.Source, error) {
	src := record.Source(name)
	if !src.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return src, nil
}

// SetSource replaces one imported table. Results of a previous reconcile
// are discarded since they no longer describe the loaded data.
func (s *Session) SetSource(source record.Source, table *ingest.Table) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[source] = table
	s.resetResults()
	s.logger.Info("source loaded", "source", source, "name", table.Name, "rows", len(table.Rows))
	return nil
}

// LoadFiles reads both source files concurrently and installs them.
// Neither source is replaced unless both files are read.
func (s *Session) LoadFiles(ctx context.Context, pathA, pathB string) error {
	var tableA, tableB *ingest.Table

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := ingest.ReadFile(pathA)
		tableA = t
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := ingest.ReadFile(pathB)
		tableB = t
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[record.SourceA] = tableA
	s.tables[record.SourceB] = tableB
	s.resetResults()
	s.logger.Info("sources loaded",
		"source_a", tableA.Name, "rows_a", len(tableA.Rows),
		"source_b", tableB.Name, "rows_b", len(tableB.Rows))
	return nil
}

// Table returns the imported table of source.
func (s *Session) Table(source record.Source) (*ingest.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[source]
	return t, ok
}

// Columns returns the mapping used by the last reconcile.
func (s *Session) Columns(source record.Source) record.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols[source]
}

func (s *Session) resetResults() {
	s.store = nil
	s.engine = nil
	s.agg = nil
	s.runID = 0
	s.provider = ""
}

func checkColumns(source record.Source, t *ingest.Table, m record.ColumnMapping) error {
	if !m.Complete() {
		return fmt.Errorf("%w: source %s needs identifier and amount columns", ErrInvalidColumns, source)
	}
	for _, c := range []string{m.Identifier, m.Amount} {
		if !slices.Contains(t.Columns, c) {
			return fmt.Errorf("%w: source %s has no column %q", ErrInvalidColumns, source, c)
		}
	}
	return nil
}

// Reconcile builds a fresh store from the loaded sources and runs the
// automatic pass. Any previous results, selection and provider focus are
// discarded.
func (s *Session) Reconcile(colsA, colsB record.ColumnMapping) (*ReconcileSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableA, okA := s.tables[record.SourceA]
	tableB, okB := s.tables[record.SourceB]
	if !okA || !okB {
		return nil, ErrSourcesMissing
	}
	if err := checkColumns(record.SourceA, tableA, colsA); err != nil {
		return nil, err
	}
	if err := checkColumns(record.SourceB, tableB, colsB); err != nil {
		return nil, err
	}

	store := state.NewStore(tableA.Rows, tableB.Rows)
	run := &storage.Run{
		SessionID: s.ID,
		SourceA:   tableA.Name,
		SourceB:   tableB.Name,
		RecordsA:  store.Len(record.SourceA),
		RecordsB:  store.Len(record.SourceB),
	}
	runID, err := s.journal.StartRun(run)
	if err != nil {
		s.logger.Warn("failed to journal run start", "error", err)
		runID = 0
	}

	result := matcher.NewMatcher(s.matcherCfg).Match(
		store.Records(record.SourceA), store.Records(record.SourceB), colsA, colsB)
	for _, p := range result.Pairs {
		if err := store.ApplyReconcile([]int{p.A}, []int{p.B}, p.MatchID); err != nil {
			return nil, fmt.Errorf("apply automatic match %s: %w", p.MatchID, err)
		}
	}

	if runID != 0 {
		if err := s.journal.CompleteRun(runID, result.MatchCount()); err != nil {
			s.logger.Warn("failed to journal run completion", "run_id", runID, "error", err)
		}
	}

	s.resetResults()
	s.cols[record.SourceA] = colsA
	s.cols[record.SourceB] = colsB
	s.store = store
	s.engine = selection.NewEngine(store, colsA, colsB, s.selectionOpts...)
	s.agg = aggregate.NewAggregator(store, colsA, colsB)
	s.runID = runID

	overview := s.agg.Overview()
	s.logger.Info("automatic pass complete",
		"run_id", runID,
		"records_a", run.RecordsA,
		"records_b", run.RecordsB,
		"matches", result.MatchCount())
	if !overview.QualityA.Clean() || !overview.QualityB.Clean() {
		s.logger.Warn("data quality issues",
			"empty_identifiers_a", overview.QualityA.EmptyIdentifiers,
			"unparsable_amounts_a", overview.QualityA.UnparsableAmounts,
			"empty_identifiers_b", overview.QualityB.EmptyIdentifiers,
			"unparsable_amounts_b", overview.QualityB.UnparsableAmounts)
	}

	return &ReconcileSummary{
		RunID:       runID,
		RecordsA:    run.RecordsA,
		RecordsB:    run.RecordsB,
		AutoMatches: result.MatchCount(),
		Overview:    overview,
	}, nil
}

// RunID returns the journal id of the last automatic pass, or 0.
func (s *Session) RunID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Reconciled reports whether results are available.
func (s *Session) Reconciled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store != nil
}

// Records returns the records of source with the given status ("" for
// all), restricted to provider when it is not empty.
func (s *Session) Records(source record.Source, status record.Status, provider string) ([]record.Record, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil, ErrNoResults
	}

	var recs []record.Record
	if status == "" {
		recs = s.store.Records(source)
	} else {
		recs = s.store.RecordsByStatus(source, status)
	}
	if provider == "" {
		return recs, nil
	}

	id := normalizer.Identifier(provider)
	col := s.cols[source].Identifier
	out := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		if normalizer.Normalize(r.Fields, col, "").Identifier == id {
			out = append(out, r)
		}
	}
	return out, nil
}

// Overview returns the general summary.
func (s *Session) Overview() (aggregate.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.agg == nil {
		return aggregate.Overview{}, ErrNoResults
	}
	return s.agg.Overview(), nil
}

// Providers lists the distinct identifiers containing query.
func (s *Session) Providers(query string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.agg == nil {
		return nil, ErrNoResults
	}
	return s.agg.FilterIdentifiers(query), nil
}

// ProviderDetails returns the summary of one provider.
func (s *Session) ProviderDetails(identifier string) (aggregate.ProviderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.agg == nil {
		return aggregate.ProviderSummary{}, ErrNoResults
	}
	return s.agg.DetailsFor(identifier), nil
}

// SetProvider focuses the session on one provider ("" clears the focus).
// Changing the focus clears the selection.
func (s *Session) SetProvider(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return ErrNoResults
	}

	id := normalizer.Identifier(identifier)
	if id == s.provider {
		return nil
	}
	s.provider = id
	s.engine.Clear()
	s.logger.Debug("provider focus changed", "provider", id)
	return nil
}

// Provider returns the active provider focus.
func (s *Session) Provider() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

func (s *Session) checkProvider(bucket selection.Bucket, indices ...int) error {
	if s.provider == "" {
		return nil
	}
	source := bucket.Source()
	col := s.cols[source].Identifier
	for _, i := range indices {
		r, ok := s.store.Record(source, i)
		if !ok {
			return &state.RecordError{Source: source, Index: i, Err: state.ErrUnknownRecord}
		}
		if normalizer.Normalize(r.Fields, col, "").Identifier != s.provider {
			return fmt.Errorf("%w: source %s record %d", ErrOutsideProvider, source, i)
		}
	}
	return nil
}

// Toggle flips one record in the selection.
func (s *Session) Toggle(bucket selection.Bucket, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return false, ErrNoResults
	}
	if !bucket.Valid() {
		return false, fmt.Errorf("%w: %q", selection.ErrUnknownBucket, bucket)
	}
	if err := s.checkProvider(bucket, index); err != nil {
		return false, err
	}
	return s.engine.Toggle(bucket, index)
}

// SelectAll adds indices to one bucket.
func (s *Session) SelectAll(bucket selection.Bucket, indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return ErrNoResults
	}
	if !bucket.Valid() {
		return fmt.Errorf("%w: %q", selection.ErrUnknownBucket, bucket)
	}
	if err := s.checkProvider(bucket, indices...); err != nil {
		return err
	}
	return s.engine.SelectAll(bucket, indices)
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return ErrNoResults
	}
	s.engine.Clear()
	return nil
}

// Selection describes the current selection.
type Selection struct {
	Provider   string
	Pending    []int
	Unmatched  []int
	Reconciled []int
	Preview    selection.Preview
}

// Selection returns the selected indices per bucket and their totals.
func (s *Session) Selection() (*Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, ErrNoResults
	}
	return s.selectionLocked(), nil
}

func (s *Session) selectionLocked() *Selection {
	return &Selection{
		Provider:   s.provider,
		Pending:    s.engine.Selected(selection.BucketPending),
		Unmatched:  s.engine.Selected(selection.BucketUnmatched),
		Reconciled: s.engine.Selected(selection.BucketReconciled),
		Preview:    s.engine.PreviewTotals(),
	}
}

// CommitReconcile groups the selected pending records under a manual match
// id and journals the action.
func (s *Session) CommitReconcile() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return "", ErrNoResults
	}

	before := s.selectionLocked()
	matchID, err := s.engine.CommitReconcile()
	if err != nil {
		return "", err
	}

	s.logger.Info("manual reconcile",
		"match_id", matchID,
		"records_a", len(before.Pending),
		"records_b", len(before.Unmatched),
		"amount", before.Preview.SumA)
	s.logEvent(&storage.MatchEvent{
		MatchID:  matchID,
		Action:   storage.ActionManualReconcile,
		IndicesA: before.Pending,
		IndicesB: before.Unmatched,
		AmountA:  before.Preview.SumA,
		AmountB:  before.Preview.SumB,
	})
	return matchID, nil
}

// CommitDereconcile rolls back the groups of the selected reconciled
// records and journals each group and anomaly.
func (s *Session) CommitDereconcile() (*state.DereconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, ErrNoResults
	}

	result, err := s.engine.CommitDereconcile()
	if err != nil {
		return nil, err
	}

	for _, g := range result.Groups {
		s.logEvent(&storage.MatchEvent{
			MatchID:  g.MatchID,
			Action:   storage.ActionDereconcile,
			IndicesA: g.A,
			IndicesB: g.B,
			AmountA:  s.sum(record.SourceA, g.A),
			AmountB:  s.sum(record.SourceB, g.B),
		})
	}
	for _, a := range result.Anomalies {
		s.logger.Warn("rollback found group without counterparty",
			"match_id", a.MatchID, "records_a", a.A, "reason", a.Reason)
		s.logEvent(&storage.MatchEvent{
			MatchID:  a.MatchID,
			Action:   storage.ActionAnomaly,
			IndicesA: a.A,
			AmountA:  s.sum(record.SourceA, a.A),
			Detail:   a.Reason,
		})
	}

	revertedA, revertedB := result.Reverted()
	s.logger.Info("manual rollback",
		"groups", len(result.Groups),
		"records_a", revertedA,
		"records_b", revertedB)
	return result, nil
}

func (s *Session) sum(source record.Source, indices []int) float64 {
	amountCol := s.cols[source].Amount
	var total float64
	for _, i := range indices {
		if r, ok := s.store.Record(source, i); ok {
			total += normalizer.Normalize(r.Fields, "", amountCol).Amount
		}
	}
	return total
}

func (s *Session) logEvent(e *storage.MatchEvent) {
	if s.runID == 0 {
		return
	}
	e.RunID = s.runID
	if err := s.journal.LogEvent(e); err != nil {
		s.logger.Warn("failed to journal event", "action", e.Action, "match_id", e.MatchID, "error", err)
	}
}

// CheckInvariants verifies the consistency of the current results.
func (s *Session) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.CheckInvariants()
}
