// Package pipeline runs the tiers in order: each source is fetched (bronze), normalized
// (silver) and kept; the kept tables are merged (gold) and analyzed.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/bronze"
	"github.com/invertedv/ipea/gold"
	"github.com/invertedv/ipea/internal/errors"
	"github.com/invertedv/ipea/report"
	"github.com/invertedv/ipea/silver"
	"github.com/invertedv/ipea/store"
)

// Analyzer describes the merged table.
type Analyzer interface {
	Run(ctx context.Context, tbl *d.DF) (*report.Result, error)
}

type Orchestrator struct {
	fetcher    bronze.Fetcher
	store      store.Store
	normalizer *silver.Normalizer
	merger     *gold.Engine
	analyzer   Analyzer

	sources []Source
	runID   string
	// replay is set when the bronze tables are read back from disk
	replay bool

	log zerolog.Logger
}

type Opt func(*Orchestrator)

func WithSources(sources []Source) Opt {
	return func(o *Orchestrator) { o.sources = sources }
}

func WithAnalyzer(a Analyzer) Opt {
	return func(o *Orchestrator) { o.analyzer = a }
}

func WithRunID(id string) Opt {
	return func(o *Orchestrator) { o.runID = id }
}

func WithLogger(log zerolog.Logger) Opt {
	return func(o *Orchestrator) { o.log = log }
}

func New(fetcher bronze.Fetcher, st store.Store, opts ...Opt) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		store:   st,
		sources: DefaultSources,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	o.log = o.log.With().Str("run_id", o.runID).Logger()
	o.normalizer = silver.New(o.log)
	o.merger = gold.New(o.log)

	return o
}

func (o *Orchestrator) RunID() string {
	return o.runID
}

// SourceStats is the outcome of one source.
type SourceStats struct {
	ID      silver.SourceID
	RawRows int
	Rows    int
	Err     error
}

type Result struct {
	RunID    string
	Sources  []SourceStats
	Merged   *d.DF
	Analysis *report.Result
	Took     time.Duration
}

// Failed lists the sources that were skipped.
func (r *Result) Failed() []silver.SourceID {
	var ids []silver.SourceID
	for _, s := range r.Sources {
		if s.Err != nil {
			ids = append(ids, s.ID)
		}
	}

	return ids
}

// *********** Sources ***********

// Process fetches src, saves the raw table, normalizes it and saves the result. Failures
// are *errors.SourceError.
func (o *Orchestrator) Process(ctx context.Context, src Source) (*d.DF, error) {
	var stats SourceStats
	return o.process(ctx, src, &stats)
}

func (o *Orchestrator) process(ctx context.Context, src Source, stats *SourceStats) (*d.DF, error) {
	id := string(src.ID)
	stats.ID = src.ID
	log := o.log.With().Str("source", id).Logger()

	raw, e := o.fetcher.Fetch(ctx, src.Request())
	if e != nil {
		return nil, errors.NewSourceError(id, "fetch", e)
	}
	stats.RawRows = raw.RowCount()
	log.Info().Int("rows", raw.RowCount()).Msg("fetched")

	if !o.replay {
		if e = o.store.Save(ctx, raw, store.Bronze, src.ID.FileName()); e != nil {
			return nil, errors.NewSourceError(id, "save bronze", e)
		}
	}

	tbl, e := o.normalizer.Normalize(raw, src.ID)
	if e != nil {
		return nil, e
	}
	stats.Rows = tbl.RowCount()

	if e = o.store.Save(ctx, tbl, store.Silver, src.ID.FileName()); e != nil {
		return nil, errors.NewSourceError(id, "save silver", e)
	}

	log.Info().Int("rows", tbl.RowCount()).Msg("normalized")

	return tbl, nil
}

// Collect processes sources in order and returns the normalized tables of those that
// succeeded. A failed source is logged and skipped.
func (o *Orchestrator) Collect(ctx context.Context, sources []Source) []*d.DF {
	tables, _ := o.collect(ctx, sources)
	return tables
}

func (o *Orchestrator) collect(ctx context.Context, sources []Source) ([]*d.DF, []SourceStats) {
	var (
		tables []*d.DF
		stats  []SourceStats
	)
	for _, src := range sources {
		st := SourceStats{ID: src.ID}
		if e := ctx.Err(); e != nil {
			st.Err = errors.NewSourceError(string(src.ID), "fetch", e)
			stats = append(stats, st)
			continue
		}

		tbl, e := o.process(ctx, src, &st)
		if e != nil {
			st.Err = e
			o.log.Error().Err(e).Str("source", string(src.ID)).Msg("source skipped")
			stats = append(stats, st)
			continue
		}

		tables = append(tables, tbl)
		stats = append(stats, st)
	}

	return tables, stats
}

// *********** Runs ***********

// Run collects the sources, merges them, saves the gold table and analyzes it. A merge
// failure ends the run before the analysis.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: o.runID}
	o.log.Info().Int("sources", len(o.sources)).Bool("replay", o.replay).Msg("run started")

	var tables []*d.DF
	tables, res.Sources = o.collect(ctx, o.sources)
	if e := ctx.Err(); e != nil {
		return res, e
	}

	e := o.finish(ctx, tables, res)
	res.Took = time.Since(start)

	ev := o.log.Info()
	if e != nil {
		ev = o.log.Error().Err(e)
	}
	ev.Int("failed", len(res.Failed())).Dur("took", res.Took).Msg("run finished")

	return res, e
}

// Transform is Run on the raw tables saved in dir by an earlier run. Nothing is fetched.
func (o *Orchestrator) Transform(ctx context.Context, dir string) (*Result, error) {
	r := *o
	r.fetcher = bronze.NewReplay(dir)
	r.replay = true

	return r.Run(ctx)
}

// MergeSilver merges the normalized tables saved in dir, saves and analyzes the result.
// Sources without a file are skipped.
func (o *Orchestrator) MergeSilver(ctx context.Context, dir string) (*Result, error) {
	res := &Result{RunID: o.runID}
	var tables []*d.DF
	for _, src := range o.sources {
		st := SourceStats{ID: src.ID}
		fileName := filepath.Join(dir, src.ID.FileName())
		if _, e := os.Stat(fileName); e != nil {
			st.Err = errors.NewSourceError(string(src.ID), "load silver", errors.ErrNotFound)
			o.log.Warn().Str("source", string(src.ID)).Msg("no normalized table")
			res.Sources = append(res.Sources, st)
			continue
		}

		tbl, e := d.NewFiles().Load(fileName)
		if e != nil {
			st.Err = errors.NewSourceError(string(src.ID), "load silver", e)
			res.Sources = append(res.Sources, st)
			continue
		}

		st.Rows = tbl.RowCount()
		res.Sources = append(res.Sources, st)
		tables = append(tables, tbl)
	}

	return res, o.finish(ctx, tables, res)
}

func (o *Orchestrator) finish(ctx context.Context, tables []*d.DF, res *Result) error {
	merged, e := o.merger.Merge(tables)
	if e != nil {
		return e
	}
	res.Merged = merged

	if e = o.store.Save(ctx, merged, store.Gold, gold.FileName); e != nil {
		return fmt.Errorf("save %s: %w", gold.FileName, e)
	}

	o.log.Info().Int("rows", merged.RowCount()).Msg("merged")

	if o.analyzer == nil {
		return nil
	}

	if !merged.HasColumns(silver.BurdenColumn) {
		o.log.Warn().Msg("merged table has no tax burden, analysis skipped")
		return nil
	}

	if res.Analysis, e = o.analyzer.Run(ctx, merged); e != nil {
		return fmt.Errorf("analysis: %w", e)
	}

	return nil
}
