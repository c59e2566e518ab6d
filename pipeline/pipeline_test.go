package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/bronze"
	"github.com/invertedv/ipea/gold"
	"github.com/invertedv/ipea/internal/errors"
	"github.com/invertedv/ipea/internal/logging"
	"github.com/invertedv/ipea/report"
	"github.com/invertedv/ipea/silver"
	"github.com/invertedv/ipea/store"
)

func col(t *testing.T, name string, data any, dt d.DataTypes) *d.Col {
	t.Helper()
	c, e := d.NewCol(data, dt, d.ColName(name))
	require.NoError(t, e)

	return c
}

func df(t *testing.T, cols ...*d.Col) *d.DF {
	t.Helper()
	tbl, e := d.NewDF(cols...)
	require.NoError(t, e)

	return tbl
}

var series = map[string]struct {
	unit   string
	values []float64
}{
	"PIB_IBGE_5938_37": {"R$ (mil), a preços do ano 2010", []float64{50, 200, 9}},
	"RECORRM":          {"R$", []float64{10_000, 30_000, 1}},
	"POPTOT":           {"Habitante", []float64{100, 200, 5}},
}

// fakeFetcher answers with raw tables laid out like the ipeadata client's. Municipalities
// 1100015 and 1100023 are complete, the third row of each series is a state.
type fakeFetcher struct {
	mu    sync.Mutex
	t     *testing.T
	fail  map[silver.SourceID]bool
	calls []bronze.Request
}

func (f *fakeFetcher) Fetch(_ context.Context, req bronze.Request) (*d.DF, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	t := f.t
	if f.fail[silver.SourceID(req.File[:len(req.File)-len(".csv")])] {
		return nil, fmt.Errorf("provider down: %w", errors.ErrProviderUnavailable)
	}

	switch req.Kind {
	case bronze.KindSeries:
		s := series[req.Series]
		levels := []string{"Municípios", "Municípios", "Estados"}
		return df(t,
			col(t, "CODE", []string{req.Series, req.Series, req.Series}, d.DTstring),
			col(t, "YEAR", []int{req.Year, req.Year, req.Year}, d.DTint),
			col(t, "NIVNOME", levels, d.DTstring),
			col(t, "TERCODIGO", []string{"1100023", "1100015", "11"}, d.DTstring),
			col(t, "RAW DATE", []string{"2010-01-01", "2010-01-01", "2010-01-01"}, d.DTstring),
			col(t, fmt.Sprintf("VALUE (%s)", s.unit), s.values, d.DTfloat),
		), nil
	case bronze.KindTerritory:
		return df(t,
			col(t, "NAME", []string{"Alta Floresta D'Oeste", "Ariquemes", "Rondônia"}, d.DTstring),
			col(t, "ID", []string{"1100015", "1100023", "11"}, d.DTstring),
			col(t, "LEVEL", []string{"Municípios", "Municípios", "Estados"}, d.DTstring),
			col(t, "AREA", []float64{7067, 4427, 237590}, d.DTfloat),
			col(t, "CAPITAL", []string{"false", "false", "false"}, d.DTstring),
		), nil
	case bronze.KindBridge:
		return df(t,
			col(t, "code", []string{"ADH_IDHM", "ADH_IDHM"}, d.DTstring),
			col(t, "date", []string{"2010-01-01", "2010-01-01"}, d.DTstring),
			col(t, "value", []float64{0.641, 0.702}, d.DTfloat),
			col(t, "uname", []string{"Municipality", "Municipality"}, d.DTstring),
			col(t, "tcode", []int{1100015, 1100023}, d.DTint),
		), nil
	}

	return nil, fmt.Errorf("unknown kind %s", req.Kind)
}

type memStore struct {
	mu     sync.Mutex
	tables map[string]*d.DF
	fail   store.Tier
}

func newMemStore() *memStore {
	return &memStore{tables: map[string]*d.DF{}}
}

func (m *memStore) Save(_ context.Context, tbl *d.DF, tier store.Tier, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tier == m.fail {
		return fmt.Errorf("disk full")
	}

	m.tables[string(tier)+"/"+name] = tbl

	return nil
}

type fakeAnalyzer struct {
	runs int
}

func (a *fakeAnalyzer) Run(_ context.Context, _ *d.DF) (*report.Result, error) {
	a.runs++
	return &report.Result{}, nil
}

func newOrchestrator(t *testing.T, f *fakeFetcher, st store.Store, opts ...Opt) (*Orchestrator, *logging.TestLogger) {
	tl := logging.NewTestLogger(t)
	return New(f, st, append([]Opt{WithLogger(tl.Logger)}, opts...)...), tl
}

func TestRun(t *testing.T) {
	f := &fakeFetcher{t: t}
	st := newMemStore()
	an := &fakeAnalyzer{}
	o, tl := newOrchestrator(t, f, st, WithAnalyzer(an), WithRunID("run-1"))

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.Empty(t, res.Failed())
	assert.Len(t, res.Sources, 5)
	assert.Equal(t, 1, an.runs)

	// requests follow the source list
	require.Len(t, f.calls, 5)
	assert.Equal(t, bronze.Request{Kind: bronze.KindSeries, Series: "PIB_IBGE_5938_37", Year: 2010, File: "PIB_2010.csv"},
		f.calls[0])

	m := res.Merged
	require.NotNil(t, m)
	keys, _ := m.Column(silver.KeyColumn).AsString()
	assert.Equal(t, []string{"1100015", "1100023"}, keys)
	assert.Equal(t, []any{"1100015", "Alta Floresta D'Oeste", 200, 0.641, 200_000.0, 30_000.0}, m.Row(0)[:6])
	assert.InDelta(t, 0.15, m.Row(0)[6].(float64), 1e-12)

	for _, src := range DefaultSources {
		assert.Contains(t, st.tables, "bronze/"+src.ID.FileName())
		assert.Contains(t, st.tables, "silver/"+src.ID.FileName())
	}
	assert.Same(t, m, st.tables["gold/"+gold.FileName])

	assert.True(t, tl.Contains(`"run_id":"run-1"`))
	assert.True(t, tl.Contains("run finished"))
}

func TestSourceFailureIsSkipped(t *testing.T) {
	f := &fakeFetcher{t: t, fail: map[silver.SourceID]bool{silver.IDHM: true}}
	o, tl := newOrchestrator(t, f, newMemStore())

	tables := o.Collect(context.Background(), DefaultSources)
	assert.Len(t, tables, 4)
	assert.True(t, tl.Contains("source skipped"))

	res, err := o.Run(context.Background())
	assert.Equal(t, []silver.SourceID{silver.IDHM}, res.Failed())
	assert.True(t, errors.IsMergeFailure(err))
	assert.Nil(t, res.Merged)

	assert.True(t, errors.IsSourceFailure(res.Sources[4].Err))
	assert.True(t, errors.Is(res.Sources[4].Err, errors.ErrProviderUnavailable))
}

func TestProcess(t *testing.T) {
	f := &fakeFetcher{t: t}
	st := newMemStore()
	o, _ := newOrchestrator(t, f, st)

	tbl, err := o.Process(context.Background(), DefaultSources[0])
	require.NoError(t, err)
	assert.Equal(t, []string{silver.KeyColumn, silver.GDPColumn}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.RowCount())

	st.fail = store.Silver
	_, err = o.Process(context.Background(), DefaultSources[0])
	var se *errors.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "save silver", se.Stage)

	// a raw table without the rule's columns
	_, err = o.Process(context.Background(), Source{ID: silver.PIB, Kind: bronze.KindTerritory})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "normalize", se.Stage)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{t: t}
	o, _ := newOrchestrator(t, f, newMemStore())
	res, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Failed(), 5)
	assert.Empty(t, f.calls)
}

func TestTransformAndMergeSilver(t *testing.T) {
	root := t.TempDir()
	files := store.NewFiles(filepath.Join(root, "Bronze"), filepath.Join(root, "Silver"),
		filepath.Join(root, "Gold"), filepath.Join(root, "Analysis"))

	o, _ := newOrchestrator(t, &fakeFetcher{t: t}, files)
	first, err := o.Run(context.Background())
	require.NoError(t, err)

	replay := &fakeFetcher{t: t}
	o2, _ := newOrchestrator(t, replay, files)
	again, err := o2.Transform(context.Background(), filepath.Join(root, "Bronze"))
	require.NoError(t, err)
	assert.Empty(t, replay.calls)
	assert.Equal(t, first.Merged.String(), again.Merged.String())

	merged, err := o2.MergeSilver(context.Background(), filepath.Join(root, "Silver"))
	require.NoError(t, err)
	assert.Equal(t, first.Merged.String(), merged.Merged.String())

	_, err = o2.Transform(context.Background(), filepath.Join(root, "nope"))
	assert.True(t, errors.IsMergeFailure(err))
}

func TestSingleSourceSkipsAnalysis(t *testing.T) {
	an := &fakeAnalyzer{}
	o, tl := newOrchestrator(t, &fakeFetcher{t: t}, newMemStore(), WithAnalyzer(an), WithSources(DefaultSources[:1]))

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Merged.RowCount())
	assert.Equal(t, 0, an.runs)
	assert.True(t, tl.Contains("analysis skipped"))
}

func TestSources(t *testing.T) {
	body, err := MarshalSources(DefaultSources)
	require.NoError(t, err)

	back, err := ParseSources(body)
	require.NoError(t, err)
	assert.Equal(t, DefaultSources, back)

	fileName := filepath.Join(t.TempDir(), "sources.yaml")
	_, err = LoadSources(fileName)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	for _, bad := range []string{
		"sources: []",
		"sources:\n  - id: Nope\n    kind: territory\n",
		"sources:\n  - id: PIB_2010\n    kind: series\n",
		"sources:\n  - id: Municípios\n    kind: map\n",
		"sources:\n  - id: Municípios\n    kind: territory\n  - id: Municípios\n    kind: territory\n",
		"sources: [",
	} {
		_, err = ParseSources([]byte(bad))
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), bad)
	}
}
