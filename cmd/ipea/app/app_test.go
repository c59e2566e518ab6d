package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/gold"
	"github.com/invertedv/ipea/pipeline"
	"github.com/invertedv/ipea/silver"
	"github.com/invertedv/ipea/store"
)

func setup(t *testing.T) string {
	root := t.TempDir()
	t.Setenv("BRONZE_FOLDER", filepath.Join(root, "Bronze"))
	t.Setenv("SILVER_FOLDER", filepath.Join(root, "Silver"))
	t.Setenv("GOLD_FOLDER", filepath.Join(root, "Gold"))
	t.Setenv("DESCRIPTIVE_ANALYSIS", filepath.Join(root, "Descriptive Analysis"))
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("DB_DIALECT", "")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PARQUET", "false")

	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestNew(t *testing.T) {
	root := setup(t)

	a, err := New("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", a.Config().LogLevel)
	for _, dir := range []string{"Bronze", "Silver", "Gold", "Descriptive Analysis"} {
		assert.DirExists(t, filepath.Join(root, dir))
	}

	st, err := a.Store(context.Background(), "run-1")
	require.NoError(t, err)
	m, ok := st.(*store.Multi)
	require.True(t, ok)
	assert.Len(t, m.Stores, 1)

	t.Setenv("PARQUET", "true")
	a, err = New("")
	require.NoError(t, err)
	st, err = a.Store(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, st.(*store.Multi).Stores, 2)
	assert.NoError(t, a.Close())
}

func TestSourcesCommand(t *testing.T) {
	setup(t)
	out, err := execute(t, "sources")
	require.NoError(t, err)

	back, err := pipeline.ParseSources([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultSources, back)

	manifest := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("sources:\n  - id: Municípios\n    kind: territory\n"), 0o644))
	t.Setenv("SOURCES_FILE", manifest)
	out, err = execute(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "territory")
	assert.NotContains(t, out, "POPTOT")
}

func TestReportCommand(t *testing.T) {
	root := setup(t)

	_, err := execute(t, "report")
	assert.Error(t, err)

	var cols []*d.Col
	for _, c := range []struct {
		name string
		data any
		dt   d.DataTypes
	}{
		{silver.KeyColumn, []string{"1", "2", "3"}, d.DTstring},
		{silver.NameColumn, []string{"A", "B", "C"}, d.DTstring},
		{silver.PopColumn, []int{10, 20, 30}, d.DTint},
		{silver.HDIColumn, []float64{0.5, 0.6, 0.8}, d.DTfloat},
		{silver.GDPColumn, []float64{100, 200, 300}, d.DTfloat},
		{silver.TaxColumn, []float64{10, 30, 40}, d.DTfloat},
		{silver.BurdenColumn, []float64{0.1, 0.15, 0.4 / 3}, d.DTfloat},
	} {
		col, e := d.NewCol(c.data, c.dt, d.ColName(c.name))
		require.NoError(t, e)
		cols = append(cols, col)
	}
	tbl, err := d.NewDF(cols...)
	require.NoError(t, err)
	require.NoError(t, d.NewFiles().Save(tbl, filepath.Join(root, "Gold", gold.FileName)))

	out, err := execute(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "count")
	assert.FileExists(t, filepath.Join(root, "Descriptive Analysis", "Descriptive Statistics Initial Analysis.csv"))
}

func TestMergeCommandWithoutTables(t *testing.T) {
	setup(t)
	_, err := execute(t, "merge")
	assert.Error(t, err)
}
