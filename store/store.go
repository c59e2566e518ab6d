// Package store persists the tables of each tier: CSV files on disk, optionally mirrored
// as Parquet, into an object bucket and, for the gold table, into a database.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	d "github.com/invertedv/ipea"
)

// Tier is a stage of the pipeline whose tables are kept.
type Tier string

const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Analysis Tier = "analysis"
)

// Store saves tbl as name in tier.
type Store interface {
	Save(ctx context.Context, tbl *d.DF, tier Tier, name string) error
}

// *********** Files ***********

// Files writes each table as CSV into the directory of its tier.
type Files struct {
	dirs map[Tier]string
}

// NewFiles maps the tiers, in pipeline order, to the given directories.
func NewFiles(bronze, silver, gold, analysis string) *Files {
	return &Files{dirs: map[Tier]string{Bronze: bronze, Silver: silver, Gold: gold, Analysis: analysis}}
}

// Path returns the file name of name in tier.
func (f *Files) Path(tier Tier, name string) (string, error) {
	dir, ok := f.dirs[tier]
	if !ok {
		return "", fmt.Errorf("unknown tier %s", tier)
	}

	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("illegal table name %q", name)
	}

	return filepath.Join(dir, name), nil
}

func (f *Files) Save(_ context.Context, tbl *d.DF, tier Tier, name string) error {
	fileName, e := f.Path(tier, name)
	if e != nil {
		return e
	}

	if e = os.MkdirAll(filepath.Dir(fileName), 0o755); e != nil {
		return e
	}

	return d.NewFiles().Save(tbl, fileName)
}

// *********** Multi ***********

// Multi saves to every store in order and stops at the first error. Stores after the
// first are mirrors: their failures are logged and skipped when Lenient is set.
type Multi struct {
	Stores  []Store
	Lenient bool

	log zerolog.Logger
}

func NewMulti(log zerolog.Logger, lenient bool, stores ...Store) *Multi {
	return &Multi{Stores: stores, Lenient: lenient, log: log}
}

func (m *Multi) Save(ctx context.Context, tbl *d.DF, tier Tier, name string) error {
	for ind, s := range m.Stores {
		if s == nil {
			continue
		}

		e := s.Save(ctx, tbl, tier, name)
		if e == nil {
			continue
		}

		if ind == 0 || !m.Lenient {
			return e
		}

		m.log.Warn().Err(e).Str("tier", string(tier)).Str("table", name).Msg("mirror save failed")
	}

	return nil
}
