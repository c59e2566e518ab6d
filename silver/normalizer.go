// Package silver turns the raw table of each source into a two column table keyed by
// municipality: CodMunIBGE and the source's indicator.
package silver

import (
	"fmt"

	"github.com/rs/zerolog"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/internal/errors"
)

const stage = "normalize"

type Normalizer struct {
	rules map[SourceID]Rule
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{rules: Rules, log: log}
}

// Normalize applies the rule of source id to raw. raw is not modified. Every failure,
// panics included, comes back as a *errors.SourceError.
func (n *Normalizer) Normalize(raw *d.DF, id SourceID) (tbl *d.DF, err error) {
	log := n.log.With().Str("source", string(id)).Logger()

	defer func() {
		if r := recover(); r != nil {
			tbl, err = nil, errors.NewSourceError(string(id), stage, fmt.Errorf("panic: %v", r))
		}

		if err != nil {
			log.Error().Err(err).Msg("normalization failed")
		}
	}()

	rule, ok := n.rules[id]
	if !ok {
		return nil, errors.NewSourceError(string(id), stage, fmt.Errorf("no rule for source: %w", errors.ErrNotFound))
	}

	if raw == nil || raw.RowCount() == 0 {
		return nil, errors.NewSourceError(string(id), stage, fmt.Errorf("empty raw table"))
	}

	if tbl, err = apply(raw, rule, log); err != nil {
		return nil, errors.NewSourceError(string(id), stage, err)
	}

	log.Debug().Int("rows_raw", raw.RowCount()).Int("rows", tbl.RowCount()).Msg("normalized")

	return tbl, nil
}

func apply(raw *d.DF, rule Rule, log zerolog.Logger) (*d.DF, error) {
	var (
		indic []bool
		tbl   *d.DF
		e     error
	)

	if indic, e = keep(raw, rule); e != nil {
		return nil, e
	}

	if tbl, e = raw.Where(indic); e != nil {
		return nil, e
	}

	if tbl.RowCount() == 0 {
		return nil, fmt.Errorf("no %s rows in %s", rule.LevelLabel, rule.LevelColumn)
	}

	for _, drop := range rule.Drop {
		cn, ok := columnName(tbl, drop)
		if !ok {
			return nil, fmt.Errorf("column %s to drop not found", drop)
		}

		if e = tbl.DropColumns(cn); e != nil {
			return nil, e
		}
	}

	for _, r := range rule.Rename {
		cn, ok := columnName(tbl, r.From)
		if !ok && r.Unit {
			cn, e = unitColumn(tbl)
			ok = e == nil
			if ok {
				log.Warn().Str("expected", r.From).Str("found", cn).Msg("value column renamed upstream")
			}
		}

		if !ok {
			return nil, fmt.Errorf("column %s to rename not found", r.From)
		}

		if e = tbl.Rename(cn, r.To); e != nil {
			return nil, e
		}
	}

	if rule.Convert != nil {
		if e = rule.Convert(tbl, log); e != nil {
			return nil, e
		}
	}

	return project(tbl, rule.Indicator)
}

// keep marks the rows at the rule's level (and date).
func keep(raw *d.DF, rule Rule) ([]bool, error) {
	lc, ok := columnName(raw, rule.LevelColumn)
	if !ok {
		return nil, fmt.Errorf("level column %s not found", rule.LevelColumn)
	}

	level := raw.Column(lc)

	var date *d.Col
	if rule.DateColumn != "" {
		dc, ok := columnName(raw, rule.DateColumn)
		if !ok {
			return nil, fmt.Errorf("date column %s not found", rule.DateColumn)
		}

		date = raw.Column(dc)
	}

	indic := make([]bool, raw.RowCount())
	for row := range indic {
		if level.IsNull(row) {
			continue
		}

		label, e := level.ElementString(row)
		if e != nil || !sameLabel(label, rule.LevelLabel) {
			continue
		}

		indic[row] = date == nil || onDate(date.Element(row), rule.OnDate)
	}

	return indic, nil
}

// project keeps the key, as a string, and the indicator.
func project(tbl *d.DF, indicator string) (*d.DF, error) {
	key := tbl.Column(KeyColumn)
	if key == nil {
		return nil, fmt.Errorf("key column %s missing after rename", KeyColumn)
	}

	val := tbl.Column(indicator)
	if val == nil {
		return nil, fmt.Errorf("indicator column %s missing after rename", indicator)
	}

	skey, e := key.Cast(d.DTstring)
	if e != nil {
		return nil, e
	}

	return d.NewDF(skey, val)
}
