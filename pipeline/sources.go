package pipeline

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/invertedv/ipea/bronze"
	"github.com/invertedv/ipea/internal/errors"
	"github.com/invertedv/ipea/silver"
)

// ReferenceYear is the year of every yearly series.
const ReferenceYear = 2010

// Source is one raw table to fetch and the rule that normalizes it.
type Source struct {
	ID     silver.SourceID `yaml:"id"`
	Kind   bronze.Kind     `yaml:"kind"`
	Series string          `yaml:"series,omitempty"`
	Year   int             `yaml:"year,omitempty"`
}

// DefaultSources are fetched in this order.
var DefaultSources = []Source{
	{ID: silver.PIB, Kind: bronze.KindSeries, Series: "PIB_IBGE_5938_37", Year: ReferenceYear},
	{ID: silver.Arrecadacao, Kind: bronze.KindSeries, Series: "RECORRM", Year: ReferenceYear},
	{ID: silver.Populacao, Kind: bronze.KindSeries, Series: "POPTOT", Year: ReferenceYear},
	{ID: silver.Municipios, Kind: bronze.KindTerritory},
	{ID: silver.IDHM, Kind: bronze.KindBridge, Series: "ADH_IDHM"},
}

// Request is what the fetcher is asked for.
func (s Source) Request() bronze.Request {
	return bronze.Request{Kind: s.Kind, Series: s.Series, Year: s.Year, File: s.ID.FileName()}
}

func (s Source) Validate() error {
	if _, ok := silver.Rules[s.ID]; !ok {
		return errors.NewConfigError("sources", fmt.Sprintf("no rule for source %q", s.ID), nil)
	}

	switch s.Kind {
	case bronze.KindSeries:
		if s.Series == "" || s.Year == 0 {
			return errors.NewConfigError("sources", fmt.Sprintf("source %s needs a series and a year", s.ID), nil)
		}
	case bronze.KindBridge:
		if s.Series == "" {
			return errors.NewConfigError("sources", fmt.Sprintf("source %s needs a series", s.ID), nil)
		}
	case bronze.KindTerritory:
	default:
		return errors.NewConfigError("sources", fmt.Sprintf("source %s has unknown kind %q", s.ID, s.Kind), nil)
	}

	return nil
}

type manifest struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads a YAML list of sources:
//
//	sources:
//	  - id: PIB_2010
//	    kind: series
//	    series: PIB_IBGE_5938_37
//	    year: 2010
func LoadSources(fileName string) ([]Source, error) {
	body, e := os.ReadFile(fileName)
	if e != nil {
		return nil, errors.NewConfigError("sources", "cannot read "+fileName, e)
	}

	return ParseSources(body)
}

func ParseSources(body []byte) ([]Source, error) {
	var m manifest
	if e := yaml.Unmarshal(body, &m); e != nil {
		return nil, errors.NewConfigError("sources", "bad manifest", e)
	}

	if len(m.Sources) == 0 {
		return nil, errors.NewConfigError("sources", "manifest lists no sources", nil)
	}

	seen := make(map[silver.SourceID]bool)
	for _, s := range m.Sources {
		if e := s.Validate(); e != nil {
			return nil, e
		}

		if seen[s.ID] {
			return nil, errors.NewConfigError("sources", fmt.Sprintf("source %s listed twice", s.ID), nil)
		}

		seen[s.ID] = true
	}

	return m.Sources, nil
}

// MarshalSources renders sources as a manifest LoadSources reads back.
func MarshalSources(sources []Source) ([]byte, error) {
	return yaml.Marshal(manifest{Sources: sources})
}
