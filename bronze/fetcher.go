// Package bronze fetches the raw tables: ipeadata time series, the territory list and the
// human development index, or replays them from the bronze tier on disk.
package bronze

import (
	"context"

	d "github.com/invertedv/ipea"
)

// Kind selects the provider of a raw table.
type Kind string

const (
	// KindSeries is a time series by code, restricted to one year
	KindSeries Kind = "series"
	// KindTerritory is the list of territories
	KindTerritory Kind = "territory"
	// KindBridge is a series reshaped to code, date, value, uname, tcode
	KindBridge Kind = "bridge"
)

// Request describes one raw table.
type Request struct {
	Kind   Kind
	Series string
	Year   int

	// File is the name of the table in the bronze tier.
	File string
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*d.DF, error)
}
