package bronze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/internal/errors"
)

// DefaultBaseURL is the ipeadata OData v4 service.
const DefaultBaseURL = "http://www.ipeadata.gov.br/api/odata4"

var seriesCodeRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// english level names of the bridge layout
var bridgeLevels = map[string]string{
	"Brasil":     "Brazil",
	"Regiões":    "Regions",
	"Estados":    "States",
	"Municípios": "Municipality",
}

// Client reads ipeadata. Requests are throttled and, with a cache, answered from it when possible.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	log     zerolog.Logger
}

type ClientOpt func(*Client)

func WithTimeout(timeout time.Duration) ClientOpt {
	return func(c *Client) { c.http.Timeout = timeout }
}

func WithHTTPClient(h *http.Client) ClientOpt {
	return func(c *Client) { c.http = h }
}

// WithRate limits requests to rps per second.
func WithRate(rps float64, burst int) ClientOpt {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func WithCache(cache Cache) ClientOpt {
	return func(c *Client) { c.cache = cache }
}

func WithLogger(log zerolog.Logger) ClientOpt {
	return func(c *Client) { c.log = log }
}

func NewClient(base string, opts ...ClientOpt) *Client {
	if base == "" {
		base = DefaultBaseURL
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch returns the raw table for req, dispatching on its Kind.
func (c *Client) Fetch(ctx context.Context, req Request) (*d.DF, error) {
	switch req.Kind {
	case KindSeries:
		return c.Series(ctx, req.Series, req.Year)
	case KindTerritory:
		return c.Territories(ctx)
	case KindBridge:
		return c.Bridge(ctx, req.Series)
	}

	return nil, fmt.Errorf("unknown source kind %q", req.Kind)
}

// *********** OData payloads ***********

type valueRow struct {
	Code      string   `json:"SERCODIGO"`
	Date      string   `json:"VALDATA"`
	Value     *float64 `json:"VALVALOR"`
	Level     string   `json:"NIVNOME"`
	Territory string   `json:"TERCODIGO"`
}

type metaRow struct {
	Code string `json:"SERCODIGO"`
	Unit string `json:"UNINOME"`
}

type territoryRow struct {
	Level   string   `json:"NIVNOME"`
	Code    string   `json:"TERCODIGO"`
	Name    string   `json:"TERNOME"`
	Capital *bool    `json:"TERCAPITAL"`
	Area    *float64 `json:"TERAREA"`
}

type odata[T any] struct {
	Value []T `json:"value"`
}

// Series returns the values of series code in year with the columns
// CODE, RAW DATE, DAY, MONTH, YEAR, NIVNOME, TERCODIGO and VALUE (<unit>).
func (c *Client) Series(ctx context.Context, code string, year int) (*d.DF, error) {
	var (
		meta odata[metaRow]
		vals odata[valueRow]
		e    error
	)

	if !seriesCodeRE.MatchString(code) {
		return nil, errors.NewConfigError("series", fmt.Sprintf("illegal series code %q", code), nil)
	}

	if e = c.get(ctx, fmt.Sprintf("Metadados('%s')", code), &meta); e != nil {
		return nil, e
	}

	if len(meta.Value) == 0 {
		return nil, fmt.Errorf("no metadata for series %s: %w", code, errors.ErrNotFound)
	}

	if e = c.get(ctx, fmt.Sprintf("ValoresSerie(SERCODIGO='%s')", code), &vals); e != nil {
		return nil, e
	}

	cols := []*d.Col{
		newCol("CODE", d.DTstring), newCol("RAW DATE", d.DTstring), newCol("DAY", d.DTint),
		newCol("MONTH", d.DTint), newCol("YEAR", d.DTint), newCol("NIVNOME", d.DTstring),
		newCol("TERCODIGO", d.DTstring), newCol(fmt.Sprintf("VALUE (%s)", meta.Value[0].Unit), d.DTfloat),
	}

	for _, v := range vals.Value {
		date, e := time.Parse(time.RFC3339, v.Date)
		if e != nil {
			return nil, fmt.Errorf("series %s: bad date %q: %w", code, v.Date, e)
		}

		if year > 0 && date.Year() != year {
			continue
		}

		row := []any{v.Code, v.Date, date.Day(), int(date.Month()), date.Year(), v.Level, v.Territory, nil}
		if v.Value != nil {
			row[7] = *v.Value
		}

		if e = appendRow(cols, row); e != nil {
			return nil, e
		}
	}

	if cols[0].Len() == 0 {
		return nil, fmt.Errorf("series %s has no values in %d: %w", code, year, errors.ErrNotFound)
	}

	c.log.Debug().Str("series", code).Int("rows", cols[0].Len()).Msg("fetched series")

	return d.NewDF(cols...)
}

// Territories returns the territory list with the columns NAME, ID, LEVEL, AREA and CAPITAL.
func (c *Client) Territories(ctx context.Context) (*d.DF, error) {
	var ters odata[territoryRow]
	if e := c.get(ctx, "Territorios", &ters); e != nil {
		return nil, e
	}

	cols := []*d.Col{newCol("NAME", d.DTstring), newCol("ID", d.DTstring), newCol("LEVEL", d.DTstring),
		newCol("AREA", d.DTfloat), newCol("CAPITAL", d.DTstring)}

	for _, t := range ters.Value {
		row := []any{t.Name, t.Code, t.Level, nil, nil}
		if t.Area != nil {
			row[3] = *t.Area
		}

		if t.Capital != nil {
			row[4] = strconv.FormatBool(*t.Capital)
		}

		if e := appendRow(cols, row); e != nil {
			return nil, e
		}
	}

	if cols[0].Len() == 0 {
		return nil, fmt.Errorf("no territories: %w", errors.ErrNotFound)
	}

	return d.NewDF(cols...)
}

// Bridge returns every value of series code as code, date, value, uname, tcode, with
// level names in English.
func (c *Client) Bridge(ctx context.Context, code string) (*d.DF, error) {
	if !seriesCodeRE.MatchString(code) {
		return nil, errors.NewConfigError("bridge", fmt.Sprintf("illegal series code %q", code), nil)
	}

	var vals odata[valueRow]
	if e := c.get(ctx, fmt.Sprintf("ValoresSerie(SERCODIGO='%s')", code), &vals); e != nil {
		return nil, e
	}

	cols := []*d.Col{newCol("code", d.DTstring), newCol("date", d.DTdate), newCol("value", d.DTfloat),
		newCol("uname", d.DTstring), newCol("tcode", d.DTstring)}

	for _, v := range vals.Value {
		date, e := time.Parse(time.RFC3339, v.Date)
		if e != nil {
			return nil, fmt.Errorf("series %s: bad date %q: %w", code, v.Date, e)
		}

		uname, ok := bridgeLevels[v.Level]
		if !ok {
			uname = v.Level
		}

		row := []any{v.Code, time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC), nil, uname, v.Territory}
		if v.Value != nil {
			row[2] = *v.Value
		}

		if e = appendRow(cols, row); e != nil {
			return nil, e
		}
	}

	if cols[0].Len() == 0 {
		return nil, fmt.Errorf("series %s has no values: %w", code, errors.ErrNotFound)
	}

	return d.NewDF(cols...)
}

// get decodes the JSON answer of path into target.
func (c *Client) get(ctx context.Context, path string, target any) error {
	url := c.base + "/" + path

	body, hit, err := c.cacheGet(ctx, url)
	if err != nil {
		return err
	}

	if !hit {
		if body, err = c.request(ctx, url); err != nil {
			return err
		}

		if c.cache != nil {
			if err := c.cache.Set(ctx, url, body); err != nil {
				c.log.Warn().Err(err).Str("url", url).Msg("cache write failed")
			}
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func (c *Client) cacheGet(ctx context.Context, url string) ([]byte, bool, error) {
	if c.cache == nil {
		return nil, false, nil
	}

	body, hit, err := c.cache.Get(ctx, url)
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("cache read failed")
		return nil, false, nil
	}

	if hit {
		c.log.Debug().Str("url", url).Msg("cache hit")
	}

	return body, hit, nil
}

func (c *Client) request(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	c.log.Debug().Str("url", url).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("GET")

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}

		return nil, errors.NewAPIError(url, resp.StatusCode, msg)
	}

	return body, nil
}

// *********** Helpers ***********

func newCol(name string, dt d.DataTypes) *d.Col {
	c, _ := d.NewCol(d.MakeVector(dt, 0), dt, d.ColName(name))
	return c
}

func appendRow(cols []*d.Col, row []any) error {
	for ind, col := range cols {
		if e := col.Append(row[ind]); e != nil {
			return fmt.Errorf("column %s: %w", col.Name(), e)
		}
	}

	return nil
}
