package bronze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/internal/errors"
)

// Replay answers requests from the tables of an earlier run, saved as CSV in Dir.
type Replay struct {
	Dir string
}

func NewReplay(dir string) *Replay {
	return &Replay{Dir: dir}
}

func (r *Replay) Fetch(_ context.Context, req Request) (*d.DF, error) {
	if req.File == "" {
		return nil, fmt.Errorf("no bronze file for %s request %q", req.Kind, req.Series)
	}

	fileName := filepath.Join(r.Dir, req.File)
	if _, e := os.Stat(fileName); e != nil {
		return nil, fmt.Errorf("bronze file %s: %w", fileName, errors.ErrNotFound)
	}

	return d.NewFiles().Load(fileName)
}
