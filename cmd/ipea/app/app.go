// Package app wires the configuration into the fetcher, the stores and the pipeline.
package app

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/bronze"
	"github.com/invertedv/ipea/internal/config"
	"github.com/invertedv/ipea/internal/logging"
	"github.com/invertedv/ipea/pipeline"
	"github.com/invertedv/ipea/report"
	"github.com/invertedv/ipea/silver"
	"github.com/invertedv/ipea/store"
)

// App holds the configuration and the connections of one command.
type App struct {
	cfg *config.Config
	log zerolog.Logger
	out io.Writer

	closers []func() error
}

// New loads the configuration and creates the tier directories. logLevel, when set,
// overrides LOG_LEVEL.
func New(logLevel string, envFiles ...string) (*App, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	lc := logging.DefaultConfig()
	lc.Level, lc.Format = cfg.LogLevel, cfg.LogFormat

	a := &App{cfg: cfg, log: logging.New(lc), out: os.Stdout}
	if err = cfg.CreateFolders(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Logger() zerolog.Logger {
	return a.log
}

// Close releases the connections opened for the command.
func (a *App) Close() error {
	var first error
	for ind := len(a.closers) - 1; ind >= 0; ind-- {
		if err := a.closers[ind](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil

	return first
}

// Client is the ipeadata client, with the Redis cache when REDIS_URL is set.
func (a *App) Client(ctx context.Context) *bronze.Client {
	opts := []bronze.ClientOpt{
		bronze.WithTimeout(a.cfg.IpeaTimeout),
		bronze.WithRate(a.cfg.IpeaRPS, 1),
		bronze.WithLogger(a.log),
	}

	if a.cfg.RedisURL != "" {
		rdb, err := bronze.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			a.log.Warn().Err(err).Msg("redis unavailable, fetching without cache")
		} else {
			a.closers = append(a.closers, rdb.Close)
			opts = append(opts, bronze.WithCache(bronze.NewRedisCache(rdb, bronze.WithCacheTTL(a.cfg.RedisTTL))))
		}
	}

	return bronze.NewClient(a.cfg.IpeaBaseURL, opts...)
}

// Files is the CSV store of the tier directories.
func (a *App) Files() *store.Files {
	return store.NewFiles(a.cfg.BronzeFolder, a.cfg.SilverFolder, a.cfg.GoldFolder, a.cfg.AnalysisFolder)
}

// Store is the CSV store plus the configured mirrors: parquet files, the bucket and the
// gold table in the database.
func (a *App) Store(ctx context.Context, runID string) (store.Store, error) {
	files := a.Files()
	stores := []store.Store{files}

	if a.cfg.Parquet {
		stores = append(stores, store.NewParquet(files))
	}

	if a.cfg.MinioEndpoint != "" {
		m, err := store.NewMinIO(ctx, a.cfg.MinioEndpoint, a.cfg.MinioAccessKey, a.cfg.MinioSecretKey,
			a.cfg.MinioBucket, a.cfg.MinioSecure)
		if err != nil {
			return nil, err
		}

		stores = append(stores, store.NewBucket(m, a.cfg.MinioBucket, runID,
			store.WithPrefix(a.cfg.MinioPrefix), store.WithParquet(a.cfg.Parquet)))
	}

	if a.cfg.DBDialect != "" {
		db, err := store.OpenDB(ctx, a.cfg.DBDialect, a.cfg.DBHost, a.cfg.DBUser, a.cfg.DBPassword, a.cfg.DBName)
		if err != nil {
			return nil, err
		}

		dialect, err := d.NewDialect(a.cfg.DBDialect, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		tbl := store.NewTable(dialect, a.cfg.DBTable, silver.KeyColumn)
		a.closers = append(a.closers, tbl.Close)
		stores = append(stores, tbl)
	}

	return store.NewMulti(a.log, true, stores...), nil
}

// Sources is the source list of SOURCES_FILE, or the built-in one.
func (a *App) Sources() ([]pipeline.Source, error) {
	if a.cfg.SourcesFile == "" {
		return pipeline.DefaultSources, nil
	}

	return pipeline.LoadSources(a.cfg.SourcesFile)
}

func (a *App) Analyzer(st store.Store) *report.Analyzer {
	return report.New(a.cfg.AnalysisFolder, st, report.WithOutput(a.out), report.WithLogger(a.log))
}

// Orchestrator builds the pipeline on fetcher. analyze adds the descriptive analysis.
func (a *App) Orchestrator(ctx context.Context, fetcher bronze.Fetcher, analyze bool) (*pipeline.Orchestrator, error) {
	sources, err := a.Sources()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	st, err := a.Store(ctx, runID)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Opt{pipeline.WithSources(sources), pipeline.WithRunID(runID), pipeline.WithLogger(a.log)}
	if analyze {
		opts = append(opts, pipeline.WithAnalyzer(a.Analyzer(st)))
	}

	return pipeline.New(fetcher, st, opts...), nil
}

// DefaultEnvFiles are the env files read when --env-file is not given.
func DefaultEnvFiles() []string {
	return append([]string{}, config.DefaultEnvFiles...)
}
