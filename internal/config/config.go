// Package config loads the run configuration from the environment, .env files and defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/invertedv/ipea/internal/errors"
)

// Config is read once at startup.
type Config struct {
	// tier directories
	BronzeFolder   string
	SilverFolder   string
	GoldFolder     string
	AnalysisFolder string

	// ipeadata client
	IpeaBaseURL string
	IpeaTimeout time.Duration
	IpeaRPS     float64

	// response cache, off when RedisURL is empty
	RedisURL string
	RedisTTL time.Duration

	Parquet bool

	// bucket mirror, off when MinioEndpoint is empty
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPrefix    string
	MinioSecure    bool

	// gold table sink, off when DBDialect is empty
	DBDialect  string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBTable    string

	SourcesFile string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"BRONZE_FOLDER":        "Bronze",
	"SILVER_FOLDER":        "Silver",
	"GOLD_FOLDER":          "Gold",
	"DESCRIPTIVE_ANALYSIS": "Descriptive Analysis",
	"IPEA_BASE_URL":        "http://www.ipeadata.gov.br/api/odata4",
	"IPEA_TIMEOUT":         "60s",
	"IPEA_RPS":             2.0,
	"REDIS_URL":            "",
	"REDIS_TTL":            "24h",
	"PARQUET":              false,
	"MINIO_ENDPOINT":       "",
	"MINIO_ACCESS_KEY":     "",
	"MINIO_SECRET_KEY":     "",
	"MINIO_BUCKET":         "",
	"MINIO_PREFIX":         "ipea",
	"MINIO_SECURE":         false,
	"DB_DIALECT":           "",
	"DB_HOST":              "localhost",
	"DB_USER":              "",
	"DB_PASSWORD":          "",
	"DB_NAME":              "default",
	"DB_TABLE":             "",
	"SOURCES_FILE":         "",
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "auto",
}

// DefaultEnvFiles are loaded in order; a variable already set is never overridden.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Load reads the configuration. Environment variables win over the env files, which win
// over the defaults. Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return nil, errors.NewConfigError("env", "cannot read "+f, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.NewConfigError("env", "cannot bind "+key, err)
		}
	}

	cfg := &Config{
		BronzeFolder:   v.GetString("BRONZE_FOLDER"),
		SilverFolder:   v.GetString("SILVER_FOLDER"),
		GoldFolder:     v.GetString("GOLD_FOLDER"),
		AnalysisFolder: v.GetString("DESCRIPTIVE_ANALYSIS"),
		IpeaBaseURL:    strings.TrimRight(v.GetString("IPEA_BASE_URL"), "/"),
		IpeaTimeout:    v.GetDuration("IPEA_TIMEOUT"),
		IpeaRPS:        v.GetFloat64("IPEA_RPS"),
		RedisURL:       v.GetString("REDIS_URL"),
		RedisTTL:       v.GetDuration("REDIS_TTL"),
		Parquet:        v.GetBool("PARQUET"),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioPrefix:    v.GetString("MINIO_PREFIX"),
		MinioSecure:    v.GetBool("MINIO_SECURE"),
		DBDialect:      strings.ToLower(v.GetString("DB_DIALECT")),
		DBHost:         v.GetString("DB_HOST"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBTable:        v.GetString("DB_TABLE"),
		SourcesFile:    v.GetString("SOURCES_FILE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for name, dir := range map[string]string{"BRONZE_FOLDER": c.BronzeFolder, "SILVER_FOLDER": c.SilverFolder,
		"GOLD_FOLDER": c.GoldFolder, "DESCRIPTIVE_ANALYSIS": c.AnalysisFolder} {
		if strings.TrimSpace(dir) == "" {
			return errors.NewConfigError("folders", name+" is empty", nil)
		}
	}

	if c.IpeaTimeout <= 0 {
		return errors.NewConfigError("ipea", "IPEA_TIMEOUT must be positive", nil)
	}

	if c.IpeaRPS <= 0 {
		return errors.NewConfigError("ipea", "IPEA_RPS must be positive", nil)
	}

	if c.MinioEndpoint != "" && (c.MinioBucket == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return errors.NewConfigError("minio", "MINIO_BUCKET, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with MINIO_ENDPOINT", nil)
	}

	switch c.DBDialect {
	case "":
	case "clickhouse", "postgres":
		if c.DBTable == "" {
			return errors.NewConfigError("db", "DB_TABLE is required with DB_DIALECT", nil)
		}
	default:
		return errors.NewConfigError("db", "unknown DB_DIALECT "+c.DBDialect, nil)
	}

	return nil
}

// Folders returns the tier directories in pipeline order.
func (c *Config) Folders() []string {
	return []string{c.BronzeFolder, c.SilverFolder, c.GoldFolder, c.AnalysisFolder}
}

// CreateFolders makes the tier directories.
func (c *Config) CreateFolders() error {
	for _, dir := range c.Folders() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewConfigError("folders", "cannot create "+dir, err)
		}
	}

	return nil
}
