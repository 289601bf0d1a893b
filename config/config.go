// Package config loads runtime settings from flags, environment variables and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the runtime.
const EnvPrefix = "TOURNAMENT_RUNTIME"

// Feed drivers.
const (
	FeedRedis      = "redis"
	FeedEventStore = "eventstore"
)

// ErrInvalid is wrapped by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all runtime settings.
type Config struct {
	TournamentID int64 `mapstructure:"tournament_id"`

	// DatabaseDriver is postgres, mysql or sqlite.
	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseURL    string `mapstructure:"database_url"`

	// GameDatabaseURL is the postgres DSN of the game catalogue. Falls back to DatabaseURL.
	GameDatabaseURL string `mapstructure:"game_database_url"`

	RedisURL string `mapstructure:"redis_url"`

	// FeedDriver selects the round result feed: redis or eventstore.
	FeedDriver string `mapstructure:"feed_driver"`

	// EventStoreURL is the postgres DSN of the event store feed. Falls back to
	// DatabaseURL when the tournament database is postgres.
	EventStoreURL string `mapstructure:"event_store_url"`

	// TaskID, when set, is used instead of the ECS metadata endpoint.
	TaskID         string `mapstructure:"task_id"`
	ECSMetadataURI string `mapstructure:"ecs_metadata_uri"`

	// MetricsAddr is the listen address of the metrics server. Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`

	CompleteDelay time.Duration `mapstructure:"complete_delay"`

	Log    LogConfig    `mapstructure:"log"`
	Report ReportConfig `mapstructure:"report"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig configures the run summary upload. An empty bucket disables it.
type ReportConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DatabaseDriver: "postgres",
		FeedDriver:     FeedRedis,
		MetricsAddr:    ":9090",
		CompleteDelay:  5 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Report: ReportConfig{
			Prefix: "tournament-runs",
			Region: "auto",
		},
	}
}

// plainEnv lists keys that are also read from unprefixed variables set by
// the hosting platform.
var plainEnv = map[string]string{
	"database_url":     "DATABASE_URL",
	"redis_url":        "REDIS_URL",
	"task_id":          "TASK_ID",
	"ecs_metadata_uri": "ECS_CONTAINER_METADATA_URI_V4",
}

// SetDefaults registers every key with its default value on v.
// Keys must be known to viper for Unmarshal to see environment overrides.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tournament_id", d.TournamentID)
	v.SetDefault("database_driver", d.DatabaseDriver)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("game_database_url", d.GameDatabaseURL)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("feed_driver", d.FeedDriver)
	v.SetDefault("event_store_url", d.EventStoreURL)
	v.SetDefault("task_id", d.TaskID)
	v.SetDefault("ecs_metadata_uri", d.ECSMetadataURI)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("complete_delay", d.CompleteDelay)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("report.bucket", d.Report.Bucket)
	v.SetDefault("report.prefix", d.Report.Prefix)
	v.SetDefault("report.region", d.Report.Region)
	v.SetDefault("report.endpoint", d.Report.Endpoint)
	v.SetDefault("report.access_key_id", d.Report.AccessKeyID)
	v.SetDefault("report.secret_access_key", d.Report.SecretAccessKey)
}

// NewViper returns a viper instance with defaults and environment bindings.
// TOURNAMENT_RUNTIME_LOG_LEVEL maps to log.level.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, plain := range plainEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(key)
		if err := v.BindEnv(key, prefixed, plain); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return v, nil
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// flag name -> viper key
var flagKeys = map[string]string{
	"tournament-id":   "tournament_id",
	"database-driver": "database_driver",
	"database-url":    "database_url",
	"redis-url":       "redis_url",
	"feed-driver":     "feed_driver",
	"metrics-addr":    "metrics_addr",
	"complete-delay":  "complete_delay",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"report-bucket":   "report.bucket",
}

// RegisterFlags defines the command line flags on cmd and binds them to v.
// Flags left unset do not override environment values.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Default()
	flags := cmd.Flags()
	flags.Int64("tournament-id", 0, "tournament to drive")
	flags.String("database-driver", d.DatabaseDriver, "tournament database driver (postgres, mysql, sqlite)")
	flags.String("database-url", "", "tournament database DSN")
	flags.String("redis-url", "", "redis URL for the round result feed and leaderboards")
	flags.String("feed-driver", d.FeedDriver, "round result feed (redis or eventstore)")
	flags.String("metrics-addr", d.MetricsAddr, "metrics server listen address (empty disables)")
	flags.Duration("complete-delay", d.CompleteDelay, "delay between finalising and completing")
	flags.String("log-level", d.Log.Level, "log level")
	flags.String("log-format", d.Log.Format, "log format (json or text)")
	flags.String("report-bucket", "", "S3 bucket for run summaries (empty disables)")

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// GameDSN returns the game catalogue DSN.
func (c *Config) GameDSN() string {
	if c.GameDatabaseURL != "" {
		return c.GameDatabaseURL
	}
	return c.DatabaseURL
}

// EventStoreDSN returns the event store DSN, or "" when none is usable.
func (c *Config) EventStoreDSN() string {
	if c.EventStoreURL != "" {
		return c.EventStoreURL
	}
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseURL
	}
	return ""
}

// Validate reports every missing or malformed setting.
func (c *Config) Validate() error {
	var problems []string

	if c.TournamentID <= 0 {
		problems = append(problems, "tournament_id is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database_driver %q is not supported", c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		problems = append(problems, "database_url is required")
	}
	if c.DatabaseDriver != "postgres" && c.GameDatabaseURL == "" {
		problems = append(problems, "game_database_url is required unless database_driver is postgres")
	}
	if c.RedisURL == "" {
		problems = append(problems, "redis_url is required")
	}
	switch c.FeedDriver {
	case FeedRedis:
	case FeedEventStore:
		if c.EventStoreDSN() == "" {
			problems = append(problems, "event_store_url is required for the eventstore feed unless database_driver is postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("feed_driver %q is not supported", c.FeedDriver))
	}
	if c.TaskID == "" && c.ECSMetadataURI == "" {
		problems = append(problems, "task_id or ecs_metadata_uri is required")
	}
	if c.CompleteDelay < 0 {
		problems = append(problems, "complete_delay must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not supported", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
