package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"timelines/internal/domain"
)

const (
	FileName   = "timelines.yaml"
	SchemaFile = "schema.yaml"
	EnvPrefix  = "TIMELINES_"

	AdapterMemory   = "memory"
	AdapterSQLite   = "sqlite"
	AdapterPostgres = "postgres"
	AdapterPGVector = "pgvector"
	AdapterNone     = "none"

	DefaultUserID = "00000000-0000-0000-0000-000000000001"
	DefaultDSN    = "sqlite://.timelines/timelines.db"
)

type ProjectConfig struct {
	Project string        `yaml:"project"`
	Version int           `yaml:"version"`
	UserID  string        `yaml:"user_id" env:"USER_ID"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Vector  VectorConfig  `yaml:"vector" envPrefix:"VECTOR_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Sources []Source      `yaml:"sources"`
	Exclude []string      `yaml:"exclude"`

	userID uuid.UUID
}

type StorageConfig struct {
	Adapter string `yaml:"adapter" env:"ADAPTER"`
	DSN     string `yaml:"dsn" env:"DSN"`
}

type VectorConfig struct {
	Adapter    string `yaml:"adapter" env:"ADAPTER"`
	DSN        string `yaml:"dsn" env:"DSN"`
	Dimensions int    `yaml:"dimensions" env:"DIMENSIONS"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Source maps markdown paths onto one timeline of the project.
type Source struct {
	Timeline string   `yaml:"timeline"`
	Status   string   `yaml:"status"`
	Parent   string   `yaml:"parent"`
	Paths    []string `yaml:"paths"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("loading project config: parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// User is the identity every operation runs as.
func (c *ProjectConfig) User() uuid.UUID { return c.userID }

// SourceByTimeline looks a source up by timeline name, case-insensitively.
func (c *ProjectConfig) SourceByTimeline(name string) (*Source, bool) {
	for i := range c.Sources {
		if strings.EqualFold(c.Sources[i].Timeline, name) {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	if cfg.Storage.Adapter == "" {
		cfg.Storage.Adapter = AdapterSQLite
	}
	if cfg.Storage.Adapter == AdapterSQLite && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = DefaultDSN
	}
	if cfg.Vector.Adapter == "" {
		cfg.Vector.Adapter = AdapterNone
	}
	if cfg.Vector.Adapter == AdapterPGVector && cfg.Vector.DSN == "" {
		cfg.Vector.DSN = cfg.Storage.DSN
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Status == "" {
			cfg.Sources[i].Status = string(domain.StatusCanonical)
		}
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}

	id, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id %q: %w", cfg.UserID, err)
	}
	cfg.userID = id

	switch cfg.Storage.Adapter {
	case AdapterMemory:
	case AdapterSQLite, AdapterPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("storage dsn is required for %s", cfg.Storage.Adapter)
		}
	default:
		return fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}

	switch cfg.Vector.Adapter {
	case AdapterNone, AdapterMemory:
	case AdapterPGVector:
		if cfg.Vector.Dimensions <= 0 {
			return fmt.Errorf("vector dimensions are required for pgvector")
		}
		if !strings.HasPrefix(cfg.Vector.DSN, "postgres") {
			return fmt.Errorf("pgvector needs a postgres dsn")
		}
	default:
		return fmt.Errorf("unknown vector adapter: %s", cfg.Vector.Adapter)
	}

	seen := make(map[string]struct{})
	for i, src := range cfg.Sources {
		if strings.TrimSpace(src.Timeline) == "" {
			return fmt.Errorf("source %d timeline is required", i)
		}
		if len(src.Paths) == 0 {
			return fmt.Errorf("source %d paths are required", i)
		}
		if !domain.TimelineStatus(src.Status).Valid() {
			return fmt.Errorf("source %s has unknown status: %s", src.Timeline, src.Status)
		}
		key := strings.ToLower(src.Timeline)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate source timeline: %s", src.Timeline)
		}
		seen[key] = struct{}{}
	}
	for _, src := range cfg.Sources {
		if src.Parent == "" {
			continue
		}
		if strings.EqualFold(src.Parent, src.Timeline) {
			return fmt.Errorf("source %s cannot be its own parent", src.Timeline)
		}
		if _, ok := seen[strings.ToLower(src.Parent)]; !ok {
			return fmt.Errorf("source %s references unknown parent: %s", src.Timeline, src.Parent)
		}
	}

	return nil
}
