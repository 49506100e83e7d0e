package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level statement-scoring configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Extraction  ExtractionConfig  `yaml:"extraction"`
	Categorize  CategorizeConfig  `yaml:"categorize"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Storage     StorageConfig     `yaml:"storage"`
	Model       ModelConfig       `yaml:"model"`
	GCS         GCSConfig         `yaml:"gcs"`
	Notion      NotionConfig      `yaml:"notion"`
	Inbox       InboxConfig       `yaml:"inbox"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig controls the HTTP and gRPC health listeners.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	GRPCPort     string        `yaml:"grpc_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Workers      int           `yaml:"workers"`
	// UploadDir receives uploaded statements when no GCS bucket is set.
	UploadDir string `yaml:"upload_dir"`
}

// ExtractionConfig controls the chunk extractor and its model backend.
type ExtractionConfig struct {
	Provider          string        `yaml:"provider"` // gemini | openai
	Model             string        `yaml:"model"`
	OpenAIBaseURL     string        `yaml:"openai_base_url,omitempty"`
	OpenAIAPIKey      string        `yaml:"-"`
	Window            int           `yaml:"window"`
	Overlap           int           `yaml:"overlap"`
	Concurrency       int           `yaml:"concurrency"`
	WindowTimeout     time.Duration `yaml:"window_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// CategorizeConfig points at an optional keyword rules file.
type CategorizeConfig struct {
	RulesPath string `yaml:"rules_path,omitempty"`
}

// AggregationConfig controls ledger aggregation.
type AggregationConfig struct {
	// IncludeOther folds Other-category credits/debits into deposits/withdrawals.
	IncludeOther bool `yaml:"include_other"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory | bigquery | mongo
	ProjectID     string `yaml:"project_id,omitempty"`
	DatasetID     string `yaml:"dataset_id,omitempty"`
	MongoURI      string `yaml:"mongo_uri,omitempty"`
	MongoDatabase string `yaml:"mongo_database,omitempty"`
}

// ModelConfig points at the scaler/classifier artifact.
type ModelConfig struct {
	ArtifactPath string `yaml:"artifact_path"`
}

// GCSConfig configures statement object storage.
type GCSConfig struct {
	Bucket string `yaml:"bucket,omitempty"`
}

// NotionConfig configures the manual review board.
type NotionConfig struct {
	Token      string `yaml:"-"`
	DatabaseID string `yaml:"database_id,omitempty"`
}

// InboxConfig configures the statement inbox poller.
type InboxConfig struct {
	Dir          string        `yaml:"dir,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			GRPCPort:     "9090",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			Workers:      5,
			UploadDir:    "data/uploads",
		},
		Extraction: ExtractionConfig{
			Provider:          "gemini",
			Model:             "gemini-2.5-flash",
			Window:            40,
			Overlap:           10,
			Concurrency:       4,
			WindowTimeout:     60 * time.Second,
			RequestsPerSecond: 2,
		},
		Storage: StorageConfig{
			Backend:       "memory",
			DatasetID:     "scoring",
			MongoDatabase: "statement_scoring",
		},
		Model: ModelConfig{
			ArtifactPath: "models/risk_model.json",
		},
		Inbox: InboxConfig{
			PollInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config from disk on top of Default, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Server.Port, "STATEMENT_SCORING_PORT")
	setString(&c.Server.GRPCPort, "STATEMENT_SCORING_GRPC_PORT")
	setString(&c.Extraction.Provider, "STATEMENT_SCORING_PROVIDER")
	setString(&c.Extraction.Model, "STATEMENT_SCORING_MODEL")
	setString(&c.Extraction.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.Extraction.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Categorize.RulesPath, "STATEMENT_SCORING_RULES")
	setString(&c.Storage.Backend, "STATEMENT_SCORING_STORAGE")
	setString(&c.Storage.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setString(&c.Storage.DatasetID, "STATEMENT_SCORING_DATASET")
	setString(&c.Storage.MongoURI, "MONGO_URI")
	setString(&c.Model.ArtifactPath, "STATEMENT_SCORING_MODEL_ARTIFACT")
	setString(&c.GCS.Bucket, "GCS_BUCKET")
	setString(&c.Notion.Token, "NOTION_TOKEN")
	setString(&c.Notion.DatabaseID, "NOTION_REVIEW_DATABASE_ID")
	setString(&c.Inbox.Dir, "STATEMENT_SCORING_INBOX")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := getenv("STATEMENT_SCORING_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Extraction.Concurrency = n
		}
	}
	if v := getenv("STATEMENT_SCORING_INCLUDE_OTHER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Aggregation.IncludeOther = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Extraction.Window <= 0 {
		errs = append(errs, fmt.Errorf("extraction.window must be positive, got %d", c.Extraction.Window))
	}
	if c.Extraction.Overlap < 0 || c.Extraction.Overlap >= c.Extraction.Window {
		errs = append(errs, fmt.Errorf("extraction.overlap must be in [0, window), got %d", c.Extraction.Overlap))
	}
	if c.Extraction.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("extraction.concurrency must be positive, got %d", c.Extraction.Concurrency))
	}
	switch c.Extraction.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("extraction.provider %q is not supported", c.Extraction.Provider))
	}

	switch c.Storage.Backend {
	case "memory":
	case "bigquery":
		if c.Storage.ProjectID == "" {
			errs = append(errs, errors.New("storage.project_id is required for the bigquery backend"))
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("storage.mongo_uri is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
