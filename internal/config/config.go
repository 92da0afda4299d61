// Package config provides configuration loading for locable.
//
// Configuration is assembled from hard-coded defaults, an optional YAML file
// and LOCABLE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Config holds the complete locable configuration.
type Config struct {
	Store      StoreConfig      `koanf:"store"`
	Qdrant     QdrantConfig     `koanf:"qdrant"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Namespace  NamespaceConfig  `koanf:"namespace"`
	Query      QueryConfig      `koanf:"query"`
	Logging    LoggingConfig    `koanf:"logging"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Secrets    SecretsConfig    `koanf:"secrets"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	// Provider is "chromem" (embedded, default) or "qdrant".
	Provider string `koanf:"provider"`

	// Path is the persistence directory for the embedded store.
	// Relative paths are resolved against the project root. Empty means
	// "resolve data.chroma through the namespace search path".
	Path string `koanf:"path"`

	// Collection is the logical collection inside the store.
	Collection string `koanf:"collection"`

	// Compress enables gzip compression of persisted documents.
	Compress bool `koanf:"compress"`
}

// QdrantConfig holds Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host         string   `koanf:"host"`
	Port         int      `koanf:"port"`
	UseTLS       bool     `koanf:"use_tls"`
	APIKey       Secret   `koanf:"api_key"`
	VectorSize   int      `koanf:"vector_size"`
	MaxRetries   int      `koanf:"max_retries"`
	RetryBackoff Duration `koanf:"retry_backoff"`
}

// EmbeddingsConfig selects the embedding provider used for queries and ingest.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (default), "tei" or "openai".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	CacheDir string `koanf:"cache_dir"`
	APIKey   Secret `koanf:"api_key"`
	// Dimension overrides the model's native dimension (openai only).
	Dimension int `koanf:"dimension"`
}

// NamespaceConfig declares the source roots merged into one namespace.
type NamespaceConfig struct {
	Name         string   `koanf:"name"`
	Roots        []string `koanf:"roots"`
	InstallRoots []string `koanf:"install_roots"`
	MergeNested  bool     `koanf:"merge_nested"`
	Extensions   []string `koanf:"extensions"`
}

// QueryConfig holds the defaults of the inspect command.
type QueryConfig struct {
	Text     string   `koanf:"text"`
	NResults int      `koanf:"n_results"`
	Timeout  Duration `koanf:"timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is the output path; empty disables the export.
	Textfile string `koanf:"textfile"`
}

// TelemetryConfig controls OTLP export of traces, metrics and logs.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"` // grpc or http/protobuf
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
	// Logs also exports log records through the OTLP logs signal.
	Logs bool `koanf:"logs"`
}

// SecretsConfig controls secret redaction of added documents.
type SecretsConfig struct {
	// Redact scrubs secrets from file contents before they are embedded (default: true).
	Redact bool `koanf:"redact"`
	// Allowlist is an extra gitleaks-style TOML allowlist, read in addition
	// to .gitleaks.toml at the project root.
	Allowlist string `koanf:"allowlist"`
}

// Defaults for the inspect command, matching the original bootstrap smoke test.
const (
	DefaultNamespace  = "locable"
	DefaultCollection = "bootstrap"
	DefaultQueryText  = "container class css"
	DefaultNResults   = 3
	DefaultEmbedModel = "sentence-transformers/all-MiniLM-L6-v2"
)

// namespacePattern restricts namespace names to a single path segment.
var namespacePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{
		Namespace: NamespaceConfig{
			MergeNested: true,
		},
		Secrets: SecretsConfig{
			Redact: true,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "chromem"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = DefaultCollection
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.VectorSize == 0 {
		cfg.Qdrant.VectorSize = 384 // all-MiniLM-L6-v2
	}
	if cfg.Qdrant.MaxRetries == 0 {
		cfg.Qdrant.MaxRetries = 3
	}
	if cfg.Qdrant.RetryBackoff == 0 {
		cfg.Qdrant.RetryBackoff = Duration(time.Second)
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "fastembed"
	}
	if cfg.Embeddings.Model == "" {
		switch cfg.Embeddings.Provider {
		case "openai":
			cfg.Embeddings.Model = "text-embedding-3-small"
		default:
			cfg.Embeddings.Model = DefaultEmbedModel
		}
	}
	if cfg.Embeddings.BaseURL == "" && cfg.Embeddings.Provider == "tei" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}

	if cfg.Namespace.Name == "" {
		cfg.Namespace.Name = DefaultNamespace
	}
	if len(cfg.Namespace.Extensions) == 0 {
		cfg.Namespace.Extensions = []string{""}
	}

	if cfg.Query.Text == "" {
		cfg.Query.Text = DefaultQueryText
	}
	if cfg.Query.NResults == 0 {
		cfg.Query.NResults = DefaultNResults
	}
	if cfg.Query.Timeout == 0 {
		cfg.Query.Timeout = Duration(2 * time.Minute)
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "locable"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("%w: unsupported store provider %q (supported: chromem, qdrant)", ErrInvalidConfig, c.Store.Provider)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("%w: store collection is required", ErrInvalidConfig)
	}

	if c.Store.Provider == "qdrant" {
		if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
			return fmt.Errorf("%w: invalid qdrant port: %d (must be 1-65535)", ErrInvalidConfig, c.Qdrant.Port)
		}
		if c.Qdrant.VectorSize <= 0 {
			return fmt.Errorf("%w: qdrant vector size must be positive", ErrInvalidConfig)
		}
	}

	switch c.Embeddings.Provider {
	case "fastembed":
	case "tei":
		if c.Embeddings.BaseURL == "" {
			return fmt.Errorf("%w: embeddings base_url is required for tei", ErrInvalidConfig)
		}
	case "openai":
		if !c.Embeddings.APIKey.IsSet() && c.Embeddings.BaseURL == "" {
			return fmt.Errorf("%w: embeddings api_key is required for openai", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported embeddings provider %q (supported: fastembed, tei, openai)", ErrInvalidConfig, c.Embeddings.Provider)
	}

	if !namespacePattern.MatchString(c.Namespace.Name) {
		return fmt.Errorf("%w: invalid namespace name %q", ErrInvalidConfig, c.Namespace.Name)
	}

	if c.Query.NResults < 1 {
		return fmt.Errorf("%w: query n_results must be positive, got %d", ErrInvalidConfig, c.Query.NResults)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("%w: telemetry protocol must be 'grpc' or 'http/protobuf', got %q", ErrInvalidConfig, c.Telemetry.Protocol)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging format must be 'json' or 'console', got %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}
