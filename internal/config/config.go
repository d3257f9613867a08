package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the textset service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	// UploadTimeoutSec bounds upload processing. It must end before the
	// write timeout cuts the connection, so an abandoned upload rolls back.
	UploadTimeoutSec int `yaml:"upload_timeout_sec"`
	ShutdownSec      int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the item store settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	Path             string `yaml:"path"`
	BusyTimeoutMS    int    `yaml:"busy_timeout_ms"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the optional embedding cache. Empty Addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache server is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"` // 0 = detected at startup
	User        string `yaml:"user"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	Instruction string `yaml:"instruction"`
}

// IngestConfig holds upload and segmentation settings.
type IngestConfig struct {
	Segment        SegmentConfig `yaml:"segment"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// SegmentConfig sizes the token windows. An unset max_tokens selects 300.
// An absent overlap_tokens selects 50, or a sixth of a smaller window;
// an explicit 0 disables overlap.
// Encoding overrides the tokenizer derived from embedding.model.
type SegmentConfig struct {
	MaxTokens     int    `yaml:"max_tokens"`
	OverlapTokens *int   `yaml:"overlap_tokens"`
	Encoding      string `yaml:"encoding"`
}

// Overlap returns the configured overlap, 0 when unset.
func (c SegmentConfig) Overlap() int {
	if c.OverlapTokens == nil {
		return 0
	}
	return *c.OverlapTokens
}

// ReadTimeout returns the server read timeout.
func (c HTTPConfig) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the server write timeout.
func (c HTTPConfig) WriteTimeout() time.Duration { return time.Duration(c.WriteTimeoutSec) * time.Second }

// UploadTimeout returns the per-upload processing deadline.
func (c HTTPConfig) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (c HTTPConfig) ShutdownTimeout() time.Duration { return time.Duration(c.ShutdownSec) * time.Second }

// Timeout returns the per-call embedding deadline.
func (c EmbeddingConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// TTL returns the cache entry lifetime, 0 meaning no expiry.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.UploadTimeoutSec <= 0 {
		c.HTTP.UploadTimeoutSec = max(1, c.HTTP.WriteTimeoutSec-5)
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.BusyTimeoutMS <= 0 {
		c.Database.BusyTimeoutMS = 5000
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "textset:emb:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Ingest.Segment.MaxTokens <= 0 {
		c.Ingest.Segment.MaxTokens = 300
	}
	if c.Ingest.Segment.OverlapTokens == nil {
		overlap := min(50, c.Ingest.Segment.MaxTokens/6)
		c.Ingest.Segment.OverlapTokens = &overlap
	}
	if c.Ingest.MaxUploadBytes <= 0 {
		c.Ingest.MaxUploadBytes = 32 << 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.UploadTimeoutSec >= c.HTTP.WriteTimeoutSec {
		return fmt.Errorf(
			"http.upload_timeout_sec (%d) must be below http.write_timeout_sec (%d)",
			c.HTTP.UploadTimeoutSec, c.HTTP.WriteTimeoutSec,
		)
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"sqlite3\", got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	seg := c.Ingest.Segment
	if seg.Overlap() < 0 || seg.Overlap() >= seg.MaxTokens {
		return fmt.Errorf(
			"ingest.segment.overlap_tokens must be in [0, %d), got %d",
			seg.MaxTokens, seg.Overlap(),
		)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
