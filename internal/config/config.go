package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the mediadex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Index    IndexConfig    `yaml:"index" toml:"index"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
// ReadOnlyKeys may query the catalogue but not index into it.
type AuthConfig struct {
	APIKeys      []string `yaml:"api_keys" toml:"api_keys"`
	ReadOnlyKeys []string `yaml:"read_only_keys" toml:"read_only_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" toml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec" toml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec" toml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver" toml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs" toml:"addrs"`
	Password         string   `yaml:"password" toml:"password"`
	DB               int      `yaml:"db" toml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec" toml:"readiness_timeout_sec"`
}

// IndexConfig names the indexes and bounds store calls.
type IndexConfig struct {
	Content          string `yaml:"content" toml:"content"`
	Topics           string `yaml:"topics" toml:"topics"`
	SchedulePrefix   string `yaml:"schedule_prefix" toml:"schedule_prefix"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" toml:"request_timeout_ms"`
	DefaultLimit     int    `yaml:"default_limit" toml:"default_limit"`
}

// RequestTimeout is the deadline applied to every store call.
func (c IndexConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix"`
}

// Load reads configuration by environment name (local, dev, prod) from
// config/<env>.yaml, falling back to config/<env>.toml.
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	cfg, err := Parse(data, filepath.Ext(configPath))
	if err != nil {
		return Config{}, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Parse decodes raw configuration in the format named by ext (".yaml",
// ".yml" or ".toml").
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Content == "" {
		c.Index.Content = "content"
	}
	if c.Index.Topics == "" {
		c.Index.Topics = "topics"
	}
	if c.Index.SchedulePrefix == "" {
		c.Index.SchedulePrefix = "schedule-"
	}
	if c.Index.RequestTimeoutMs <= 0 {
		c.Index.RequestTimeoutMs = 5000
	}
	if c.Index.DefaultLimit <= 0 {
		c.Index.DefaultLimit = 50
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "mediadex:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	names := map[string]string{"index.content": c.Index.Content, "index.topics": c.Index.Topics}
	for key, name := range names {
		if strings.HasPrefix(name, c.Index.SchedulePrefix) {
			return fmt.Errorf("%s %q must not start with index.schedule_prefix %q", key, name, c.Index.SchedulePrefix)
		}
	}
	full := make(map[string]struct{}, len(c.Auth.APIKeys))
	for _, k := range c.Auth.APIKeys {
		full[k] = struct{}{}
	}
	for _, k := range c.Auth.ReadOnlyKeys {
		if _, ok := full[k]; ok && k != "" {
			return fmt.Errorf("auth.read_only_keys must not repeat a key from auth.api_keys")
		}
	}
	if c.Index.Content == c.Index.Topics {
		return fmt.Errorf("index.content and index.topics must differ, both are %q", c.Index.Content)
	}
	return nil
}

// findConfigPath locates the config file, preferring YAML over TOML.
func findConfigPath(env string) string {
	var candidates []string
	for _, ext := range []string{".yaml", ".toml"} {
		candidates = append(candidates, filepath.Join("config", env+ext))
	}

	// Relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	for _, ext := range []string{".yaml", ".toml"} {
		candidates = append(candidates, filepath.Join(projectRoot, "config", env+ext))
	}

	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return candidates[0]
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
