package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"moviescroll/internal/domain"
)

// APIKeyEnv names the environment variable that overrides the configured TMDB key
const APIKeyEnv = "TMDB_API_KEY"

// Config represents the application configuration
type Config struct {
	Version  int         `toml:"version"`
	Language string      `toml:"language"`
	TMDB     TMDBConfig  `toml:"tmdb"`
	Cache    CacheConfig `toml:"cache"`
	UI       UISettings  `toml:"ui"`
	Log      LogConfig   `toml:"log"`
}

// TMDBConfig configures the search provider
type TMDBConfig struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url,omitempty"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MaxRetries        int      `toml:"max_retries"`
}

// CacheConfig selects where fetched pages are cached
type CacheConfig struct {
	Backend   string   `toml:"backend"` // "memory", "redis" or "none"
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	RedisDB   int      `toml:"redis_db,omitempty"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowOverview bool `toml:"show_overview"`
	Mouse        bool `toml:"mouse"`
}

// LogConfig configures the log file
type LogConfig struct {
	File  string `toml:"file,omitempty"`
	Debug bool   `toml:"debug"`
}

// Duration is a time.Duration written as a string ("10s") in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// LanguageOrDefault resolves the configured language code
func (c *Config) LanguageOrDefault() domain.Language {
	lang, _ := domain.ParseLanguage(c.Language)
	return lang
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service for the default location
func NewConfigService() ConfigService {
	return NewConfigServiceAt(DefaultPath())
}

// NewConfigServiceAt creates a config service bound to path
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// DefaultPath returns the config file location under the user's config directory
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "moviescroll", "config.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults when it does not exist
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path.
// Missing fields keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file may hold an API key
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values that cannot be corrected silently
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("cache backend redis requires redis_addr")
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must not be negative")
	}
	if c.TMDB.MaxRetries < 0 {
		return errors.New("tmdb.max_retries must not be negative")
	}
	return nil
}

// ApplyEnv loads a .env file from the working directory, if there is one, and
// lets the environment override the configured API key.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.TMDB.APIKey = key
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Language: domain.DefaultLanguage.Code(),
		TMDB: TMDBConfig{
			Timeout:           Duration{10 * time.Second},
			RequestsPerSecond: 4,
			MaxRetries:        3,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     Duration{10 * time.Minute},
		},
		UI: UISettings{
			ShowOverview: true,
		},
	}
}
