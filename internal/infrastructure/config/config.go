package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Invoicing InvoicingConfig
	Storage   StorageConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// InvoicingConfig holds invoicing business settings
type InvoicingConfig struct {
	Series         string  // invoice series prefix, e.g. F001
	DefaultIGVRate float64 // IGV percentage applied when a request omits one
	Currency       string  // ISO 4217 currency code
}

// StorageBackend selects the state persistence adapter
type StorageBackend string

const (
	StorageBackendFile   StorageBackend = "file"
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendGitHub StorageBackend = "github"
)

// IsValid checks if the backend name is known
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageBackendFile, StorageBackendSQLite, StorageBackendGitHub:
		return true
	}
	return false
}

// StorageConfig holds state persistence settings
type StorageConfig struct {
	Backend          StorageBackend
	Path             string // file path (file backend) or DSN (sqlite backend)
	AutoSaveInterval time.Duration
	SaveTimeout      time.Duration
	GitHub           GitHubConfig
}

// GitHubConfig holds settings for the GitHub-contents storage backend
type GitHubConfig struct {
	BaseURL   string // override for tests; defaults to https://api.github.com
	Repo      string // owner/name
	FilePath  string // path of the JSON document inside the repo
	Token     string
	Committer string
	Email     string
}

// Load reads configuration from config.toml and TECSITEL_* environment
// variables, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("TECSITEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Invoicing: InvoicingConfig{
			Series:         v.GetString("invoicing.series"),
			DefaultIGVRate: v.GetFloat64("invoicing.default_igv_rate"),
			Currency:       v.GetString("invoicing.currency"),
		},
		Storage: StorageConfig{
			Backend:          StorageBackend(v.GetString("storage.backend")),
			Path:             v.GetString("storage.path"),
			AutoSaveInterval: v.GetDuration("storage.auto_save_interval"),
			SaveTimeout:      v.GetDuration("storage.save_timeout"),
			GitHub: GitHubConfig{
				BaseURL:   v.GetString("storage.github.base_url"),
				Repo:      v.GetString("storage.github.repo"),
				FilePath:  v.GetString("storage.github.file_path"),
				Token:     v.GetString("storage.github.token"),
				Committer: v.GetString("storage.github.committer"),
				Email:     v.GetString("storage.github.email"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers default values for all settings
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tecsitel")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.max_body_size", int64(1<<20))
	v.SetDefault("http.cors_allow_origins", []string{})
	v.SetDefault("http.trusted_proxies", []string{})

	v.SetDefault("invoicing.series", "F001")
	v.SetDefault("invoicing.default_igv_rate", 18.0)
	v.SetDefault("invoicing.currency", "PEN")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "data/database.json")
	v.SetDefault("storage.auto_save_interval", 30*time.Second)
	v.SetDefault("storage.save_timeout", 10*time.Second)
	v.SetDefault("storage.github.base_url", "https://api.github.com")
	v.SetDefault("storage.github.file_path", "database.json")
}

// Validate checks settings that have no sensible fallback
func (c *Config) Validate() error {
	if !c.Storage.Backend.IsValid() {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == StorageBackendGitHub && c.Storage.GitHub.Repo == "" {
		return fmt.Errorf("storage.github.repo is required for the github backend")
	}
	if c.Invoicing.DefaultIGVRate < 0 || c.Invoicing.DefaultIGVRate > 100 {
		return fmt.Errorf("invoicing.default_igv_rate must be between 0 and 100")
	}
	if c.Storage.AutoSaveInterval <= 0 {
		return fmt.Errorf("storage.auto_save_interval must be positive")
	}
	if c.Storage.SaveTimeout <= 0 {
		return fmt.Errorf("storage.save_timeout must be positive")
	}
	return nil
}

// IsProduction returns true when running with the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
