package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const ConfigFile = "chatter.toml"

// Environment variables that override the config file.
const (
	EnvStoreURI  = "CHATTER_STORE_URI"
	EnvMongoURI  = "MONGO_URI"
	EnvAddr      = "CHATTER_ADDR"
	EnvLogLevel  = "CHATTER_LOG_LEVEL"
	EnvLogFormat = "CHATTER_LOG_FORMAT"
)

var (
	ErrNoStoreURI = errors.New("no store URI configured")
)

// Config holds the chatter configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	IDs    IDConfig     `toml:"ids"`
	Log    LogConfig    `toml:"log"`

	// MongoURI is the top-level key older deployments used for the store.
	// Store.URI wins when both are set.
	MongoURI string `toml:"mongoURI,omitempty"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr           string `toml:"addr"`
	MaxParallelism int    `toml:"max_parallelism"`
	Playground     bool   `toml:"playground"`
}

// StoreConfig defines the document store connection.
type StoreConfig struct {
	URI            string   `toml:"uri"`
	Database       string   `toml:"database,omitempty"`
	ConnectTimeout Duration `toml:"connect_timeout"`
}

// IDConfig defines generated identifiers for users and posts.
type IDConfig struct {
	Length int `toml:"length"`
}

// LogConfig defines logger output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":4000",
			MaxParallelism: 10,
			Playground:     true,
		},
		Store: StoreConfig{
			ConnectTimeout: Duration{10 * time.Second},
		},
		IDs: IDConfig{
			Length: 12,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from path. An empty path means ConfigFile in the
// working directory. Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Apply defaults for missing values
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.MaxParallelism <= 0 {
		cfg.Server.MaxParallelism = def.Server.MaxParallelism
	}
	if cfg.IDs.Length <= 0 {
		cfg.IDs.Length = def.IDs.Length
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}

	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read via lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Store.URI = v
	}
	// The chatter-specific variable wins over the generic one.
	if v, ok := lookup(EnvStoreURI); ok && v != "" {
		c.Store.URI = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
}

// StoreURI returns the connection string for the document store.
func (c *Config) StoreURI() string {
	if c.Store.URI != "" {
		return c.Store.URI
	}
	return c.MongoURI
}

// Validate reports configuration that would prevent startup.
func (c *Config) Validate() error {
	if c.StoreURI() == "" {
		return fmt.Errorf("%w (set store.uri in %s or %s)", ErrNoStoreURI, ConfigFile, EnvStoreURI)
	}
	if c.IDs.Length < 6 {
		return fmt.Errorf("ids.length must be at least 6, got %d", c.IDs.Length)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
