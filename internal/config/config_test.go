package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Server.MaxParallelism)
	assert.True(t, cfg.Server.Playground)
	assert.Equal(t, 12, cfg.IDs.Length)
	assert.Equal(t, 10*time.Second, cfg.Store.ConnectTimeout.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.StoreURI())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	content := `
[server]
addr = "127.0.0.1:8080"
playground = false

[store]
uri = "mongodb://db:27017/blog"
connect_timeout = "3s"

[log]
format = "console"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.Playground)
	assert.Equal(t, "mongodb://db:27017/blog", cfg.StoreURI())
	assert.Equal(t, 3*time.Second, cfg.Store.ConnectTimeout.Duration)
	assert.Equal(t, "console", cfg.Log.Format)

	// Unset values keep their defaults
	assert.Equal(t, 10, cfg.Server.MaxParallelism)
	assert.Equal(t, 12, cfg.IDs.Length)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMongoURIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`mongoURI = "mongodb://legacy:27017/app"`+"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://legacy:27017/app", cfg.StoreURI())

	cfg.Store.URI = "bolt://data/chatter.db"
	assert.Equal(t, "bolt://data/chatter.db", cfg.StoreURI())
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("[store\nuri = "), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("[store]\nconnect_timeout = \"soon\"\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)

	cfg := Default()
	cfg.Store.URI = "file://docs"
	cfg.Store.ConnectTimeout = Duration{time.Minute}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantURI string
	}{
		{
			name:    "none",
			env:     map[string]string{},
			wantURI: "file://from-config",
		},
		{
			name:    "mongo uri",
			env:     map[string]string{EnvMongoURI: "mongodb://env:27017"},
			wantURI: "mongodb://env:27017",
		},
		{
			name: "store uri wins",
			env: map[string]string{
				EnvMongoURI: "mongodb://env:27017",
				EnvStoreURI: "bolt://env.db",
			},
			wantURI: "bolt://env.db",
		},
		{
			name:    "empty values ignored",
			env:     map[string]string{EnvStoreURI: ""},
			wantURI: "file://from-config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.URI = "file://from-config"
			cfg.ApplyEnv(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			assert.Equal(t, tt.wantURI, cfg.StoreURI())
		})
	}
}

func TestApplyEnvServerAndLog(t *testing.T) {
	env := map[string]string{
		EnvAddr:      ":9999",
		EnvLogLevel:  "debug",
		EnvLogFormat: "console",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	// Missing file is fine
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHATTER_TEST_DOTENV=from-file\n"), 0644))
	t.Setenv("CHATTER_TEST_DOTENV", "")
	os.Unsetenv("CHATTER_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CHATTER_TEST_DOTENV"))
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHATTER_TEST_KEEP=from-file\n"), 0644))
	t.Setenv("CHATTER_TEST_KEEP", "from-env")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("CHATTER_TEST_KEEP"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"legacy key only", func(c *Config) { c.Store.URI = ""; c.MongoURI = "mongodb://x" }, false},
		{"no store", func(c *Config) { c.Store.URI = "" }, true},
		{"short ids", func(c *Config) { c.IDs.Length = 3 }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Store.URI = "mongodb://localhost:27017"
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := (&Config{IDs: IDConfig{Length: 12}, Log: LogConfig{Format: "json"}}).Validate()
	assert.ErrorIs(t, err, ErrNoStoreURI)
}

// chdir is a go1.21-compatible stand-in for testing.T.Chdir (added in go1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
