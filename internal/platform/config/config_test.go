package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "rewards:", cfg.Store.KeyPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Database.Snapshot.Interval)
	assert.Equal(t, 12*time.Hour, cfg.Admin.SessionTTL)
	assert.Equal(t, 6, cfg.RateLimit.ClaimsPerMinute)
	assert.Same(t, Cfg, cfg)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
server:
  address: ":9090"
store:
  driver: memory
database:
  snapshot:
    driver: postgres
    dsn: "host=db user=rewards"
    interval: 30s
admin:
  password: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ADMIN_JWTSECRET=dotenv-secret\n"), 0o644))
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Cleanup(func() { os.Unsetenv("ADMIN_JWTSECRET") })

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "postgres", cfg.Database.Snapshot.Driver)
	assert.Equal(t, 30*time.Second, cfg.Database.Snapshot.Interval)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "dotenv-secret", cfg.Admin.JWTSecret)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"unknown store", func(c *Config) { c.Store.Driver = "etcd" }, true},
		{"unknown snapshot", func(c *Config) { c.Database.Snapshot.Driver = "mysql" }, true},
		{"snapshot disabled", func(c *Config) { c.Database.Snapshot.Driver = "" }, false},
		{"zero rate", func(c *Config) { c.RateLimit.ClaimsPerMinute = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Store:     StoreConfig{Driver: "memory"},
				Database:  DatabaseConfig{Snapshot: SnapshotConfig{Driver: "sqlite"}},
				RateLimit: RateLimitConfig{ClaimsPerMinute: 5},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
