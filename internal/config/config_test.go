package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[server]
http_port = 9090

[database]
storage = "postgres"
host = "db"
user = "svc"
password = "from-file"
dbname = "reservations"

[payment]
url = "http://payments"

[catalog]
url = "http://catalog"

[points]
pending_window_days = 3
admin_ids = [1, 2]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 30, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []int64{1, 2}, cfg.Points.AdminIDs)
	assert.Equal(t, 3*24*time.Hour, cfg.Points.PendingWindow())
	assert.Equal(t, 365*24*time.Hour, cfg.Points.Expiry())
	assert.Equal(t, 2.5, cfg.Points.EarnRatePercent)
	assert.Equal(t, 30, cfg.Reservations.SlotStepMinutes)
	assert.Contains(t, cfg.Database.DSN(), "host=db port=5432")
}

func TestLoadRejectsBadPortEnv(t *testing.T) {
	t.Setenv("DB_PORT", "five")

	_, err := Load(writeConfig(t, sample))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"unknown storage", func(c *Config) { c.Database.Storage = "mysql" }},
		{"postgres without host", func(c *Config) { c.Database.Host = "" }},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"rabbit without url", func(c *Config) { c.RabbitMQ.Enabled = true }},
		{"expiry inside pending window", func(c *Config) { c.Points.ExpiryDays = 7 }},
		{"earn rate above 100", func(c *Config) { c.Points.EarnRatePercent = 120 }},
		{"zero slot step", func(c *Config) { c.Reservations.SlotStepMinutes = 0 }},
		{"unknown zone", func(c *Config) { c.Reservations.TimeZone = "Mars/Olympus" }},
		{"negative interval", func(c *Config) { c.Workers.ReconcileInterval = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, valid().Validate())

	memoryCfg := valid()
	memoryCfg.Database.Storage = StorageMemory
	memoryCfg.Database.Host = ""
	assert.NoError(t, memoryCfg.Validate())
}

func valid() *Config {
	cfg := defaults()
	cfg.Database.Host = "db"
	cfg.Payment.URL = "http://payments"
	cfg.Catalog.URL = "http://catalog"
	return cfg
}
