package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, "50051", cfg.App.GRPCPort)
	assert.Equal(t, 30, cfg.App.ShutdownTimeoutSeconds)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTLDuration())
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL())
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=sqlite\nDB_SQLITE_PATH=/tmp/ledger.db\nHTTP_PORT=9000\nKAFKA_BROKERS=k1:9092, k2:9092\nJWT_SECRET=" + testSecret + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.DB.SQLitePath)
	assert.Equal(t, "9100", cfg.App.HTTPPort, "environment wins over file")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}

func validConfig() *Config {
	return &Config{
		DB:        DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Name: "ledger", MaxOpenConns: 10, MaxIdleConns: 5},
		App:       AppConfig{HTTPPort: "8080", GRPCPort: "50051", ShutdownTimeoutSeconds: 10},
		Redis:     RedisConfig{Enabled: true, CacheTTL: 60},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 10, BurstCapacity: 20},
		Auth:      AuthConfig{JWTSecret: testSecret, TokenTTLMinutes: 60, BcryptCost: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "sqlite", mutate: func(c *Config) { c.DB = DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"} }},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "mysql" }, wantErr: "unsupported DB_DRIVER"},
		{name: "sqlite without path", mutate: func(c *Config) { c.DB = DatabaseConfig{Driver: DriverSQLite} }, wantErr: "DB_SQLITE_PATH"},
		{name: "postgres without host", mutate: func(c *Config) { c.DB.Host = "" }, wantErr: "DB_HOST"},
		{name: "idle above open", mutate: func(c *Config) { c.DB.MaxIdleConns = 20 }, wantErr: "DB_MAX_IDLE_CONNS"},
		{name: "bad port", mutate: func(c *Config) { c.App.HTTPPort = "http" }, wantErr: "HTTP_PORT must be a port number"},
		{name: "same ports", mutate: func(c *Config) { c.App.GRPCPort = "8080" }, wantErr: "must differ"},
		{name: "no shutdown timeout", mutate: func(c *Config) { c.App.ShutdownTimeoutSeconds = 0 }, wantErr: "SHUTDOWN_TIMEOUT_SECONDS"},
		{name: "rate limit without redis", mutate: func(c *Config) { c.Redis.Enabled = false }, wantErr: "requires REDIS_ENABLED"},
		{name: "rate limit zero burst", mutate: func(c *Config) { c.RateLimit.BurstCapacity = 0 }, wantErr: "burst capacity"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 40 }, wantErr: "BCRYPT_COST"},
		{name: "kafka without topic", mutate: func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"k:9092"}} }, wantErr: "KAFKA_TOPIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "ledger", Port: "5432", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=ledger port=5432 sslmode=disable", c.DSN())
}
