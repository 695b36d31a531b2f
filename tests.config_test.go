package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const testConfigYAML = `
log_level: debug
server:
  host: 127.0.0.1
  port: "5000"
storage:
  driver: bolt
boltdb:
  filepath: ./books.db
generator:
  api_key: from-file
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndInitConfigs(t *testing.T) {
	configFile := writeTestFile(t, "config.yml", testConfigYAML)
	envFile := writeTestFile(t, "config.env", "BCAT_SERVER_PORT=6000\nBCAT_CATALOG_MAX_LIMIT=50\n")
	t.Setenv("BCAT_GENERATOR_API_KEY", "from-env")
	// register the keys loaded from the env file so they are restored after the test.
	t.Setenv("BCAT_SERVER_PORT", "")
	t.Setenv("BCAT_CATALOG_MAX_LIMIT", "")
	os.Unsetenv("BCAT_SERVER_PORT")
	os.Unsetenv("BCAT_CATALOG_MAX_LIMIT")

	config, err := LoadAndInitConfigs(configFile, envFile, "abc123", "v1.0.0", "today")
	require.NoError(t, err)

	assert.Equal(t, zapcore.DebugLevel, config.LogLevel)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, "6000", config.Server.Port)
	assert.Equal(t, "from-env", config.Generator.APIKey)
	assert.Equal(t, "abc123", config.GitCommit)
	assert.Equal(t, "v1.0.0", config.GitTag)
	assert.Equal(t, "today", config.BuildTime)

	// defaults
	assert.Equal(t, int64(10), config.Catalog.DefaultLimit)
	assert.Equal(t, int64(50), config.Catalog.MaxLimit)
	assert.Equal(t, "books", config.BoltDB.BucketName)
	assert.Equal(t, "gpt-3.5-turbo", config.Generator.Model)
	assert.Equal(t, 100, config.Generator.MaxTokens)
	assert.Equal(t, 30*time.Second, config.Server.ShutdownTimeout)
	assert.Equal(t, "./logs", config.LogFolder)
}

func TestLoadAndInitConfigs_MissingEnvFile(t *testing.T) {
	configFile := writeTestFile(t, "config.yml", testConfigYAML)
	_, err := LoadAndInitConfigs(configFile, filepath.Join(t.TempDir(), "absent.env"), "", "", "")
	assert.NoError(t, err)
}

func TestLoadAndInitConfigs_MissingConfigFile(t *testing.T) {
	_, err := LoadAndInitConfigs(filepath.Join(t.TempDir(), "absent.yml"), "", "", "", "")
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Host: "localhost", Port: "5000"},
			Storage: StorageConfig{Driver: StorageRedis},
			Redis:   RedisConfig{Host: "localhost", Port: "6379"},
		}
	}
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid redis", func(c *Config) {}, false},
		{"default driver is redis", func(c *Config) { c.Storage.Driver = "" }, false},
		{"missing server port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing redis address", func(c *Config) { c.Redis.Host = "" }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, true},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = StorageMongo }, true},
		{"mongo with uri", func(c *Config) { c.Storage.Driver = StorageMongo; c.Mongo.URI = "mongodb://db" }, false},
		{"bolt without file", func(c *Config) { c.Storage.Driver = StorageBolt }, true},
		{"replication without bolt file", func(c *Config) { c.Storage.Replication = true }, true},
		{"replication with bolt file", func(c *Config) { c.Storage.Replication = true; c.BoltDB.FilePath = "r.db" }, false},
		{"replication on mongo", func(c *Config) {
			c.Storage.Driver = StorageMongo
			c.Mongo.URI = "mongodb://db"
			c.Storage.Replication = true
			c.BoltDB.FilePath = "r.db"
		}, true},
		{"default limit above max", func(c *Config) { c.Catalog.DefaultLimit = 200 }, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := InitConfig(c, "", "", "")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
