package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	StorageRedis = "redis"
	StorageBolt  = "bolt"
	StorageMongo = "mongo"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string          `yaml:"git_commit" envconfig:"BCAT_GIT_COMMIT" json:"git_commit"`
	GitTag                  string          `yaml:"git_tag" envconfig:"BCAT_GIT_TAG" json:"git_tag"`
	BuildTime               string          `yaml:"build_time" envconfig:"BCAT_BUILD_TIME" json:"build_time"`
	IsProduction            bool            `yaml:"is_production" envconfig:"BCAT_IS_PRODUCTION" json:"is_production"`
	LogLevel                zapcore.Level   `yaml:"log_level" envconfig:"BCAT_LOG_LEVEL" json:"log_level"`
	LogFolder               string          `yaml:"log_folder" envconfig:"BCAT_LOG_FOLDER" json:"log_folder"`
	LogMaxSize              int             `yaml:"log_max_size" envconfig:"BCAT_LOG_MAX_SIZE" json:"log_max_size"`
	OpsEndpointsEnable      bool            `yaml:"ops_endpoints_enable" envconfig:"BCAT_OPS_ENDPOINTS_ENABLE" json:"ops_endpoints_enable"`
	ProfilerEndpointsEnable bool            `yaml:"profiler_endpoints_enable" envconfig:"BCAT_PROFILER_ENDPOINTS_ENABLE" json:"profiler_endpoints_enable"`
	Server                  ServerConfig    `yaml:"server" json:"server"`
	Catalog                 CatalogConfig   `yaml:"catalog" json:"catalog"`
	Storage                 StorageConfig   `yaml:"storage" json:"storage"`
	Redis                   RedisConfig     `yaml:"redis" json:"redis"`
	BoltDB                  BoltDBConfig    `yaml:"boltdb" json:"boltdb"`
	Mongo                   MongoConfig     `yaml:"mongo" json:"mongo"`
	Generator               GeneratorConfig `yaml:"generator" json:"generator"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BCAT_SERVER_HOST" json:"host"`
	Port            string        `yaml:"port" envconfig:"BCAT_SERVER_PORT" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BCAT_SERVER_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BCAT_SERVER_WRITE_TIMEOUT" json:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BCAT_SERVER_REQUEST_TIMEOUT" json:"request_timeout"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BCAT_SERVER_SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
}

type CatalogConfig struct {
	DefaultLimit int64 `yaml:"default_limit" envconfig:"BCAT_CATALOG_DEFAULT_LIMIT" json:"default_limit"`
	MaxLimit     int64 `yaml:"max_limit" envconfig:"BCAT_CATALOG_MAX_LIMIT" json:"max_limit"`
}

// StorageConfig selects the primary books store. Replication only
// applies to the redis driver and mirrors every write into boltdb.
type StorageConfig struct {
	Driver      string `yaml:"driver" envconfig:"BCAT_STORAGE_DRIVER" json:"driver"`
	Replication bool   `yaml:"replication" envconfig:"BCAT_STORAGE_REPLICATION" json:"replication"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BCAT_REDIS_HOST" json:"host"`
	Port          string        `yaml:"port" envconfig:"BCAT_REDIS_PORT" json:"port"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BCAT_REDIS_DIAL_TIMEOUT" json:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BCAT_REDIS_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BCAT_REDIS_WRITE_TIMEOUT" json:"write_timeout"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BCAT_REDIS_POOL_SIZE" json:"pool_size"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BCAT_REDIS_POOL_TIMEOUT" json:"pool_timeout"`
	Username      string        `yaml:"username" envconfig:"BCAT_REDIS_USERNAME" json:"username"`
	Password      string        `yaml:"password" envconfig:"BCAT_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BCAT_REDIS_DATABASE_INDEX" json:"db_index"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BCAT_BOLTDB_FILE_PATH" json:"filepath"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BCAT_BOLTDB_TIMEOUT" json:"timeout"`
	BucketName string        `yaml:"bucket_name" envconfig:"BCAT_BOLTDB_BUCKET_NAME" json:"bucket_name"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri" envconfig:"BCAT_MONGO_URI" json:"-"`
	Database       string        `yaml:"database" envconfig:"BCAT_MONGO_DATABASE" json:"database"`
	Collection     string        `yaml:"collection" envconfig:"BCAT_MONGO_COLLECTION" json:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"BCAT_MONGO_CONNECT_TIMEOUT" json:"connect_timeout"`
}

// GeneratorConfig holds the settings of the text generation provider.
type GeneratorConfig struct {
	APIKey    string        `yaml:"api_key" envconfig:"BCAT_GENERATOR_API_KEY" json:"-"`
	BaseURL   string        `yaml:"base_url" envconfig:"BCAT_GENERATOR_BASE_URL" json:"base_url"`
	Model     string        `yaml:"model" envconfig:"BCAT_GENERATOR_MODEL" json:"model"`
	MaxTokens int           `yaml:"max_tokens" envconfig:"BCAT_GENERATOR_MAX_TOKENS" json:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"BCAT_GENERATOR_TIMEOUT" json:"timeout"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}
	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 60 * time.Second
	}

	if config.Catalog.DefaultLimit <= 0 {
		config.Catalog.DefaultLimit = 10
	}
	if config.Catalog.MaxLimit <= 0 {
		config.Catalog.MaxLimit = 100
	}
	if config.Catalog.DefaultLimit > config.Catalog.MaxLimit {
		return fmt.Errorf("catalog default limit %d exceeds max limit %d", config.Catalog.DefaultLimit, config.Catalog.MaxLimit)
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = StorageRedis
	}
	switch config.Storage.Driver {
	case StorageRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case StorageMongo:
		if len(config.Mongo.URI) == 0 {
			return errors.New("make sure to set a valid mongo uri in configuration file")
		}
	case StorageBolt:
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if config.Storage.Replication && config.Storage.Driver != StorageRedis {
		return errors.New("replication is only supported with the redis storage driver")
	}

	if config.Storage.Driver == StorageBolt || config.Storage.Replication {
		if config.BoltDB.FilePath == "" {
			return errors.New("make sure to set a valid boltdb file path in configuration file")
		}
		if config.BoltDB.BucketName == "" {
			config.BoltDB.BucketName = "books"
		}
	}

	if config.Mongo.Database == "" {
		config.Mongo.Database = "catalog"
	}
	if config.Mongo.Collection == "" {
		config.Mongo.Collection = "books"
	}
	if config.Mongo.ConnectTimeout == 0 {
		config.Mongo.ConnectTimeout = 10 * time.Second
	}

	if config.Generator.Model == "" {
		config.Generator.Model = "gpt-3.5-turbo"
	}
	if config.Generator.MaxTokens <= 0 {
		config.Generator.MaxTokens = 100
	}
	if config.Generator.Timeout == 0 {
		config.Generator.Timeout = 30 * time.Second
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	if envFile != "" {
		err = godotenv.Load(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return config, fmt.Errorf("failed to set environment configurations: %s", err)
		}
	}

	// Use environment variables with prefix `BCAT`.
	err = LoadConfigEnvs("BCAT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
