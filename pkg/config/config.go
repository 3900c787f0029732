package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BACC"

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

var backends = []string{BackendMongo, BackendPostgres, BackendRedis, BackendMemory}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Research  ResearchConfig  `mapstructure:"research"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type StorageConfig struct {
	DataDir          string `mapstructure:"data_dir"`
	CalculationsFile string `mapstructure:"calculations_file"`
	SurveysFile      string `mapstructure:"surveys_file"`
}

type ResearchConfig struct {
	Backend        string         `mapstructure:"backend"`
	ConnectTimeout time.Duration  `mapstructure:"connect_timeout"`
	Mongo          MongoConfig    `mapstructure:"mongo"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
	Redis          RedisConfig    `mapstructure:"redis"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("storage.data_dir", ".")
	v.SetDefault("storage.calculations_file", "bacc_calculations.json")
	v.SetDefault("storage.surveys_file", "survey_responses.json")

	v.SetDefault("research.backend", BackendMongo)
	v.SetDefault("research.connect_timeout", 10*time.Second)
	v.SetDefault("research.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("research.mongo.database", "bacc_research")
	v.SetDefault("research.mongo.collection", "research_data")
	v.SetDefault("research.postgres.dsn", "")
	v.SetDefault("research.redis.addr", "localhost:6379")
	v.SetDefault("research.redis.password", "")
	v.SetDefault("research.redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads defaults, then the optional file at path, then BACC_* environment
// variables. SERVER_HOST and SERVER_PORT are honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.host", envPrefix+"_SERVER_HOST", "SERVER_HOST"); err != nil {
		return nil, fmt.Errorf("failed to bind server host: %w", err)
	}
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "SERVER_PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind server port: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("ratelimit.requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}

	switch c.Research.Backend {
	case BackendMongo:
		if c.Research.Mongo.URI == "" || c.Research.Mongo.Database == "" {
			errs = append(errs, errors.New("research.mongo.uri and research.mongo.database are required"))
		}
	case BackendPostgres:
		if c.Research.Postgres.DSN == "" {
			errs = append(errs, errors.New("research.postgres.dsn is required"))
		}
	case BackendRedis:
		if c.Research.Redis.Addr == "" {
			errs = append(errs, errors.New("research.redis.addr is required"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("research.backend must be one of %s, got %q",
			strings.Join(backends, ", "), c.Research.Backend))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) CalculationsPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.CalculationsFile)
}

func (c *Config) SurveysPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.SurveysFile)
}

// Backends lists the accepted research.backend values.
func Backends() []string {
	return slices.Clone(backends)
}
