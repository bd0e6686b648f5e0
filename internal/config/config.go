package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by the kifu commands.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Autoplay AutoplayConfig `mapstructure:"autoplay"`
	Display  DisplayConfig  `mapstructure:"display"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Export   ExportConfig   `mapstructure:"export"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxUploadBytes caps the size of an uploaded record.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	CORS           bool  `mapstructure:"cors"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AutoplayConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Caption modes for navigation controls.
const (
	CaptionVerbose = "verbose"
	CaptionCompact = "compact"
)

type DisplayConfig struct {
	CaptionMode string `mapstructure:"caption_mode"`
	CellWidth   int    `mapstructure:"cell_width"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
	Mongo   MongoConfig `mapstructure:"mongo"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type CacheConfig struct {
	MaxRecords int `mapstructure:"max_records"`
}

type ExportConfig struct {
	Parallel int64 `mapstructure:"parallel"`
	Workers  int   `mapstructure:"workers"`
}

// EnvPrefix prefixes environment overrides, e.g. KIFU_STORE_BACKEND.
const EnvPrefix = "KIFU"

var configNames = []string{"kifu.yaml", "kifu.yml", "kifu.json"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(4<<20))
	v.SetDefault("server.cors", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("autoplay.interval", time.Second)

	v.SetDefault("display.caption_mode", CaptionVerbose)
	v.SetDefault("display.cell_width", 2)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", 24*time.Hour)
	v.SetDefault("store.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo.database", "kifu")
	v.SetDefault("store.mongo.collection", "records")

	v.SetDefault("cache.max_records", 128)

	v.SetDefault("export.parallel", int64(4))
	v.SetDefault("export.workers", 0)
}

// Load reads configuration from defaults, the optional file at path and
// KIFU_* environment variables, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	_ = cfg.validate()
	return &cfg
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Display.CaptionMode != CaptionCompact {
		c.Display.CaptionMode = CaptionVerbose
	}
	if c.Display.CellWidth < 1 {
		c.Display.CellWidth = 1
	}
	if c.Display.CellWidth > 8 {
		c.Display.CellWidth = 8
	}
	if c.Autoplay.Interval < 50*time.Millisecond {
		c.Autoplay.Interval = 50 * time.Millisecond
	}
	if c.Cache.MaxRecords < 1 {
		c.Cache.MaxRecords = 1
	}
	if c.Server.MaxUploadBytes < 1024 {
		c.Server.MaxUploadBytes = 1024
	}
	if c.Export.Parallel < 1 {
		c.Export.Parallel = 1
	}
	return nil
}

// FindConfigPath walks up from the working directory looking for a kifu
// config file. It returns the file and its directory.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("no config file found from %s", cwd)
}

// Resolve picks the config file to load: an explicit path, then KIFU_CONFIG,
// then the nearest file found by FindConfigPath. It returns "" when none exists.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	if path, _, err := FindConfigPath(); err == nil {
		return path
	}
	return ""
}
