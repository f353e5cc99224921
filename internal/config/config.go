package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. The scoring rules
// themselves live in a separate JSON document (see internal/scoring).
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Jinka   JinkaConfig   `yaml:"jinka" mapstructure:"jinka"`
	Vision  VisionConfig  `yaml:"vision" mapstructure:"vision"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Analyze AnalyzeConfig `yaml:"analyze" mapstructure:"analyze"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// JinkaConfig holds listings-alert API settings.
type JinkaConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// VisionConfig holds the external classifier settings.
type VisionConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxImagesPerCall  int     `yaml:"max_images_per_call" mapstructure:"max_images_per_call"`
	TextTimeoutSecs   int     `yaml:"text_timeout_secs" mapstructure:"text_timeout_secs"`
	PhotoTimeoutSecs  int     `yaml:"photo_timeout_secs" mapstructure:"photo_timeout_secs"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
}

// CacheConfig configures the signal cache.
type CacheConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// ScoringConfig points at the scoring rules document.
type ScoringConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnalyzeConfig configures the analysis pass.
type AnalyzeConfig struct {
	PhotoWorkers int `yaml:"photo_workers" mapstructure:"photo_workers"`
	MaxPhotos    int `yaml:"max_photos" mapstructure:"max_photos"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOMESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/homescore.db")
	v.SetDefault("jinka.base_url", "https://api.jinka.fr/apiv2")
	v.SetDefault("jinka.timeout_secs", 30)
	v.SetDefault("vision.model", "claude-haiku-4-5-20251001")
	v.SetDefault("vision.max_images_per_call", 5)
	v.SetDefault("vision.text_timeout_secs", 15)
	v.SetDefault("vision.photo_timeout_secs", 60)
	v.SetDefault("vision.requests_per_minute", 60)
	v.SetDefault("vision.temperature", 0.1)
	v.SetDefault("cache.path", "data/api_cache.json")
	v.SetDefault("cache.ttl_days", 30)
	v.SetDefault("scoring.path", "scoring_config.json")
	v.SetDefault("analyze.photo_workers", 5)
	v.SetDefault("analyze.max_photos", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
