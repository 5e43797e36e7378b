package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sink    SinkConfig    `yaml:"sink" mapstructure:"sink"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the staging database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// SinkConfig configures the relational sink the loader writes to.
type SinkConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CatalogConfig configures the external product catalog client.
type CatalogConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent  string  `yaml:"user_agent" mapstructure:"user_agent"`
	PageSize   int     `yaml:"page_size" mapstructure:"page_size"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// EnrichConfig configures the batch enrichment run.
type EnrichConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
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
	v.SetEnvPrefix("FOODPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.path", "staging.sqlite")
	v.SetDefault("sink.path", "db.sqlite")
	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org/api/v2/search")
	v.SetDefault("catalog.user_agent", "foodpipe/1.0 (data pipeline)")
	v.SetDefault("catalog.page_size", 100)
	v.SetDefault("catalog.rate_per_sec", 2.0)
	v.SetDefault("enrich.batch_size", 100)
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
