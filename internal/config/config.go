// Package config provides Viper-based hierarchical configuration for the
// report pipeline along with environment and logging bootstrap helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	once sync.Once
	// Logger is the shared logger instance configured once at startup
	Logger = logrus.New()
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		Directory  string `mapstructure:"directory" yaml:"directory"`
		CacheFile  string `mapstructure:"cache_file" yaml:"cache_file"`
		ReportsDir string `mapstructure:"reports_dir" yaml:"reports_dir"`
	} `mapstructure:"data" yaml:"data"`

	Download struct {
		BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
		UserAgent         string `mapstructure:"user_agent" yaml:"user_agent"`
		TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
		RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	} `mapstructure:"download" yaml:"download"`

	Processing struct {
		MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`
	} `mapstructure:"processing" yaml:"processing"`
}

// DefaultBaseURL is the URL template for monthly registrar transaction reports.
// {tld} and {date} are substituted by the downloader.
const DefaultBaseURL = "https://www.icann.org/sites/default/files/mrr/{tld}/{tld}-transactions-{date}-en.csv"

// setDefaults establishes default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.directory", "data")
	v.SetDefault("data.cache_file", filepath.Join("data", "cache", "processed_files.json"))
	v.SetDefault("data.reports_dir", filepath.Join("data", "reports"))

	v.SetDefault("download.base_url", DefaultBaseURL)
	v.SetDefault("download.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("download.timeout_seconds", 30)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.retry_delay_seconds", 2)

	v.SetDefault("processing.max_workers", 12)
}

// Load reads configuration from defaults, an optional config file, and
// ICANN_* environment variables, in increasing order of precedence.
// configFile may be empty, in which case config.yaml is searched for in the
// current directory and ~/.config/icann-reports/.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ICANN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "icann-reports"))
		}
		if err := v.ReadInConfig(); err != nil {
			// Missing config file is fine, defaults apply
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// CacheDir returns the directory holding the processed-file cache document
func (c *Config) CacheDir() string {
	return filepath.Dir(c.Data.CacheFile)
}

// EnsureDirectories creates the data, cache and reports directories.
// This is an explicit initialization step: directories are never created as
// a side effect of loading configuration.
func EnsureDirectories(cfg *Config) error {
	for _, dir := range []string{cfg.Data.Directory, cfg.CacheDir(), cfg.Data.ReportsDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoadEnv loads environment variables from a .env file if one exists
func LoadEnv() {
	once.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		if err := godotenv.Load(envFile); err != nil {
			Logger.Warnf("Error loading .env file: %v", err)
		}
	})
}

// ConfigureLogging sets up the shared logger from the given configuration
// and returns it
func ConfigureLogging(cfg *Config) *logrus.Logger {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		Logger.Warnf("Invalid log level '%s', using 'info'", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	if strings.ToLower(cfg.Log.Format) == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return Logger
}
