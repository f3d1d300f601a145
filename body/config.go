package body

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultMaxBufferSize is the default cap on in-memory materialization:
// 2 GiB − 1, the conventional single-buffer ceiling.
const DefaultMaxBufferSize = int64(math.MaxInt32)

// Config configures body buffering.
type Config struct {
	// MaxBufferSize is the largest body, in bytes, that Materialize will
	// hold in memory. Defaults to DefaultMaxBufferSize.
	MaxBufferSize int64 `yaml:"max_buffer_size" mapstructure:"max_buffer_size" validate:"min=0"`

	// PoolDiscardLimit is the largest slice, in bytes, the shared buffer
	// pool retains. Defaults to buffer.DefaultDiscardLimit.
	PoolDiscardLimit int `yaml:"pool_discard_limit" mapstructure:"pool_discard_limit" validate:"min=0"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxBufferSize: DefaultMaxBufferSize}
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = DefaultMaxBufferSize
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("body: invalid config: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from an optional YAML file and
// HTTPBODY_* environment variables, with an optional .env file loaded
// first. Environment variables override file values.
func LoadConfig(configFile, envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("body: load env file: %w", err)
			}
		}
	}

	v := viper.New()
	v.SetEnvPrefix("HTTPBODY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("max_buffer_size", DefaultMaxBufferSize)
	v.SetDefault("pool_discard_limit", 0)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("body: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("body: parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
