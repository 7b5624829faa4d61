// Package config loads Config the way the rest of this codebase's
// sibling tools do: environment variables override a YAML file, which
// overrides the defaults below, and the merged result is validated
// before any component is constructed from it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

// Config is the root configuration for the asset pipeline: worker pool
// sizing, the set of paks to mount, the shader cache location, and the
// daemon's pidfile.
type Config struct {
	Workers WorkersConfig `mapstructure:"workers"`
	Paks    PaksConfig    `mapstructure:"paks"`
	Shaders ShadersConfig `mapstructure:"shaders"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
}

type WorkersConfig struct {
	Count int `mapstructure:"count" validate:"min=1"`
}

type PaksConfig struct {
	FSRoots []string `mapstructure:"fs_roots"`
	DBDSN   string   `mapstructure:"db_dsn"`
	IOQPS   float64  `mapstructure:"io_qps" validate:"min=0"`
}

type ShadersConfig struct {
	CachePath  string `mapstructure:"cache_path" validate:"required"`
	SourceRoot string `mapstructure:"source_root" validate:"required"`
}

type DaemonConfig struct {
	PIDFile string `mapstructure:"pid_file" validate:"required"`
}

// LoadConfig loads configuration from multiple sources with priority:
//  1. Environment variables (ASSETPIPE_ prefix, highest priority)
//  2. Config file (assetpipe.yaml)
//  3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("assetpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/assetpipe")
	}

	v.SetEnvPrefix("ASSETPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only consults the environment for keys viper already
	// knows, so bind every key explicitly for env to apply without a file.
	for _, key := range []string{"workers.count", "paks.fs_roots", "paks.db_dsn", "paks.io_qps", "shaders.cache_path", "shaders.source_root", "daemon.pid_file"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MustLoadConfig loads configuration and panics on error, for use in main.go.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ValidateConfig checks cfg against its struct tags. Violations surface
// as a single InvalidParameter status listing every offending field, so
// config failures travel through the same error taxonomy as the rest of
// the pipeline.
func ValidateConfig(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return asset.New(asset.StatusCodeInvalidParameter, err.Error())
	}

	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, fmt.Sprintf("%s=%v violates %q", fe.Namespace(), fe.Value(), fe.Tag()))
	}
	return asset.New(asset.StatusCodeInvalidParameter, "config rejected: "+strings.Join(violations, "; "))
}
