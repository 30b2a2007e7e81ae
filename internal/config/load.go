package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variables, e.g. the database
// URL is read from ZENGARDEN_DATABASE_URL.
const envPrefix = "ZENGARDEN"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values. Returns a populated Config or an error
// if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal,
	// so bind every known key explicitly.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values mirroring the reference
// deployment's behavior.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("generator.text_model", "gemini-2.0-flash")
	v.SetDefault("generator.image_model", "gemini-2.0-flash-exp-image-generation")
	v.SetDefault("generator.aspect_ratio", "1:1")
	v.SetDefault("generator.image_size", "1K")

	v.SetDefault("storage.region", "auto")

	v.SetDefault("minter.timeout_seconds", 60)

	v.SetDefault("cache.ttl_seconds", 30)

	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("worker.stage_timeout_seconds", 120)
}

// configKeys lists every configuration key for env binding.
func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"generator.gemini_api_key",
		"generator.text_model",
		"generator.image_model",
		"generator.aspect_ratio",
		"generator.image_size",
		"storage.endpoint",
		"storage.region",
		"storage.access_key_id",
		"storage.secret_access_key",
		"storage.bucket",
		"storage.public_url",
		"minter.relay_url",
		"minter.api_key",
		"minter.collection_name",
		"minter.timeout_seconds",
		"cache.addr",
		"cache.password",
		"cache.db",
		"cache.ttl_seconds",
		"worker.poll_interval_seconds",
		"worker.stage_timeout_seconds",
	}
}
