// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the usual run locations.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "promptlab-workers"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Elasticsearch.SamplesIndex == "" {
		cfg.Database.Elasticsearch.SamplesIndex = "curated-samples"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 30000
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 2
	}
	if cfg.Lab.MaxBatchSize == 0 {
		cfg.Lab.MaxBatchSize = 50
	}
	if cfg.Lab.DefaultLimit == 0 {
		cfg.Lab.DefaultLimit = 10
	}
	if cfg.Lab.EvalPlan == "" {
		cfg.Lab.EvalPlan = "pro"
	}
	if cfg.Lab.EvalVariant == "" {
		cfg.Lab.EvalVariant = "control"
	}
	if cfg.Lab.ClassifyCacheTTL == 0 {
		cfg.Lab.ClassifyCacheTTL = 3600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9102
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Lab.MaxBatchSize < 1 {
		return fmt.Errorf("lab.max_batch_size must be positive, got %d", cfg.Lab.MaxBatchSize)
	}
	if cfg.Lab.DefaultLimit > cfg.Lab.MaxBatchSize {
		return fmt.Errorf("lab.default_limit %d exceeds lab.max_batch_size %d",
			cfg.Lab.DefaultLimit, cfg.Lab.MaxBatchSize)
	}
	if cfg.GenAI.ClassifierEnabled && cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required when genai.classifier_enabled is set")
	}
	return nil
}
