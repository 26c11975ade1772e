// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	GenAI         GenAIConfig        `mapstructure:"genai"`
	Lab           LabConfig          `mapstructure:"lab"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	SamplesIndex string   `mapstructure:"samples_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig points at the refinement/classification HTTP collaborator.
type GenAIConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`

	// ClassifierEnabled gates the LLM classification fallback. When
	// false the classifier degrades straight to the default template.
	ClassifierEnabled bool `mapstructure:"classifier_enabled"`
}

// LabConfig controls batch evaluation.
type LabConfig struct {
	// MaxBatchSize is the hard safety ceiling. Batches over it are
	// rejected before any work starts.
	MaxBatchSize int `mapstructure:"max_batch_size"`
	DefaultLimit int `mapstructure:"default_limit"`

	// EvalPlan and EvalVariant pin refinement calls to one policy so
	// batches are comparable run to run.
	EvalPlan    string `mapstructure:"eval_plan"`
	EvalVariant string `mapstructure:"eval_variant"`

	// ClassifyCacheTTL bounds the Redis classification cache, seconds.
	ClassifyCacheTTL int `mapstructure:"classify_cache_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type NotificationConfig struct {
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
	AWSRegion   string `mapstructure:"aws_region"`
}
