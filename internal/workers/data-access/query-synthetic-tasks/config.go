// internal/workers/data-access/query-synthetic-tasks/config.go
package querysynthetictasks

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
