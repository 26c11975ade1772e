// internal/workers/refine/classify-prompt/config.go
package classifyprompt

import "time"

type Config struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: time.Hour,
		Timeout:  15 * time.Second,
	}
}
