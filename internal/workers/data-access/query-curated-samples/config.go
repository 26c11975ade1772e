// internal/workers/data-access/query-curated-samples/config.go
package querycuratedsamples

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Index:   "curated-samples",
		Timeout: 10 * time.Second,
	}
}
