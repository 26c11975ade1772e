// internal/workers/data-access/persist-lab-records/config.go
package persistlabrecords

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
