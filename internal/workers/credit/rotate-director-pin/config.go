// internal/workers/credit/rotate-director-pin/config.go
package rotatedirectorpin

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
