// internal/workers/credit/record-decision/config.go
package recorddecision

import "time"

type Config struct {
	Timeout time.Duration
	// LoadOnShallow hydrates the full record from its snapshot once when
	// only the list row is known.
	LoadOnShallow bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		LoadOnShallow: true,
	}
}
