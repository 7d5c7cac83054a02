// internal/workers/credit/advance-analysis/config.go
package advanceanalysis

import "time"

type Config struct {
	Timeout time.Duration
	// RefreshOnMiss reloads the application list once when the id is not
	// known to this process yet.
	RefreshOnMiss bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       300 * time.Second,
		RefreshOnMiss: true,
	}
}
