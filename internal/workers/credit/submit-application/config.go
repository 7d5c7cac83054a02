// internal/workers/credit/submit-application/config.go
package submitapplication

import "time"

type Config struct {
	Timeout time.Duration
	// CheckDocuments runs the AI compliance check before the upload.
	CheckDocuments bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        180 * time.Second,
		CheckDocuments: true,
	}
}
