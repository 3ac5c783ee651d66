// internal/workers/opendata/fetch-dataset/config.go
package fetchdataset

import (
	"time"

	"gov-dash/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig sizes the job deadline from the worker timeout, falling back to
// the outbound request timeout.
func LoadConfig(wcfg config.WorkerConfig, od config.OpenDataConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = config.GetDuration(od.Timeout)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
