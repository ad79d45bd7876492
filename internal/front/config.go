package front

import (
	"fmt"
	"time"

	"github.com/srclos-net/aws-micro-test/internal/tracing"
)

const (
	BackServiceName = "back-service"

	defaultPath    = "process-users"
	defaultTimeout = 10 * time.Second
)

type Config struct {
	// Path is the back service route the users are posted to.
	Path string
	// Timeout bounds the whole downstream call, body included. Zero disables it.
	Timeout time.Duration
}

func ConfigFrom(c tracing.Getter) (Config, error) {
	cfg := Config{
		Path:    c.GetOrDefault("BACK_SERVICE_PATH", defaultPath),
		Timeout: defaultTimeout,
	}

	if v := c.Get("DOWNSTREAM_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse DOWNSTREAM_TIMEOUT: %w", err)
		}

		cfg.Timeout = timeout
	}

	return cfg, nil
}
