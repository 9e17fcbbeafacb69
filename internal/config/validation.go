package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError names the offending key.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate reports every problem with c.
func (c *Config) Validate() []error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, &ValidationError{Field: "log.format", Message: fmt.Sprintf("must be json or console, got %q", c.Log.Format)})
	}

	addrs := []struct{ field, addr string }{
		{"server.addr", c.Server.Addr},
		{"server.metrics_addr", c.Server.MetricsAddr},
	}
	for _, a := range addrs {
		if _, _, err := net.SplitHostPort(a.addr); err != nil {
			errs = append(errs, &ValidationError{Field: a.field, Message: fmt.Sprintf("invalid address %q", a.addr)})
		}
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, &ValidationError{Field: "store.path", Message: "must not be empty"})
	}
	return errs
}
