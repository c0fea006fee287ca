package llm

import (
	"errors"
	"fmt"
)

// Upstream failure classes surfaced by provider adapters. Callers match with
// errors.Is; anything not wrapping one of these sentinels is a transport
// failure (network, parse, unexpected upstream response).
var (
	// ErrRateLimited indicates upstream throttling (HTTP 429).
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrModelUnavailable indicates the requested model does not exist or is
	// not accessible (HTTP 404).
	ErrModelUnavailable = errors.New("upstream model unavailable")
)

// ConfigError reports invalid provider configuration. It is raised by the
// factory before any network call and is never converted into a stream event.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm configuration: %s", e.Reason)
}

// IsConfigError reports whether err is a provider configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// classifyStatus wraps err with the sentinel matching an upstream HTTP status.
func classifyStatus(status int, err error) error {
	switch status {
	case 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case 404:
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	default:
		return err
	}
}
