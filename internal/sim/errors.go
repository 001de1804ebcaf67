package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned for configuration problems detected before any trial runs.
	ErrConfig = errors.New("invalid simulation config")

	// ErrSampling is returned when a draw asks for more cards than the population holds.
	ErrSampling = errors.New("sampling error")
)

// ConfigError describes a rejected configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrConfig, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SamplingError reports a draw larger than the available population.
type SamplingError struct {
	Requested int
	Available int
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("%s: cannot draw %d cards from %d", ErrSampling, e.Requested, e.Available)
}

func (e *SamplingError) Unwrap() error { return ErrSampling }
