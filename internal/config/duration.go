package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Timeout parses RequestTimeout, falling back to DefaultRequestTimeout.
func (m ModelRegistry) Timeout() (time.Duration, error) {
	return DurationOrDefault(m.RequestTimeout, DefaultRequestTimeout)
}

// DurationOrDefault parses value, or fallback when value is blank. Zero and
// negative durations are rejected.
func DurationOrDefault(value, fallback string) (time.Duration, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" {
		return 0, errors.New("duration is empty")
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
