package domain

import (
	"fmt"
	"strings"
	"time"
)

// Symbol identifies a subscribed data feed (e.g., "EURUSD_CUSTOM").
type Symbol string

// String returns the symbol value.
func (s Symbol) String() string { return string(s) }

// IsZero reports whether the symbol is unset.
func (s Symbol) IsZero() bool { return s == "" }

// Resolution represents the bar period a feed is delivered at.
type Resolution string

const (
	ResolutionTick   Resolution = "tick"
	ResolutionSecond Resolution = "second"
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDaily  Resolution = "daily"
)

// Duration returns the bar period for the resolution. Tick data has no period.
func (r Resolution) Duration() time.Duration {
	switch r {
	case ResolutionSecond:
		return time.Second
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParseResolution converts a string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToLower(strings.TrimSpace(s))); r {
	case ResolutionTick, ResolutionSecond, ResolutionMinute, ResolutionHour, ResolutionDaily:
		return r, nil
	default:
		return "", fmt.Errorf("unsupported resolution %q", s)
	}
}
