package domain

import "time"

// FeedStats counts what happened to the lines of one feed during a run.
type FeedStats struct {
	Symbol      Symbol
	Source      string // Object store key the feed was read from
	Decoded     int    // Lines turned into bars inside the window
	Skipped     int    // Header, comment or blank lines
	Rejected    int    // Malformed lines
	OutOfWindow int    // Valid bars outside the backtest window
	Error       string // Set when the source could not be read
}

// RunSummary describes one completed replay.
type RunSummary struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Ticks       int
	Feeds       []FeedStats
}
