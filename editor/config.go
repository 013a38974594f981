package editor

import (
	"log/slog"
	"time"
)

// Config tunes the editing service. The zero value is usable; defaults()
// fills anything unset.
type Config struct {
	// HistoryCap bounds the per-session undo stack. Default: 100.
	HistoryCap int

	// DebounceWindow coalesces rapid style edits before applying a patch
	// and rebuilding the surface. Default: 250ms.
	DebounceWindow time.Duration

	// DebounceMax flushes immediately when this many style patches
	// accumulate inside one window. Default: 64.
	DebounceMax int

	// SessionTTL closes sessions idle past this duration. Default: 30m.
	SessionTTL time.Duration

	// ReapInterval is how often the idle reaper runs. Default: 1m.
	ReapInterval time.Duration

	// ViewportWidth/Height size the rendering surface. Defaults: 1280x800.
	ViewportWidth  int
	ViewportHeight int

	// FeedBuffer is the per-subscriber event buffer. A slow consumer drops
	// events rather than blocking edits. Default: 64.
	FeedBuffer int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.HistoryCap <= 0 {
		c.HistoryCap = 100
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = 250 * time.Millisecond
	}
	if c.DebounceMax <= 0 {
		c.DebounceMax = 64
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = time.Minute
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 800
	}
	if c.FeedBuffer <= 0 {
		c.FeedBuffer = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
