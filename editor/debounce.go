// CLAUDE:SUMMARY Style-edit debouncer: buffers property patches, coalesces per rule key, flushes on window or cap.
package editor

import (
	"time"

	"github.com/hazyhaar/atelier/stylepatch"
)

// stylePatch is one property-panel edit waiting for the debounce window.
type stylePatch struct {
	ComponentID string
	Props       map[string]string
	Breakpoint  stylepatch.Breakpoint
}

// debouncer collects style patches and emits coalesced batches when the
// window expires or the buffer fills. Rapid edits to the same component
// and breakpoint collapse into a single patch, last value wins.
type debouncer struct {
	window  time.Duration
	max     int
	patches []stylePatch
	timer   *time.Timer
	timerCh <-chan time.Time
	flushFn func([]stylePatch)
}

func newDebouncer(window time.Duration, max int, flushFn func([]stylePatch)) *debouncer {
	if window <= 0 {
		window = 250 * time.Millisecond
	}
	if max <= 0 {
		max = 64
	}
	return &debouncer{
		window:  window,
		max:     max,
		patches: make([]stylePatch, 0, max),
		flushFn: flushFn,
	}
}

// add pushes a patch into the buffer. Returns true if an immediate flush
// was triggered (buffer full).
func (d *debouncer) add(p stylePatch) bool {
	d.patches = append(d.patches, p)

	if len(d.patches) >= d.max {
		d.flush()
		return true
	}

	// (Re)start the window timer.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.NewTimer(d.window)
	d.timerCh = d.timer.C
	return false
}

// timerC returns the channel that fires when the debounce window expires.
func (d *debouncer) timerC() <-chan time.Time {
	return d.timerCh
}

// flush coalesces and emits the buffered patches, then resets.
func (d *debouncer) flush() {
	if len(d.patches) == 0 {
		return
	}

	coalesced := coalesce(d.patches)
	d.flushFn(coalesced)

	d.patches = d.patches[:0]
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
		d.timerCh = nil
	}
}

// coalesce merges patches targeting the same (component, breakpoint) into
// one, overlaying properties in arrival order so the last edit to a
// property wins. First-arrival order of keys is preserved.
func coalesce(patches []stylePatch) []stylePatch {
	if len(patches) <= 1 {
		return patches
	}

	type key struct {
		id string
		bp stylepatch.Breakpoint
	}
	merged := make(map[key]int)
	out := make([]stylePatch, 0, len(patches))

	for _, p := range patches {
		k := key{p.ComponentID, p.Breakpoint}
		if i, ok := merged[k]; ok {
			for name, val := range p.Props {
				out[i].Props[name] = val
			}
			continue
		}
		cp := stylePatch{
			ComponentID: p.ComponentID,
			Breakpoint:  p.Breakpoint,
			Props:       make(map[string]string, len(p.Props)),
		}
		for name, val := range p.Props {
			cp.Props[name] = val
		}
		merged[k] = len(out)
		out = append(out, cp)
	}
	return out
}
