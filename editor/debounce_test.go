package editor

import (
	"testing"
	"time"

	"github.com/hazyhaar/atelier/stylepatch"
)

func TestCoalesce_MergesSameRuleKey(t *testing.T) {
	patches := []stylePatch{
		{ComponentID: "a", Breakpoint: stylepatch.Base, Props: map[string]string{"color": "#111"}},
		{ComponentID: "b", Breakpoint: stylepatch.Base, Props: map[string]string{"margin": "0"}},
		{ComponentID: "a", Breakpoint: stylepatch.Base, Props: map[string]string{"color": "#222", "padding": "4px"}},
		{ComponentID: "a", Breakpoint: stylepatch.Mobile, Props: map[string]string{"color": "#333"}},
	}

	out := coalesce(patches)
	if len(out) != 3 {
		t.Fatalf("coalesce: got %d patches, want 3", len(out))
	}
	if out[0].ComponentID != "a" || out[1].ComponentID != "b" {
		t.Fatalf("coalesce must keep first-arrival order, got [%s %s %s]",
			out[0].ComponentID, out[1].ComponentID, out[2].ComponentID)
	}
	if out[0].Props["color"] != "#222" {
		t.Fatalf("last write wins: got color %q, want #222", out[0].Props["color"])
	}
	if out[0].Props["padding"] != "4px" {
		t.Fatal("merged patch lost a property")
	}
	if out[2].Breakpoint != stylepatch.Mobile || out[2].Props["color"] != "#333" {
		t.Fatal("breakpoints must coalesce independently")
	}
}

func TestCoalesce_DoesNotAliasInput(t *testing.T) {
	src := map[string]string{"color": "#111"}
	out := coalesce([]stylePatch{
		{ComponentID: "a", Props: src},
		{ComponentID: "a", Props: map[string]string{"color": "#222"}},
	})
	if src["color"] != "#111" {
		t.Fatal("coalesce mutated a caller's property map")
	}
	if out[0].Props["color"] != "#222" {
		t.Fatalf("merged value: got %q, want #222", out[0].Props["color"])
	}
}

func TestDebouncer_FlushesOnCap(t *testing.T) {
	var flushed [][]stylePatch
	d := newDebouncer(time.Hour, 3, func(ps []stylePatch) {
		flushed = append(flushed, ps)
	})

	d.add(stylePatch{ComponentID: "a", Props: map[string]string{"x": "1"}})
	d.add(stylePatch{ComponentID: "b", Props: map[string]string{"x": "1"}})
	if len(flushed) != 0 {
		t.Fatal("flush before the cap")
	}
	if !d.add(stylePatch{ComponentID: "c", Props: map[string]string{"x": "1"}}) {
		t.Fatal("hitting the cap must flush immediately")
	}
	if len(flushed) != 1 || len(flushed[0]) != 3 {
		t.Fatalf("cap flush: got %d batches, want one batch of 3", len(flushed))
	}
}

func TestDebouncer_WindowTimer(t *testing.T) {
	var flushed int
	d := newDebouncer(10*time.Millisecond, 100, func([]stylePatch) { flushed++ })

	d.add(stylePatch{ComponentID: "a", Props: map[string]string{"x": "1"}})
	select {
	case <-d.timerC():
		d.flush()
	case <-time.After(time.Second):
		t.Fatal("window timer never fired")
	}
	if flushed != 1 {
		t.Fatalf("flushes: got %d, want 1", flushed)
	}
	if d.timerC() != nil {
		t.Fatal("flush must clear the timer channel")
	}
}

func TestDebouncer_EmptyFlushIsNoOp(t *testing.T) {
	d := newDebouncer(time.Hour, 10, func([]stylePatch) {
		t.Fatal("empty flush must not call through")
	})
	d.flush()
}
