// CLAUDE:SUMMARY Per-session browsing surface: mount generations, binding listener, measurement, selection sync.
// Package canvas is the render bridge between the document model and a
// live preview. It composes fully self-contained HTML documents, mounts
// them into dedicated pages of a managed headless Chromium, and streams
// interaction envelopes (selection, drag lifecycle) back to the host
// through a CDP binding.
//
// Content flows one way: every document change remounts the surface with a
// freshly composed document under a new generation. The surface never
// mutates host state; it only reports intent, and envelopes from torn-down
// generations are dropped before anyone sees them.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/atelier/dropzone"
)

// Default viewport for preview measurement. Breakpoint previews override
// the width (1024 tablet, 768 mobile).
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
)

const measureScript = `() => JSON.stringify(Array.prototype.map.call(
	document.querySelectorAll('[component-id]'),
	function (el) {
		var r = el.getBoundingClientRect();
		return { id: el.getAttribute('component-id'), top: r.top + window.scrollY, height: r.height };
	}))`

const selectScript = `(id) => {
	var prev = document.querySelectorAll('.atelier-selected');
	for (var i = 0; i < prev.length; i++) prev[i].classList.remove('atelier-selected');
	if (!id) return true;
	var el = document.querySelector('[component-id="' + id + '"]');
	if (!el) return false;
	el.classList.add('atelier-selected');
	el.scrollIntoView({ block: 'nearest' });
	return true;
}`

// Surface is one editing session's isolated browsing context.
type Surface struct {
	page   *rod.Page
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	gen    atomic.Uint64
	events chan Envelope
}

// NewSurface wires a surface onto a fresh page: registers the emit binding,
// starts the envelope listener, and fixes the preview viewport.
func NewSurface(ctx context.Context, page *rod.Page, logger *slog.Logger) (*Surface, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Surface{
		page:   page,
		logger: logger,
		ctx:    sctx,
		cancel: cancel,
		events: make(chan Envelope, 256),
	}

	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(page); err != nil {
		cancel()
		return nil, fmt.Errorf("canvas: add binding: %w", err)
	}
	go s.listenBinding()

	if err := s.SetViewport(sctx, DefaultViewportWidth, DefaultViewportHeight); err != nil {
		logger.Warn("canvas: set viewport failed", "error", err)
	}

	return s, nil
}

// Mount composes the next generation of the preview and replaces the
// surface content with it. Full teardown, no DOM diffing; transient page
// state is lost. Returns the new mount generation.
func (s *Surface) Mount(ctx context.Context, in ComposeInput) (uint64, error) {
	gen := s.gen.Add(1)
	in.Generation = gen
	html := Compose(in)
	if err := s.page.Context(ctx).SetDocumentContent(html); err != nil {
		return gen, fmt.Errorf("canvas: mount: %w", err)
	}
	s.logger.Debug("canvas: mounted", "gen", gen, "size", len(html))
	return gen, nil
}

// Generation returns the current mount generation.
func (s *Surface) Generation() uint64 { return s.gen.Load() }

// Events streams live envelopes. Version and generation filtering already
// happened; checking that a component is still a member of the current
// page is the consumer's half of the staleness contract.
func (s *Surface) Events() <-chan Envelope { return s.events }

// SetViewport fixes the emulated viewport, so measurements are stable and
// breakpoint previews show the matching media bucket.
func (s *Surface) SetViewport(ctx context.Context, width, height int) error {
	return proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}.Call(s.page.Context(ctx))
}

// MeasureBoxes reads the live geometry of every tracked component in
// document order, for drop-position resolution.
func (s *Surface) MeasureBoxes(ctx context.Context) ([]dropzone.Box, error) {
	res, err := s.page.Context(ctx).Eval(measureScript)
	if err != nil {
		return nil, fmt.Errorf("canvas: measure: %w", err)
	}
	var boxes []dropzone.Box
	if err := json.Unmarshal([]byte(res.Value.Str()), &boxes); err != nil {
		return nil, fmt.Errorf("canvas: decode boxes: %w", err)
	}
	return boxes, nil
}

// SetSelection toggles the exclusive selection class on the live page
// without a remount and scrolls the selected component into view. An empty
// id clears the selection. Reports whether the component was found.
func (s *Surface) SetSelection(ctx context.Context, componentID string) (bool, error) {
	res, err := s.page.Context(ctx).Eval(selectScript, componentID)
	if err != nil {
		return false, fmt.Errorf("canvas: set selection: %w", err)
	}
	return res.Value.Bool(), nil
}

// PrintPDF renders the current mount to PDF. Callers mount a runtime-free
// compose first so editing chrome never prints.
func (s *Surface) PrintPDF(ctx context.Context) ([]byte, error) {
	res, err := proto.PagePrintToPDF{PrintBackground: true}.Call(s.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("canvas: print pdf: %w", err)
	}
	return res.Data, nil
}

// Close stops the listener and closes the page.
func (s *Surface) Close() {
	s.cancel()
	if err := s.page.Close(); err != nil {
		s.logger.Debug("canvas: page close", "error", err)
	}
}

// listenBinding receives envelopes from the runtime via
// Runtime.bindingCalled, filters them, and hands them to the events
// channel. The channel send never blocks the CDP loop: under backpressure
// envelopes are dropped, which the fire-and-forget protocol permits.
func (s *Surface) listenBinding() {
	s.page.Context(s.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}

		var env Envelope
		if err := json.Unmarshal([]byte(e.Payload), &env); err != nil {
			s.logger.Warn("canvas: parse envelope", "error", err)
			return
		}
		if env.V != ProtocolVersion {
			s.logger.Warn("canvas: envelope version mismatch", "v", env.V)
			return
		}
		if env.Gen != s.gen.Load() {
			s.logger.Debug("canvas: stale envelope dropped",
				"gen", env.Gen, "current", s.gen.Load(), "type", env.Type)
			return
		}

		select {
		case s.events <- env:
		default:
			s.logger.Warn("canvas: event buffer full, envelope dropped", "type", env.Type)
		}
	})()
}
