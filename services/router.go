// Package services routes collaborator calls — generate, save, export,
// recommend — either locally (in-memory function call) or remotely (HTTP),
// based on a SQLite collaborators table reloaded at runtime.
//
// The editing core treats every collaborator as a black box: bytes in,
// bytes out. Default wiring registers an in-process handler per service;
// repointing one row of the table sends the next call over the wire
// instead, with no restart.
//
//	router := services.New()
//	router.RegisterTransport("http", services.HTTPFactory())
//	router.RegisterLocal("generate", services.DefaultGenerateHandler(idgen.Component()))
//	go router.Watch(ctx, db, 200*time.Millisecond)
//
//	resp, err := router.Call(ctx, "generate", payload)
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler is a transport-agnostic service function: bytes in, bytes out.
// Both local Go functions and remote clients implement this signature.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// CallObserver receives one record per dispatched collaborator call: the
// service name, the strategy it resolved to ("local", "http", "noop", or
// empty when no route existed), the call duration and its outcome.
type CallObserver func(service, strategy string, duration time.Duration, err error)

// TransportFactory creates a Handler for a remote endpoint. The returned
// close function is called when the route is removed or replaced during
// hot-reload; it may be nil.
type TransportFactory func(endpoint string, config json.RawMessage) (handler Handler, close func(), err error)

// route is one row of the collaborators table.
type route struct {
	ServiceName string
	Strategy    string
	Endpoint    string
	Config      json.RawMessage
}

// fingerprint changes when the route config changes.
func (rt route) fingerprint() string {
	return rt.Strategy + "|" + rt.Endpoint + "|" + string(rt.Config)
}

type remoteEntry struct {
	handler Handler
	close   func()
	breaker *CircuitBreaker
}

// Router dispatches collaborator calls based on SQLite configuration.
// Thread-safe: reads use RLock, reloads use full Lock.
type Router struct {
	mu            sync.RWMutex
	localHandlers map[string]Handler
	remoteEntries map[string]remoteEntry
	routeSnap     map[string]route
	factories     map[string]TransportFactory
	logger        *slog.Logger
	observer      CallObserver

	fallbackToLocal bool
	useBreakers     bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger for the router.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithObserver installs a hook invoked after every Call. Feeds the audit
// trail; keep it fast, it runs on the caller's goroutine.
func WithObserver(fn CallObserver) Option {
	return func(r *Router) { r.observer = fn }
}

// WithLocalFallback makes remote routes degrade to the registered local
// handler (when one exists) instead of failing the call. The local handler
// is captured at reload time, so register locals before the first Reload.
func WithLocalFallback() Option {
	return func(r *Router) { r.fallbackToLocal = true }
}

// WithBreakers gives every remote route its own circuit breaker with
// default settings. Open breakers reject calls with ErrCircuitOpen, which
// the local fallback (if enabled) then absorbs.
func WithBreakers() Option {
	return func(r *Router) { r.useBreakers = true }
}

// New creates a Router with no routes. Register transports and local
// handlers, then call Watch to start hot-reloading from SQLite.
func New(opts ...Option) *Router {
	r := &Router{
		localHandlers: make(map[string]Handler),
		remoteEntries: make(map[string]remoteEntry),
		routeSnap:     make(map[string]route),
		factories:     make(map[string]TransportFactory),
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers an in-memory handler for a service. If the
// collaborators table says strategy="local" for this service, or carries
// no row at all, Call dispatches here.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.localHandlers[service] = h
	r.mu.Unlock()
}

// RegisterTransport registers a factory for a transport protocol.
func (r *Router) RegisterTransport(protocol string, f TransportFactory) {
	r.mu.Lock()
	r.factories[protocol] = f
	r.mu.Unlock()
}

// Call dispatches a collaborator call. Resolution order:
//  1. Noop route — silently succeeds (collaborator disabled).
//  2. Explicit remote route from SQLite.
//  3. Local handler.
//  4. Error — service not routable.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	entry, hasRemote := r.remoteEntries[service]
	localH := r.localHandlers[service]
	snap, hasRoute := r.routeSnap[service]
	r.mu.RUnlock()

	if hasRoute && snap.Strategy == "noop" {
		r.logger.DebugContext(ctx, "routing noop", "service", service)
		r.observe(service, "noop", 0, nil)
		return nil, nil
	}

	if hasRemote {
		r.logger.DebugContext(ctx, "routing remote",
			"service", service, "strategy", snap.Strategy, "endpoint", snap.Endpoint)
		start := time.Now()
		resp, err := entry.handler(ctx, payload)
		r.observe(service, snap.Strategy, time.Since(start), err)
		return resp, err
	}

	if localH != nil {
		r.logger.DebugContext(ctx, "routing local", "service", service)
		start := time.Now()
		resp, err := localH(ctx, payload)
		r.observe(service, "local", time.Since(start), err)
		return resp, err
	}

	err := &ErrServiceNotFound{Service: service}
	r.observe(service, "", 0, err)
	return nil, err
}

func (r *Router) observe(service, strategy string, d time.Duration, err error) {
	if r.observer != nil {
		r.observer(service, strategy, d, err)
	}
}

// Reload reads the collaborators table and rebuilds the remote handler
// map. Routes with strategy "local" or "noop" create no remote handlers.
// Only routes whose (strategy, endpoint, config) changed are rebuilt, so
// unchanged routes keep their connections.
func (r *Router) Reload(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx,
		`SELECT service_name, strategy, COALESCE(endpoint, ''), COALESCE(config, '{}') FROM collaborators`)
	if err != nil {
		return fmt.Errorf("services: query collaborators: %w", err)
	}
	defer rows.Close()

	newRoutes := make(map[string]route)
	for rows.Next() {
		var rt route
		var cfgStr string
		if err := rows.Scan(&rt.ServiceName, &rt.Strategy, &rt.Endpoint, &cfgStr); err != nil {
			return fmt.Errorf("services: scan collaborator: %w", err)
		}
		rt.Config = json.RawMessage(cfgStr)
		newRoutes[rt.ServiceName] = rt
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("services: rows: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	newEntries := make(map[string]remoteEntry, len(newRoutes))

	for name, rt := range newRoutes {
		switch rt.Strategy {
		case "local", "noop":
			continue
		default:
			if old, ok := r.routeSnap[name]; ok && old.fingerprint() == rt.fingerprint() {
				if existing, exists := r.remoteEntries[name]; exists {
					newEntries[name] = existing
					continue
				}
			}

			factory, ok := r.factories[rt.Strategy]
			if !ok {
				r.logger.Warn("no transport factory for strategy",
					"service", name, "strategy", rt.Strategy)
				continue
			}

			h, closeFn, err := factory(rt.Endpoint, rt.Config)
			if err != nil {
				r.logger.Error("factory failed",
					"service", name, "strategy", rt.Strategy,
					"endpoint", rt.Endpoint, "error", err)
				continue
			}
			entry := remoteEntry{handler: h, close: closeFn}
			if r.useBreakers {
				entry.breaker = NewCircuitBreaker()
				entry.handler = WithCircuitBreaker(entry.breaker, name)(entry.handler)
			}
			if r.fallbackToLocal {
				if local := r.localHandlers[name]; local != nil {
					entry.handler = WithFallback(local, name, r.logger)(entry.handler)
				}
			}
			newEntries[name] = entry
			r.logger.Info("collaborator route built",
				"service", name, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
		}
	}

	// Close old entries that were removed or whose config changed.
	for name, old := range r.remoteEntries {
		if old.close == nil {
			continue
		}
		if _, stillExists := newEntries[name]; !stillExists {
			old.close()
			continue
		}
		oldSnap := r.routeSnap[name]
		newRt := newRoutes[name]
		if oldSnap.fingerprint() != newRt.fingerprint() {
			old.close()
		}
	}

	r.remoteEntries = newEntries
	r.routeSnap = newRoutes

	r.logger.Info("collaborators reloaded",
		"total", len(newRoutes), "remote", len(newEntries))

	return nil
}

// Close shuts down all remote handlers.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.remoteEntries {
		if entry.close != nil {
			entry.close()
		}
	}
	r.remoteEntries = make(map[string]remoteEntry)
	r.routeSnap = make(map[string]route)
	return nil
}
