// CLAUDE:SUMMARY Entry point for the atelier editing service — chi router, SQLite store, shared Chromium, optional MCP stdio.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"log/slog"

	"github.com/hazyhaar/atelier/canvas"
	"github.com/hazyhaar/atelier/dbopen"
	"github.com/hazyhaar/atelier/editor"
	"github.com/hazyhaar/atelier/idgen"
	"github.com/hazyhaar/atelier/observability"
	"github.com/hazyhaar/atelier/services"
	"github.com/hazyhaar/atelier/shield"
	"github.com/hazyhaar/atelier/store"
)

func main() {
	port := env("PORT", "8090")
	dbPath := env("DB_PATH", "db/atelier.db")
	browserURL := env("BROWSER_URL", "")
	headless := env("HEADLESS", "") == "1"
	seedPath := env("SEED_FILE", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. In MCP stdio mode stdout carries the protocol, so logs go
	// to stderr.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logOut := os.Stdout
	if mcpTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Project store, collaborator routing and observability tables share
	// one database.
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.ApplySchema(db); err != nil {
		slog.Error("apply store schema", "error", err)
		os.Exit(1)
	}
	if err := services.Init(db); err != nil {
		slog.Error("apply collaborators schema", "error", err)
		os.Exit(1)
	}
	if err := observability.Init(db); err != nil {
		slog.Error("apply observability schema", "error", err)
		os.Exit(1)
	}
	if err := shield.Init(db); err != nil {
		slog.Error("apply shield schema", "error", err)
		os.Exit(1)
	}

	events := observability.NewEventLogger(db)
	heartbeat := observability.NewHeartbeatWriter(db, "atelier", time.Minute)
	heartbeat.Start(ctx)
	defer heartbeat.Stop()
	metrics := observability.NewMetricsManager(db, 100, 5*time.Second)
	defer metrics.Close()
	audit := observability.NewAuditLogger(db, 1000)
	defer audit.Close()

	// Collaborator router. Local defaults serve every collaborator out of
	// the box; the collaborators table (hot-reloaded via Watch) can point
	// any of them at an HTTP endpoint instead. Every dispatched call lands
	// in the audit trail.
	router := services.New(services.WithLogger(logger), services.WithBreakers(),
		services.WithObserver(audit.CollaboratorObserver()))
	defer router.Close()
	router.RegisterTransport("http", services.HTTPFactory())
	router.RegisterLocal("generate", services.DefaultGenerateHandler(idgen.Component()))
	router.RegisterLocal("recommend", services.DefaultRecommendHandler())
	router.RegisterLocal("save", services.NoopHandler())
	router.RegisterLocal("export", services.NoopHandler())

	if seedPath != "" {
		seed, err := services.LoadSeedFile(seedPath)
		if err != nil {
			slog.Error("load collaborator seed", "path", seedPath, "error", err)
			os.Exit(1)
		}
		if err := services.NewAdmin(db).ApplySeed(ctx, seed); err != nil {
			slog.Error("apply collaborator seed", "error", err)
			os.Exit(1)
		}
	}
	if err := router.Reload(ctx, db); err != nil {
		slog.Error("load collaborator routes", "error", err)
		os.Exit(1)
	}
	go router.Watch(ctx, db, 5*time.Second)

	// Shared Chromium. HEADLESS=1 skips the browser entirely: sessions
	// run without a live preview, which is enough for the HTTP/MCP API.
	var factory editor.SurfaceFactory
	if !headless {
		manager := canvas.NewManager(canvas.Config{
			RemoteURL: browserURL,
			Logger:    logger,
		})
		if _, err := manager.Start(ctx); err != nil {
			slog.Error("start browser", "error", err)
			os.Exit(1)
		}
		defer manager.Close()

		factory = func(ctx context.Context) (editor.Surfacer, error) {
			page, err := manager.NewPage()
			if err != nil {
				return nil, err
			}
			surface, err := canvas.NewSurface(ctx, page, logger)
			if err != nil {
				return nil, err
			}
			return surface, nil
		}
	}

	svc := editor.New(store.NewStore(db), services.NewCollaborators(router, logger), factory, editor.Config{
		HistoryCap:     envInt("HISTORY_CAP", 0),
		SessionTTL:     envDuration("SESSION_TTL", 0),
		ViewportWidth:  envInt("VIEWPORT_WIDTH", 0),
		ViewportHeight: envInt("VIEWPORT_HEIGHT", 0),
		Logger:         logger,
	})
	svc.Start(ctx)
	defer svc.Close()

	events.LogEvent(ctx, observability.BusinessEvent{
		EventType:   "service_start",
		ServiceName: "atelier",
		Action:      "start",
		Success:     true,
	})

	// MCP stdio mode: the process is the transport; no HTTP listener.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "atelier",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio serving")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// HTTP router. The edge stack reloads its maintenance flag and rate
	// limit rules from the database while running.
	r := chi.NewRouter()
	stack, mm := shield.EdgeStack(db)
	mm.StartReloader(ctx.Done())
	for _, mw := range stack {
		r.Use(mw)
	}
	r.Use(requestMetrics(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api", svc.Routes())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "headless", headless)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// requestMetrics records per-request duration as a timeseries metric.
// WebSocket feeds are skipped: their "duration" is the connection lifetime.
func requestMetrics(metrics *observability.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			next.ServeHTTP(w, r)
			metrics.Record(&observability.Metric{
				Name:      "http_request_ms",
				Timestamp: start,
				Value:     float64(time.Since(start).Milliseconds()),
				Labels:    map[string]string{"method": r.Method},
				Unit:      "milliseconds",
			})
		})
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}
