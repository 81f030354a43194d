// Command server runs the Netatmo weather dashboard backend: the OAuth
// authorization flow, the token lifecycle manager, the weather data gateway,
// and an MCP tool surface for station data.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/appleboy/graceful"
	sloggin "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"

	"github.com/go-training/netatmo-dashboard/pkg/core"
	"github.com/go-training/netatmo-dashboard/pkg/csrf"
	"github.com/go-training/netatmo-dashboard/pkg/handler"
	"github.com/go-training/netatmo-dashboard/pkg/logger"
	"github.com/go-training/netatmo-dashboard/pkg/netatmo"
	"github.com/go-training/netatmo-dashboard/pkg/operation"
	"github.com/go-training/netatmo-dashboard/pkg/store"
	"github.com/go-training/netatmo-dashboard/pkg/token"
)

func main() {
	var addr string
	var logLevel string
	var storeType string
	var redisAddr string
	var redisPassword string
	var redisDB int
	flag.StringVar(&addr, "addr", ":8080", "address to listen on")
	flag.StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR). Defaults to DEBUG in development, INFO in production")
	flag.StringVar(&storeType, "store", "cookie", "Session store type: cookie, memory or redis")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address (only used when store=redis)")
	flag.StringVar(&redisPassword, "redis-password", "", "Redis password (only used when store=redis)")
	flag.IntVar(&redisDB, "redis-db", 0, "Redis database (only used when store=redis)")
	flag.Parse()

	// Initialize logger with the specified log level
	logger.NewWithLevel(logLevel)

	production := os.Getenv("ENV") == "production"

	cfg, err := netatmo.ConfigFromEnv()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	storeConfig := store.Config{
		Type:   store.ParseStoreType(storeType),
		Secure: production,
		Redis: store.RedisOptions{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
	}
	sessions, err := store.NewStore(storeConfig)
	if err != nil {
		slog.Error("Failed to create session store", "type", storeType, "error", err)
		os.Exit(1)
	}
	switch storeConfig.Type {
	case store.StoreTypeCookie:
		slog.Info("Using cookie session store")
	case store.StoreTypeMemory:
		slog.Info("Using in-memory session store")
	case store.StoreTypeRedis:
		slog.Info("Using Redis session store", "addr", redisAddr, "db", redisDB)
	}
	if redisStore, ok := sessions.(*store.RedisStore); ok {
		defer redisStore.Close()
	}

	client := netatmo.NewClient(cfg)
	manager := token.NewManager(sessions, client)
	guard := csrf.NewGuard(sessions)

	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(sloggin.SetLogger())
	router.Use(gin.Recovery())
	router.Use(handler.RequestID())

	h := handler.New(cfg, client, manager, guard, sessions)
	h.RegisterRoutes(router)

	// MCP surface: clients pass their own Netatmo bearer token in the
	// Authorization header, injected into the tool context per request.
	mcpServer := server.NewMCPServer(
		"netatmo-dashboard",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)
	operation.RegisterWeatherTool(mcpServer, client)
	streamable := server.NewStreamableHTTPServer(mcpServer,
		server.WithHeartbeatInterval(30*time.Second),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			ctx = core.AuthFromRequest(ctx, r)
			return core.WithRequestID(ctx)
		}),
	)
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		router.Handle(method, "/mcp", gin.WrapH(streamable))
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(context.Context) error {
		slog.Info("Dashboard server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		slog.Info("Shutdown signal received, shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	<-m.Done()
	slog.Info("Server shutdown gracefully")
}
