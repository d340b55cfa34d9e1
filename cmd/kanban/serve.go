package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kandev/kanban/internal/auth"
	"github.com/kandev/kanban/internal/board/handlers"
	"github.com/kandev/kanban/internal/board/service"
	"github.com/kandev/kanban/internal/board/store"
	"github.com/kandev/kanban/internal/common/httpmw"
	"github.com/kandev/kanban/internal/common/tracing"
	"github.com/kandev/kanban/internal/events"
	gateways "github.com/kandev/kanban/internal/gateway/websocket"
	"github.com/kandev/kanban/internal/roster"
)

const serverName = "kanban"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	log.Info("Starting kanban server...")

	if err := tracing.Init(ctx, cfg.Tracing); err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}

	var cleanups []func() error
	defer func() { runCleanups(cleanups, log) }()

	backend, backendCleanups, err := provideBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, backendCleanups...)

	provided, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, busCleanup)

	r, err := roster.Load(cfg.Roster.File)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	verifier, err := auth.NewVerifier(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}
	defer verifier.Close()

	registry := store.NewRegistry(backend, store.Options{HistoryDepth: cfg.Store.HistoryDepth, Logger: log})
	svc := service.NewService(registry, provided.Bus, r, log)

	gateway := gateways.NewGateway(cfg.Server.AllowOrigins, log)
	if err := gateway.Start(ctx, provided.Bus); err != nil {
		return fmt.Errorf("failed to start websocket gateway: %w", err)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.Server.AllowOrigins))
	router.Use(httpmw.RequestID())
	router.Use(httpmw.OtelTracing(serverName))
	router.Use(httpmw.RequestLogger(log, serverName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   serverName,
			"event_bus": provided.Bus.IsConnected(),
		})
	})

	api := router.Group("/api/v1", auth.Middleware(verifier, cfg.Auth))
	handlers.RegisterRoutes(api, svc, log)
	gateway.SetupRoutes(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening",
			zap.String("addr", server.Addr),
			zap.String("http", "/api/v1"),
			zap.String("websocket", "/api/v1/ws"))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down kanban server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracing shutdown error", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	log.Info("Kanban server stopped")
	return err
}

// corsMiddleware allows the board front end to call the API and open the
// WebSocket from another origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}
