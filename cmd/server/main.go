package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/api"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/config"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/database"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitLogger(logger.LoggerConfig{
		LogLevel:     cfg.LogLevel,
		LogFile:      cfg.LogFile,
		LogFileSize:  cfg.LogFileSize,
		LogFileCount: cfg.LogFileCount,
		LogCompress:  cfg.LogCompress,
	})
	logger.Log.Infof("Starting CRM table service on port %s", cfg.Port)

	db, err := database.Open(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Log.Fatalf("Failed to initialize schema: %v", err)
	}

	var store source.Store
	switch cfg.RowSource {
	case "sql":
		logger.Log.Info("Reading entity rows from the database")
		store = source.NewSQLStore(db)
	default:
		logger.Log.Infof("Reading entity rows from %s", cfg.CRMAPIBaseURL)
		store = source.NewRESTStore(cfg.CRMAPIBaseURL, source.NewLoggingClient(nil, cfg.UpstreamTimeout, logger.Log))
	}

	server := api.NewServer(store, db, cfg.SessionTTL)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go server.SweepSessions(ctx, time.Minute)

	access := logger.Log.Writer()
	defer access.Close()

	handler := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", api.HeaderUser, api.HeaderUserID, api.HeaderUsername}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
	)(server.Router())
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(logger.Log))(handler)
	handler = handlers.LoggingHandler(access, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited")
}
