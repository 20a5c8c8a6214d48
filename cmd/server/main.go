package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/internal/auth"
	"github.com/cpatton716/collectors-catalog/internal/database"
	httphandlers "github.com/cpatton716/collectors-catalog/internal/handlers/http"
	"github.com/cpatton716/collectors-catalog/internal/handlers/ws"
	"github.com/cpatton716/collectors-catalog/internal/migrate"
	"github.com/cpatton716/collectors-catalog/internal/settlement"
)

func main() {
	// Load configurations
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080" // Default port if not specified
	}

	// Setup logger
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "debug" // Default log level if not specified
	}
	logLevel, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Error("Invalid log level: ", err)
	}
	log.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply migrations before accepting traffic
	if err := migrate.Up(ctx, cfg.DatabaseDSN()); err != nil {
		log.Fatal("Error applying migrations: ", err)
	}

	// Initialize database service
	db, err := database.New(ctx, cfg)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	authn := auth.New(cfg.Auth.SecretKey, cfg.Auth.CookieName)
	hub := ws.NewHub(cfg)

	engine := settlement.New(db, settlement.Options{
		MaxAttempts:  cfg.Settlement.MaxAttempts,
		RetryBackoff: cfg.Settlement.RetryBackoff,
		Notifier:     hub,
	})

	// Start periodic check for expired auctions
	go engine.RunExpiryLoop(ctx, cfg.Sweeper.Interval)

	router := httphandlers.NewRouter(cfg, db, engine, authn, hub)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Infof("Server started on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown: ", err)
	}
}
