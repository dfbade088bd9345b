package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joetm/ckanext-feeds/internal/api"
	"github.com/joetm/ckanext-feeds/internal/auth"
	"github.com/joetm/ckanext-feeds/internal/config"
	"github.com/joetm/ckanext-feeds/internal/database"
	"github.com/joetm/ckanext-feeds/internal/feeds"
	"github.com/joetm/ckanext-feeds/internal/i18n"
	"github.com/joetm/ckanext-feeds/internal/logging"
	"github.com/joetm/ckanext-feeds/internal/metrics"
	"github.com/joetm/ckanext-feeds/internal/models"
	"github.com/joetm/ckanext-feeds/internal/scheduler"
	"github.com/joetm/ckanext-feeds/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting dashboard feed service")

	dbURL, err := database.BuildDatabaseURL()
	if err != nil {
		logger.Error("failed to build database URL", "error", err)
		os.Exit(1)
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL

	logger.Info("connecting to database")
	db, err := database.Connect(context.Background(), dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	activityRepo := database.NewActivityRepository(db)
	userRepo := database.NewUserRepository(db)

	if err := ensureBootstrapUser(context.Background(), userRepo, logger); err != nil {
		logger.Error("failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	// Feed rendering pipeline
	registry := feeds.NewRegistry(cfg.Site.URL, userRepo)
	templates := feeds.DefaultTemplates()
	if err := templates.Validate(registry); err != nil {
		logger.Error("invalid message template table", "error", err)
		os.Exit(1)
	}
	resolver := feeds.NewResolver(templates, registry, activityRepo)
	transformer := feeds.NewTransformer(resolver, cfg.Site.URL)
	translator := i18n.New()

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	activityHandler := api.NewActivityHandlers(activityRepo, logger)
	feedHandler := api.NewFeedHandler(activityRepo, transformer, translator, cfg.Site, cfg.Feed,
		collector, http.HandlerFunc(activityHandler.DashboardPage), logger)
	authHandler := api.NewAuthHandler(authConfig, userRepo, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"ckanext-feeds","status":"ready","version":"0.1.0"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	api.SetupRoutes(mux, feedHandler, activityHandler, authHandler, authConfig)

	retention := scheduler.NewRetentionScheduler(activityRepo, cfg.Feed.RetentionAge, logger)
	go retention.Start(context.Background())
	defer retention.Stop()

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("dashboard feed service started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// ensureBootstrapUser creates the admin account from BOOTSTRAP_USER and
// BOOTSTRAP_PASSWORD when it does not exist yet.
func ensureBootstrapUser(ctx context.Context, users *database.UserRepository, logger *slog.Logger) error {
	name := os.Getenv("BOOTSTRAP_USER")
	password := os.Getenv("BOOTSTRAP_PASSWORD")
	if name == "" || password == "" {
		return nil
	}

	if _, err := users.GetByName(ctx, name); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{Name: name}
	if err := users.Create(ctx, &user, hash); err != nil {
		return err
	}

	logger.Info("created bootstrap user", "name", name, "user_id", user.ID)
	return nil
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
