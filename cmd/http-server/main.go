package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-api/internal/config"
	"inventory-api/internal/database"
	handler "inventory-api/internal/handler/http"
	"inventory-api/internal/logger"
	middleware_http "inventory-api/internal/middleware/http"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/tracer"
	"inventory-api/internal/upload"
	"inventory-api/internal/version"
)

func main() {
	globalCtx := context.Background()
	log := logger.Instance()
	cfg := config.Instance()

	log.Info(cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	// Initialize telemetry (OpenTelemetry + Pyroscope)
	shutdown, _ := tracer.Instance(globalCtx)
	if shutdown != nil {
		defer shutdown()
	}

	// Connect to MongoDB
	db, err := database.Instance(globalCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Error("Failed to connect to MongoDB", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Image store
	images, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Error("Failed to prepare upload directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wiring
	productRepo := repository.NewMongoProductRepository(db.Database)
	userRepo := repository.NewMongoUserRepository(db.Database)

	productService := service.NewProductService(productRepo, images)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	healthService := service.NewHealthService(db.Client)

	productHandler := handler.NewProductHandler(productService, images)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(healthService)

	router := handler.NewRouter(productHandler, authHandler, healthHandler, authService, images.Dir())

	// HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      middleware_http.Trace(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(globalCtx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", slog.String("error", err.Error()))
	}
}
