package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"resultsdash/internal"
	"resultsdash/internal/config"
	"resultsdash/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	internal.DefaultLogger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	go appContainer.Sessions.RunJanitor(ctx, 5*time.Minute)

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			logger.Info("profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	if err := appContainer.App.Start(ctx); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped: %v", err)
	}
}
