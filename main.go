package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docpipe_backend/bootstrap"
	"docpipe_backend/config"
	"docpipe_backend/middleware"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// fine in containers where env comes from the runtime
		log.Println("no .env file loaded")
	}
	logging.Init()

	cfg := config.LoadConfig()
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logging.Logger.Error("fail bootstrapping app", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// workers consume the same queue the handlers enqueue on
	go app.WorkerPool.Run(ctx)

	// mirror document events into the in-memory upload tracker
	go func() {
		eventChan, err := app.Infrastructure.EventPublisher.SubscribeDocumentEvents(ctx)
		if err != nil {
			logging.Logger.Error("fail subscribing upload tracker", "error", err)
			return
		}
		app.Services.UploadTracker.Consume(ctx, eventChan)
	}()
	go app.Services.UploadTracker.RunSweeper(ctx, 10*time.Minute, time.Hour)

	server := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxFileSize),
	})
	server.Use(middleware.Logger())
	server.Use(middleware.CORS())

	routes.RegisterHealthRoutes(server, app.Handlers.HealthHandler)
	routes.RegisterDocumentRoutes(server, cfg, app.Handlers.DocHandler)
	routes.SetupWebSocketRoutes(server, app.Handlers.WSHandler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logging.Logger.Info("shutting down")
		cancel()
		if err := server.Shutdown(); err != nil {
			logging.Logger.Error("fail shutting down server", "error", err)
		}
		if err := app.Shutdown(); err != nil {
			logging.Logger.Error("fail shutting down app", "error", err)
		}
	}()

	port := cfg.HttpPort
	if port == "" {
		port = "3000"
	}
	logging.Logger.Info("Server running", "port", port)
	if err := server.Listen(":" + port); err != nil {
		logging.Logger.Error("server stopped", "error", err)
	}
}
