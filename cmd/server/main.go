// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/escpos"
	"print-bridge/internal/handler"
	"print-bridge/internal/routes"
	"print-bridge/internal/service"
	"print-bridge/internal/spooler"
	"print-bridge/internal/utils"
)

// Application represents the print bridge process: one loopback HTTP
// server in front of the command builder and the platform dispatcher.
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	printService *service.PrintService
	events       *handler.EventBus
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "print-bridge")
	serviceLogger.LogServiceStart(cfg.App.Version)

	if !cfg.IsProduction() {
		logger.Warn("Running in non-production environment",
			zap.String("environment", cfg.App.Environment),
		)
	}

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.initializeServices()

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeServices wires the dispatcher, the builder and the service
func (app *Application) initializeServices() {
	dispatcher := spooler.New(spooler.Options{
		DispatchTimeout: app.config.Printing.DispatchTimeout,
		TempDir:         app.config.Printing.TempDir,
	}, app.logger)

	raster := escpos.NewRasterEncoder(app.config.Printing.MaxImageWidth)
	builder := escpos.NewBuilder(raster, app.logger)

	app.printService = service.NewPrintService(builder, dispatcher, app.config, app.logger)

	app.events = handler.NewEventBus(app.logger)
	go app.events.Start()

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(app.config, app.logger, app.printService, app.events)
	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "print-bridge")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()
	return nil
}
