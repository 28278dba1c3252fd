// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/handler"
	"print-bridge/internal/middleware"
	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	printService *service.PrintService
	events       *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, printService *service.PrintService, events *handler.EventBus) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		printService: printService,
		events:       events,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsDebugEnabled() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	bridgeHandler := handler.NewBridgeHandler(r.printService, r.events, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.events, r.logger)

	router.GET("/status", bridgeHandler.Status)
	router.GET("/health", bridgeHandler.Status)
	router.GET("/printers", bridgeHandler.ListPrinters)
	router.POST("/print", bridgeHandler.Print)
	router.POST("/print-raw", bridgeHandler.PrintRaw)
	router.POST("/cash-drawer", bridgeHandler.OpenDrawer)

	router.GET("/ws/events", wsHandler.HandleEvents)

	r.logger.Info("All routes configured successfully")
}
