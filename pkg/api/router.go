package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/bikeiot/pkg/api/handlers"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/metrics"
	"github.com/urmzd/bikeiot/pkg/protocol/validator"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	validator  *validator.Validator
}

// NewRouter creates a new API router. A nil validator selects the
// default protocol rules.
func NewRouter(controller device.Controller, subscriber device.EventSubscriber, v *validator.Validator) *Router {
	gin.SetMode(gin.ReleaseMode)
	metrics.Register()

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		validator:  v,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Prometheus scrape endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check at root
	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		// Health
		v1.GET("/health", healthHandler.Health)

		// Events
		eventsHandler := handlers.NewEventsHandler(r.subscriber)
		v1.GET("/events", eventsHandler.Events)

		// Devices
		devicesHandler := handlers.NewDevicesHandler(r.controller)
		controlHandler := handlers.NewControlHandler(r.controller)
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.POST("", devicesHandler.RegisterDevice)
			devices.GET("/:id", devicesHandler.GetDevice)
			devices.PATCH("/:id", devicesHandler.RenameDevice)
			devices.DELETE("/:id", devicesHandler.RemoveDevice)

			// Telemetry
			devices.GET("/:id/telemetry", devicesHandler.LatestTelemetry)
			devices.GET("/:id/telemetry/history", devicesHandler.TelemetryHistory)

			// Commands
			devices.GET("/:id/commands", controlHandler.ListCommands)
			devices.POST("/:id/commands", controlHandler.SendCommand)
			devices.POST("/:id/lock", controlHandler.Lock)
			devices.POST("/:id/unlock", controlHandler.Unlock)
			devices.POST("/:id/battery_unlock", controlHandler.BatteryUnlock)
		}

		v1.GET("/commands/:chain_id", controlHandler.GetCommand)

		// Packet tools
		packetsHandler := handlers.NewPacketsHandler(r.validator)
		packets := v1.Group("/packets")
		{
			packets.POST("/validate", packetsHandler.Validate)
			packets.POST("/convert", packetsHandler.Convert)
		}
	}
}

// Handler returns the router as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}
