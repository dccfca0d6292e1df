package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"khidma/internal/infra/config"
	"khidma/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Assign(c *gin.Context)
	Accept(c *gin.Context)
	Reject(c *gin.Context)
	Depart(c *gin.Context)
	Arrive(c *gin.Context)
	Start(c *gin.Context)
	Complete(c *gin.Context)
	Cancel(c *gin.Context)
	AddCharge(c *gin.Context)
	Get(c *gin.Context)
	Timeline(c *gin.Context)
	ListMine(c *gin.Context)
}

type ProviderHTTP interface {
	Earnings(c *gin.Context)
}

type Handlers struct {
	Booking            BookingHTTP
	Provider           ProviderHTTP
	IdentityMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.IdentityMiddleware != nil {
		router.Use(h.IdentityMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.GET("/bookings/:id/timeline", h.Booking.Timeline)
		api.POST("/bookings/:id/assign", h.Booking.Assign)
		api.POST("/bookings/:id/accept", h.Booking.Accept)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.POST("/bookings/:id/depart", h.Booking.Depart)
		api.POST("/bookings/:id/arrive", h.Booking.Arrive)
		api.POST("/bookings/:id/start", h.Booking.Start)
		api.POST("/bookings/:id/complete", h.Booking.Complete)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/charges", h.Booking.AddCharge)
		api.GET("/me/bookings", h.Booking.ListMine)
	}
	if h.Provider != nil {
		api.GET("/provider/earnings", h.Provider.Earnings)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
