package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pixelplay/notify-api/internal/middleware"
	"github.com/pixelplay/notify-api/internal/realtime"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine        *gin.Engine
	notificationH Handler
	healthH       Handler
	gateway       *realtime.Gateway
}

func NewRouter(notificationH, healthH Handler, gateway *realtime.Gateway, config RouterConfig) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:        engine,
		notificationH: notificationH,
		healthH:       healthH,
		gateway:       gateway,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.engine.GET("/ws", r.gateway.HandleConnection)

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)
	r.notificationH.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
