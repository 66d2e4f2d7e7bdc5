package router

import (
	"net/http"

	"modelctl/app/handler"
	"modelctl/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	statusHandler  *handler.StatusHandler
	metricsHandler http.Handler
	token          string
}

// NewRouter creates a new Router; metricsHandler may be nil
func NewRouter(statusHandler *handler.StatusHandler, metricsHandler http.Handler, token string) *Router {
	return &Router{
		statusHandler:  statusHandler,
		metricsHandler: metricsHandler,
		token:          token,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	engine.GET("/healthz", r.statusHandler.Healthz)

	authed := engine.Group("/")
	authed.Use(middleware.AuthMiddleware(r.token))
	{
		authed.GET("/status", r.statusHandler.GetStatus)
		if r.metricsHandler != nil {
			authed.GET("/metrics", gin.WrapH(r.metricsHandler))
		}
	}
}
