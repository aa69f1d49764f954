// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rutero/internal/http/handlers"
	"rutero/internal/http/middleware"
	"rutero/internal/metrics"
	"rutero/internal/modules/route"
	"rutero/internal/modules/stop"
)

func NewRouter(routeService *route.Service, stopService *stop.Service) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging(), middleware.Metrics())

	routeHandler := handlers.NewRouteHandler(routeService)
	r.POST("/api/routes", routeHandler.Plan)
	r.GET("/api/routes", routeHandler.List)
	r.GET("/api/routes/:id", routeHandler.Get)
	r.GET("/api/routes/:id/loadplan", routeHandler.LoadPlan)
	r.POST("/api/routes/:id/start", routeHandler.Start)
	r.POST("/api/routes/:id/complete", routeHandler.Complete)
	r.POST("/api/routes/:id/cancel", routeHandler.Cancel)
	r.POST("/api/routes/:id/stops/:stopID/deliver", routeHandler.Deliver)

	stopHandler := handlers.NewStopHandler(stopService)
	r.POST("/api/stops", stopHandler.Create)
	r.GET("/api/stops", stopHandler.ListPending)
	r.GET("/api/stops/:id", stopHandler.Get)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return r
}
