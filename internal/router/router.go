// Package router builds the echo instance: global middleware in order, the
// error handler, the JSON serializer and every route.
package router

import (
	"github.com/deppfellow/tours/internal/handler"
	"github.com/deppfellow/tours/internal/middleware"
	"github.com/deppfellow/tours/internal/server"
	"github.com/deppfellow/tours/internal/service"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.JSONSerializer = JSONSerializer{}
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.BodyLimit(),
	)

	registerSystemRoutes(router, h, services.Images.Dir())

	api := router.Group("/api", middlewares.RateLimit.Limit())
	registerTourRoutes(api.Group("/v1"), h.Tour, middlewares.Auth)

	return router
}
