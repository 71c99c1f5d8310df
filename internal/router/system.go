package router

import (
	"github.com/deppfellow/tours/internal/handler"
	"github.com/labstack/echo/v4"
)

// TourImagesPath is where written tour images are served from.
const TourImagesPath = "/img/tours"

// registerSystemRoutes registers the routes outside the API: status, docs
// and static files.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, imagesDir string) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", handler.StaticDir)
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)

	r.Static(TourImagesPath, imagesDir)
}
