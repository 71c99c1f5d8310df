package router

import (
	"github.com/deppfellow/tours/internal/handler"
	"github.com/deppfellow/tours/internal/middleware"
	"github.com/labstack/echo/v4"
)

// registerTourRoutes mounts /tours. Fixed paths are registered before /:id.
// Writes need an admin or lead guide; guides may also read the monthly plan.
func registerTourRoutes(r *echo.Group, h *handler.TourHandler, auth *middleware.AuthMiddleware) {
	canWrite := auth.RequireRole(middleware.RoleAdmin, middleware.RoleLeadGuide)
	canPlan := auth.RequireRole(middleware.RoleAdmin, middleware.RoleLeadGuide, middleware.RoleGuide)

	tours := r.Group("/tours")

	tours.GET("/top-5-cheap", h.GetAllTours, h.AliasTopTours)
	tours.GET("/tour-stats", h.GetTourStats)
	tours.GET("/monthly-plan/:year", h.GetMonthlyPlan, auth.RequireAuth, canPlan)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.GetToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", h.GetDistances)

	tours.GET("", h.GetAllTours)
	tours.POST("", h.CreateTour, auth.RequireAuth, canWrite)

	tours.GET("/:id", h.GetTour)
	tours.PATCH("/:id", h.UpdateTour, auth.RequireAuth, canWrite)
	tours.DELETE("/:id", h.DeleteTour, auth.RequireAuth, canWrite)
}
