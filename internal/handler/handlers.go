// Package handler is the HTTP layer. Handlers bind and validate requests,
// call the services and write the JSON envelopes of the tours API.
package handler

import (
	"github.com/deppfellow/tours/internal/server"
	"github.com/deppfellow/tours/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Tour    *TourHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Tour:    NewTourHandler(s, services.Tours, services.Images),
	}
}
