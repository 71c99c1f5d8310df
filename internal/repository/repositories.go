package repository

import (
	"github.com/deppfellow/tours/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Tours *TourRepository
}

// NewRepositories builds the repositories on the server's database.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Tours: NewTourRepository(s.DB.DB),
	}
}
