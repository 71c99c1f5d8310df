// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// data from handlers, applies the tour rules and calls the repositories.
package service

import (
	"github.com/deppfellow/tours/internal/lib/job"
	"github.com/deppfellow/tours/internal/repository"
	"github.com/deppfellow/tours/internal/server"
)

type Services struct {
	Auth   *AuthService
	Tours  *TourService
	Images *ImageService
	Job    *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var jobs job.Enqueuer
	if s.Job != nil {
		jobs = s.Job.Client
	}

	return &Services{
		Auth:   NewAuthService(s),
		Tours:  NewTourService(repos.Tours, jobs),
		Images: NewImageService(s.Config.Images),
		Job:    s.Job,
	}, nil
}
