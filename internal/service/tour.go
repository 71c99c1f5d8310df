package service

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/deppfellow/tours/internal/lib/job"
	"github.com/deppfellow/tours/internal/model"
	"github.com/deppfellow/tours/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

// LatLngMessage is returned when a geo route gets no usable "lat,lng".
const LatLngMessage = "Please provide latitude and longitude in the format lat,lng."

// TourStore is the storage the tour service needs.
type TourStore interface {
	Find(ctx context.Context, q repository.ListQuery) ([]model.Tour, error)
	FindByID(ctx context.Context, id string, populate ...repository.Populate) (*model.Tour, error)
	Insert(ctx context.Context, tour *model.Tour) (*model.Tour, error)
	UpdateByID(ctx context.Context, id string, set bson.M) (*model.Tour, error)
	DeleteByID(ctx context.Context, id string) (*model.Tour, error)
	Stats(ctx context.Context) ([]model.TourStats, error)
	MonthlyPlan(ctx context.Context, year int, valid bool) ([]model.MonthlyPlan, error)
	Within(ctx context.Context, center model.LatLng, radius float64) ([]model.Tour, error)
	Distances(ctx context.Context, center model.LatLng, multiplier float64) ([]model.TourDistance, error)
}

// TourService holds the tour operations behind the HTTP routes.
type TourService struct {
	store TourStore
	jobs  job.Enqueuer
	now   func() time.Time
}

func NewTourService(store TourStore, jobs job.Enqueuer) *TourService {
	return &TourService{
		store: store,
		jobs:  jobs,
		now:   time.Now,
	}
}

// List returns the tours matching the list query parameters.
func (s *TourService) List(ctx context.Context, params url.Values) ([]model.Tour, error) {
	return s.store.Find(ctx, repository.ParseListQuery(params))
}

// Get returns one tour with the populated relations.
func (s *TourService) Get(ctx context.Context, id string, populate ...repository.Populate) (*model.Tour, error) {
	return s.store.FindByID(ctx, id, populate...)
}

// Create stores a new tour, stamping createdAt.
func (s *TourService) Create(ctx context.Context, tour *model.Tour) (*model.Tour, error) {
	if tour.CreatedAt == nil || tour.CreatedAt.IsZero() {
		now := s.now().UTC()
		tour.CreatedAt = &now
	}
	return s.store.Insert(ctx, tour)
}

// Update sets changes on a tour and returns the updated tour. Without
// changes the current tour is returned.
func (s *TourService) Update(ctx context.Context, id string, changes bson.M) (*model.Tour, error) {
	if len(changes) == 0 {
		return s.store.FindByID(ctx, id)
	}
	return s.store.UpdateByID(ctx, id, changes)
}

// Delete removes a tour and queues the removal of its image files. A
// failure to queue is logged; the tour stays deleted.
func (s *TourService) Delete(ctx context.Context, id string) (*model.Tour, error) {
	tour, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	files := tourFiles(tour)
	if len(files) == 0 || s.jobs == nil {
		return tour, nil
	}

	logger := zerolog.Ctx(ctx)

	task, err := job.NewDeleteTourImagesTask(id, files)
	if err != nil {
		logger.Error().Err(err).Str("tour_id", id).Msg("failed to build tour images cleanup task")
		return tour, nil
	}

	if _, err := s.jobs.EnqueueContext(ctx, task); err != nil {
		logger.Error().Err(err).Str("tour_id", id).Msg("failed to enqueue tour images cleanup")
		return tour, nil
	}

	logger.Debug().Str("tour_id", id).Int("files", len(files)).Msg("enqueued tour images cleanup")
	return tour, nil
}

func tourFiles(tour *model.Tour) []string {
	var files []string
	if tour.ImageCover != "" {
		files = append(files, tour.ImageCover)
	}
	for _, img := range tour.Images {
		if img != "" {
			files = append(files, img)
		}
	}
	return files
}

// Stats groups tours rated 4.5 or more by difficulty.
func (s *TourService) Stats(ctx context.Context) ([]model.TourStats, error) {
	return s.store.Stats(ctx)
}

// MonthlyPlan counts tour starts per month of the given year. A year that
// is not a whole number gives an empty plan.
func (s *TourService) MonthlyPlan(ctx context.Context, yearParam string) ([]model.MonthlyPlan, error) {
	year, ok := parseYear(yearParam)
	return s.store.MonthlyPlan(ctx, year, ok)
}

// parseYear accepts any numeric spelling of a whole year, such as
// " 2021" or "2021.0".
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if year, err := strconv.Atoi(s); err == nil {
		return year, true
	}

	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Within returns tours starting within distance (in unit) of latlng.
func (s *TourService) Within(ctx context.Context, distanceParam, latlng, unitParam string) ([]model.Tour, error) {
	center, err := model.ParseLatLng(latlng)
	if err != nil {
		// Stop here; the query never runs without a center.
		return nil, errs.NewBadRequestError(LatLngMessage, true, nil, nil, nil)
	}

	distance, err := strconv.ParseFloat(distanceParam, 64)
	if err != nil || distance < 0 {
		return nil, errs.NewBadRequestError("Please provide the distance as a positive number.", true, nil, nil, nil)
	}

	radius := model.RadiusInRadians(distance, model.ParseUnit(unitParam))
	return s.store.Within(ctx, center, radius)
}

// Distances returns every tour with its distance from latlng in unit,
// nearest first.
func (s *TourService) Distances(ctx context.Context, latlng, unitParam string) ([]model.TourDistance, error) {
	center, err := model.ParseLatLng(latlng)
	if err != nil {
		// Stop here; the aggregation never runs without a center.
		return nil, errs.NewBadRequestError(LatLngMessage, true, nil, nil, nil)
	}

	multiplier := model.DistanceMultiplier(model.ParseUnit(unitParam))
	return s.store.Distances(ctx, center, multiplier)
}
