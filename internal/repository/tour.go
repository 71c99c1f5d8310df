package repository

import (
	"context"

	"github.com/deppfellow/tours/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

// PopulateReviews joins a tour's reviews.
var PopulateReviews = Populate{
	Path:         "reviews",
	From:         model.ReviewsCollection,
	ForeignField: "tour",
}

// TourRepository stores tours and runs the tour aggregations.
type TourRepository struct {
	*Store[model.Tour]
}

func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{Store: NewStore[model.Tour](db.Collection(model.ToursCollection))}
}

func (r *TourRepository) Stats(ctx context.Context) ([]model.TourStats, error) {
	stats := make([]model.TourStats, 0)
	if err := r.Aggregate(ctx, TourStatsPipeline(), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *TourRepository) MonthlyPlan(ctx context.Context, year int, valid bool) ([]model.MonthlyPlan, error) {
	plan := make([]model.MonthlyPlan, 0)
	if err := r.Aggregate(ctx, MonthlyPlanPipeline(year, valid), &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *TourRepository) Within(ctx context.Context, center model.LatLng, radius float64) ([]model.Tour, error) {
	return r.Find(ctx, ListQuery{Filter: WithinFilter(center, radius)})
}

func (r *TourRepository) Distances(ctx context.Context, center model.LatLng, multiplier float64) ([]model.TourDistance, error) {
	distances := make([]model.TourDistance, 0)
	if err := r.Aggregate(ctx, DistancesPipeline(center, multiplier), &distances); err != nil {
		return nil, err
	}
	return distances, nil
}
