package repository

import (
	"time"

	"github.com/deppfellow/tours/internal/model"
	"github.com/deppfellow/tours/internal/pipeline"
	"go.mongodb.org/mongo-driver/bson"
)

// StatsMinRating is the rating a tour needs to be counted in the stats.
const StatsMinRating = 4.5

// TourStatsPipeline groups well-rated tours by upper-cased difficulty and
// sorts the groups by average price, cheapest first.
func TourStatsPipeline() pipeline.Pipeline {
	return pipeline.New(
		pipeline.Match{Filter: bson.D{
			{Key: "ratingsAverage", Value: bson.D{{Key: "$gte", Value: StatsMinRating}}},
		}},
		pipeline.Group{
			ID: bson.D{{Key: "$toUpper", Value: "$difficulty"}},
			Accumulators: []pipeline.Accumulator{
				{Field: "numTours", Operator: "$sum", Expression: 1},
				{Field: "numRatings", Operator: "$sum", Expression: "$ratingsQuantity"},
				{Field: "avgRating", Operator: "$avg", Expression: "$ratingsAverage"},
				{Field: "avgPrice", Operator: "$avg", Expression: "$price"},
				{Field: "minPrice", Operator: "$min", Expression: "$price"},
				{Field: "maxPrice", Operator: "$max", Expression: "$price"},
			},
		},
		pipeline.Sort{Keys: bson.D{{Key: "avgPrice", Value: 1}}},
	)
}

// MonthlyPlanPipeline counts tour starts per month of year, busiest month
// first. Start dates between midnight UTC of Jan 1 and midnight UTC of
// Dec 31 are included. When valid is false no start date matches and the
// pipeline returns nothing.
func MonthlyPlanPipeline(year int, valid bool) pipeline.Pipeline {
	window := pipeline.Match{Filter: bson.D{
		{Key: "startDates", Value: bson.D{{Key: "$in", Value: bson.A{}}}},
	}}
	if valid {
		window = pipeline.Match{Filter: bson.D{
			{Key: "startDates", Value: bson.D{
				{Key: "$gte", Value: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)},
				{Key: "$lte", Value: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)},
			}},
		}}
	}

	return pipeline.New(
		pipeline.Unwind{Path: "$startDates"},
		window,
		pipeline.Group{
			ID: bson.D{{Key: "$month", Value: "$startDates"}},
			Accumulators: []pipeline.Accumulator{
				{Field: "numToursOfMonth", Operator: "$sum", Expression: 1},
				{Field: "tours", Operator: "$push", Expression: "$name"},
			},
		},
		pipeline.AddFields{Fields: bson.D{{Key: "month", Value: "$_id"}}},
		pipeline.Project{Fields: bson.D{{Key: "_id", Value: 0}}},
		pipeline.Sort{Keys: bson.D{{Key: "numToursOfMonth", Value: -1}}},
		pipeline.Limit{N: 12},
	)
}

// WithinFilter matches tours whose start location lies inside the spherical
// cap around center. radius is in radians.
func WithinFilter(center model.LatLng, radius float64) bson.D {
	return bson.D{
		{Key: "startLocation", Value: bson.D{
			{Key: "$geoWithin", Value: bson.D{
				{Key: "$centerSphere", Value: bson.A{bson.A{center.Lng, center.Lat}, radius}},
			}},
		}},
	}
}

// DistancesPipeline lists every tour with its distance from center, nearest
// first. multiplier converts meters into the wanted unit.
func DistancesPipeline(center model.LatLng, multiplier float64) pipeline.Pipeline {
	return pipeline.New(
		pipeline.GeoNear{
			Near:               pipeline.Point{Longitude: center.Lng, Latitude: center.Lat},
			DistanceField:      "distance",
			DistanceMultiplier: multiplier,
			Spherical:          true,
		},
		pipeline.Project{Fields: bson.D{
			{Key: "distance", Value: 1},
			{Key: "name", Value: 1},
		}},
	)
}
