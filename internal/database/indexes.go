package database

import (
	"context"
	"fmt"

	"github.com/deppfellow/tours/internal/model"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the indexes every collection needs, keyed by collection.
//
// The 2dsphere index on startLocation is required by $geoWithin queries on
// large collections and by $geoNear in all cases.
var Indexes = map[string][]mongo.IndexModel{
	model.ToursCollection: {
		{
			Keys:    bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}},
			Options: options.Index().SetName("price_ratings"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "startLocation", Value: "2dsphere"}},
			Options: options.Index().SetName("start_location_2dsphere"),
		},
	},
	model.ReviewsCollection: {
		{
			Keys:    bson.D{{Key: "tour", Value: 1}},
			Options: options.Index().SetName("tour"),
		},
	},
}

// EnsureIndexes creates any missing index from Indexes. Existing indexes
// with the same definition are left alone.
func (db *Database) EnsureIndexes(ctx context.Context, logger *zerolog.Logger) error {
	for collection, models := range Indexes {
		names, err := db.DB.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("creating indexes on %s: %w", collection, err)
		}

		logger.Info().
			Str("collection", collection).
			Strs("indexes", names).
			Msg("indexes up to date")
	}

	return nil
}
