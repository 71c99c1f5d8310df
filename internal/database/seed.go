package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/deppfellow/tours/internal/model"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
)

// DecodeTours reads a JSON array of tours. Dates must be RFC 3339 strings;
// tours without createdAt get now.
func DecodeTours(r io.Reader, now time.Time) ([]model.Tour, error) {
	var tours []model.Tour
	if err := json.NewDecoder(r).Decode(&tours); err != nil {
		return nil, fmt.Errorf("decoding tours: %w", err)
	}

	for i := range tours {
		if tours[i].CreatedAt == nil || tours[i].CreatedAt.IsZero() {
			stamp := now
			tours[i].CreatedAt = &stamp
		}
	}

	return tours, nil
}

// ImportTours inserts tours and returns how many were written.
func (db *Database) ImportTours(ctx context.Context, tours []model.Tour) (int, error) {
	if len(tours) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(tours))
	for i := range tours {
		docs[i] = tours[i]
	}

	res, err := db.DB.Collection(model.ToursCollection).InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("inserting tours: %w", err)
	}

	return len(res.InsertedIDs), nil
}

// DeleteTours removes every tour and returns how many were deleted.
func (db *Database) DeleteTours(ctx context.Context) (int64, error) {
	res, err := db.DB.Collection(model.ToursCollection).DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("deleting tours: %w", err)
	}

	return res.DeletedCount, nil
}
