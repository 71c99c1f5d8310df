// Package model holds the documents stored by the tours API and the rows
// returned by its analytics queries.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	ToursCollection   = "tours"
	ReviewsCollection = "reviews"
)

// Difficulty levels a tour can have.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// MaxTourImages is the number of gallery images a tour can carry.
const MaxTourImages = 3

// Location is a GeoJSON point with a description. Coordinates are
// [longitude, latitude].
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Day         int       `bson:"day,omitempty" json:"day,omitempty"`
}

// Tour is a bookable tour.
//
// Fields left out of a projection must stay out of the JSON, so every
// field is omitempty and createdAt is a pointer.
//
// startLocation carries a 2dsphere index; imageCover is a single filename
// and images holds at most MaxTourImages filenames.
type Tour struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name            string             `bson:"name" json:"name,omitempty"`
	Duration        int                `bson:"duration,omitempty" json:"duration,omitempty"`
	MaxGroupSize    int                `bson:"maxGroupSize,omitempty" json:"maxGroupSize,omitempty"`
	Difficulty      string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	RatingsAverage  float64            `bson:"ratingsAverage" json:"ratingsAverage,omitempty"`
	RatingsQuantity int                `bson:"ratingsQuantity" json:"ratingsQuantity,omitempty"`
	Price           float64            `bson:"price" json:"price,omitempty"`
	PriceDiscount   float64            `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string             `bson:"summary,omitempty" json:"summary,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string             `bson:"imageCover,omitempty" json:"imageCover,omitempty"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt       *time.Time         `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	StartDates      []time.Time        `bson:"startDates,omitempty" json:"startDates,omitempty"`
	StartLocation   *Location          `bson:"startLocation,omitempty" json:"startLocation,omitempty"`
	Locations       []Location         `bson:"locations,omitempty" json:"locations,omitempty"`

	// Reviews is only filled when the tour is loaded with its reviews.
	Reviews []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`
}

// Review is a user review of a tour. The API only reads reviews, to show
// them with a single tour.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Review    string             `bson:"review" json:"review"`
	Rating    float64            `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour"`
	User      primitive.ObjectID `bson:"user" json:"user"`
}
