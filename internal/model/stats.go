package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// TourStats is one difficulty group of the tour statistics.
// ID is the upper-cased difficulty.
type TourStats struct {
	ID         string  `bson:"_id" json:"_id"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRatings int     `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// MonthlyPlan lists the tours starting in a calendar month (1-12).
type MonthlyPlan struct {
	Month           int      `bson:"month" json:"month"`
	NumToursOfMonth int      `bson:"numToursOfMonth" json:"numToursOfMonth"`
	Tours           []string `bson:"tours" json:"tours"`
}

// TourDistance is a tour name with its distance from a point.
type TourDistance struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Distance float64            `bson:"distance" json:"distance"`
}
