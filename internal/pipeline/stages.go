package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Match filters documents.
type Match struct {
	Filter bson.D
}

func (Match) Name() string        { return "$match" }
func (s Match) Spec() interface{} { return s.Filter }

// Unwind emits one document per element of the array at Path ("$field").
type Unwind struct {
	Path string
}

func (Unwind) Name() string        { return "$unwind" }
func (s Unwind) Spec() interface{} { return s.Path }

// Accumulator is one computed field of a $group stage, e.g.
// {Field: "avgPrice", Operator: "$avg", Expression: "$price"}.
type Accumulator struct {
	Field      string
	Operator   string
	Expression interface{}
}

// Group groups documents by ID and computes Accumulators per group.
type Group struct {
	ID           interface{}
	Accumulators []Accumulator
}

func (Group) Name() string { return "$group" }

func (s Group) Spec() interface{} {
	spec := bson.D{{Key: "_id", Value: s.ID}}
	for _, acc := range s.Accumulators {
		spec = append(spec, bson.E{Key: acc.Field, Value: bson.D{{Key: acc.Operator, Value: acc.Expression}}})
	}
	return spec
}

// Sort orders documents; values are 1 (ascending) or -1 (descending).
type Sort struct {
	Keys bson.D
}

func (Sort) Name() string        { return "$sort" }
func (s Sort) Spec() interface{} { return s.Keys }

// AddFields adds or replaces fields.
type AddFields struct {
	Fields bson.D
}

func (AddFields) Name() string        { return "$addFields" }
func (s AddFields) Spec() interface{} { return s.Fields }

// Project includes (1) or excludes (0) fields.
type Project struct {
	Fields bson.D
}

func (Project) Name() string        { return "$project" }
func (s Project) Spec() interface{} { return s.Fields }

// Limit caps the number of documents.
type Limit struct {
	N int64
}

func (Limit) Name() string        { return "$limit" }
func (s Limit) Spec() interface{} { return s.N }

// Skip drops the first N documents.
type Skip struct {
	N int64
}

func (Skip) Name() string        { return "$skip" }
func (s Skip) Spec() interface{} { return s.N }

// Lookup joins documents of another collection whose ForeignField equals
// LocalField into the array As.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

func (Lookup) Name() string { return "$lookup" }

func (s Lookup) Spec() interface{} {
	return bson.D{
		{Key: "from", Value: s.From},
		{Key: "localField", Value: s.LocalField},
		{Key: "foreignField", Value: s.ForeignField},
		{Key: "as", Value: s.As},
	}
}

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Longitude float64
	Latitude  float64
}

func (p Point) document() bson.D {
	return bson.D{
		{Key: "type", Value: "Point"},
		{Key: "coordinates", Value: bson.A{p.Longitude, p.Latitude}},
	}
}

// GeoNear sorts documents by distance from Near and stores the distance
// (meters times DistanceMultiplier) in DistanceField. It needs a geospatial
// index and must be the first stage.
type GeoNear struct {
	Near               Point
	DistanceField      string
	DistanceMultiplier float64
	Spherical          bool
}

func (GeoNear) Name() string { return "$geoNear" }

func (s GeoNear) Spec() interface{} {
	spec := bson.D{
		{Key: "near", Value: s.Near.document()},
		{Key: "distanceField", Value: s.DistanceField},
	}
	if s.DistanceMultiplier != 0 {
		spec = append(spec, bson.E{Key: "distanceMultiplier", Value: s.DistanceMultiplier})
	}
	if s.Spherical {
		spec = append(spec, bson.E{Key: "spherical", Value: true})
	}
	return spec
}
