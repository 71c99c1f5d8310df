// Package pipeline describes MongoDB aggregation pipelines as ordered,
// typed stage values.
//
// A Pipeline is built once from stage structs and rendered to the driver's
// mongo.Pipeline only when it is executed, so callers and tests can inspect
// the exact values (filters, radii, multipliers) handed to the database.
package pipeline

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrGeoNearNotFirst is returned by Validate when a $geoNear stage appears
// anywhere but at the start of the pipeline.
var ErrGeoNearNotFirst = errors.New("$geoNear is only valid as the first stage of a pipeline")

// Stage is a single aggregation stage.
type Stage interface {
	// Name is the stage operator, e.g. "$match".
	Name() string
	// Spec is the stage body rendered under Name.
	Spec() interface{}
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// New returns a pipeline made of stages.
func New(stages ...Stage) Pipeline {
	return Pipeline(stages)
}

// Validate checks ordering rules the server would otherwise reject at
// execution time.
func (p Pipeline) Validate() error {
	for i, stage := range p {
		if _, ok := stage.(GeoNear); ok && i != 0 {
			return fmt.Errorf("stage %d: %w", i, ErrGeoNearNotFirst)
		}
	}
	return nil
}

// Build renders the pipeline for the driver.
func (p Pipeline) Build() (mongo.Pipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := make(mongo.Pipeline, 0, len(p))
	for _, stage := range p {
		out = append(out, bson.D{{Key: stage.Name(), Value: stage.Spec()}})
	}
	return out, nil
}

// Find returns the first stage of type S.
func Find[S Stage](p Pipeline) (S, bool) {
	for _, stage := range p {
		if s, ok := stage.(S); ok {
			return s, true
		}
	}
	var zero S
	return zero, false
}
