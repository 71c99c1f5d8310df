// Package repository handles all interactions with the database.
//
// Store[T] is a generic collection wrapper used for the CRUD routes; tour
// specific aggregations live next to it and are built from pipeline stages
// by pure functions so their contents can be tested without MongoDB.
package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/tours/internal/dberr"
	"github.com/deppfellow/tours/internal/pipeline"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Populate joins documents of another collection into a field of the
// loaded document, e.g. a tour's reviews.
type Populate struct {
	Path         string // field the joined documents are stored in
	From         string // collection to read from
	ForeignField string // field of From that references this document's _id
}

func (p Populate) stage() pipeline.Lookup {
	return pipeline.Lookup{From: p.From, LocalField: "_id", ForeignField: p.ForeignField, As: p.Path}
}

// Store provides CRUD and aggregation over one collection whose documents
// decode into T.
type Store[T any] struct {
	coll *mongo.Collection
}

// NewStore wraps coll.
func NewStore[T any](coll *mongo.Collection) *Store[T] {
	return &Store[T]{coll: coll}
}

// ObjectID parses a hex id. A malformed id is a *dberr.CastError.
func ObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &dberr.CastError{Path: "_id", Value: id, Err: err}
	}
	return oid, nil
}

// Find returns the documents matching q.
func (s *Store[T]) Find(ctx context.Context, q ListQuery) ([]T, error) {
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", s.coll.Name(), err)
	}

	docs := make([]T, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.coll.Name(), err)
	}

	return docs, nil
}

// FindByID loads one document and joins the populated paths. A missing
// document is mongo.ErrNoDocuments.
func (s *Store[T]) FindByID(ctx context.Context, id string, populate ...Populate) (*T, error) {
	oid, err := ObjectID(id)
	if err != nil {
		return nil, err
	}

	if len(populate) == 0 {
		var doc T
		if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
			return nil, fmt.Errorf("find %s %s: %w", s.coll.Name(), id, err)
		}
		return &doc, nil
	}

	p := pipeline.New(pipeline.Match{Filter: bson.D{{Key: "_id", Value: oid}}})
	for _, pop := range populate {
		p = append(p, pop.stage())
	}
	p = append(p, pipeline.Limit{N: 1})

	var docs []T
	if err := s.Aggregate(ctx, p, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find %s %s: %w", s.coll.Name(), id, mongo.ErrNoDocuments)
	}

	return &docs[0], nil
}

// Insert stores doc and returns it as read back from the collection.
func (s *Store[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", s.coll.Name(), err)
	}

	var created T
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: res.InsertedID}}).Decode(&created); err != nil {
		return nil, fmt.Errorf("read back %s: %w", s.coll.Name(), err)
	}

	return &created, nil
}

// UpdateByID applies set with $set and returns the updated document.
func (s *Store[T]) UpdateByID(ctx context.Context, id string, set bson.M) (*T, error) {
	oid, err := ObjectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	err = s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", s.coll.Name(), id, err)
	}

	return &doc, nil
}

// DeleteByID removes a document and returns it.
func (s *Store[T]) DeleteByID(ctx context.Context, id string) (*T, error) {
	oid, err := ObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc T
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("delete %s %s: %w", s.coll.Name(), id, err)
	}

	return &doc, nil
}

// Aggregate runs p and decodes every result into out, which must be a
// pointer to a slice.
func (s *Store[T]) Aggregate(ctx context.Context, p pipeline.Pipeline, out interface{}) error {
	stages, err := p.Build()
	if err != nil {
		return err
	}

	cur, err := s.coll.Aggregate(ctx, stages)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", s.coll.Name(), err)
	}

	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s aggregate: %w", s.coll.Name(), err)
	}

	return nil
}
