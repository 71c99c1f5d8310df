package repository

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseListQueryDefaults(t *testing.T) {
	q := ParseListQuery(url.Values{})

	assert.Equal(t, bson.D{}, q.Filter)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, q.Sort)
	assert.Nil(t, q.Projection)
	assert.Equal(t, int64(0), q.Skip)
	assert.Equal(t, int64(100), q.Limit)
}

func TestParseListQueryFilters(t *testing.T) {
	params, _ := url.ParseQuery("difficulty=easy&duration[gte]=5&duration[lt]=10&price[lte]=1500&page=2&$where=1&name[ne]=x")

	q := ParseListQuery(params)

	assert.Equal(t, bson.D{
		{Key: "difficulty", Value: "easy"},
		{Key: "duration", Value: bson.D{{Key: "$gte", Value: 5.0}, {Key: "$lt", Value: 10.0}}},
		{Key: "price", Value: bson.D{{Key: "$lte", Value: 1500.0}}},
	}, q.Filter)
}

func TestParseListQueryRepeatedValuesBecomeIn(t *testing.T) {
	params, _ := url.ParseQuery("difficulty=easy&difficulty=medium")

	q := ParseListQuery(params)

	assert.Equal(t, bson.D{
		{Key: "difficulty", Value: bson.D{{Key: "$in", Value: bson.A{"easy", "medium"}}}},
	}, q.Filter)
}

func TestParseListQuerySortFieldsAndPaging(t *testing.T) {
	params := url.Values{
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
		"page":   {"3"},
		"limit":  {"5"},
	}

	q := ParseListQuery(params)

	assert.Equal(t, bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}}, q.Sort)
	assert.Equal(t, bson.D{
		{Key: "name", Value: 1},
		{Key: "price", Value: 1},
		{Key: "ratingsAverage", Value: 1},
		{Key: "summary", Value: 1},
		{Key: "difficulty", Value: 1},
	}, q.Projection)
	assert.Equal(t, int64(10), q.Skip)
	assert.Equal(t, int64(5), q.Limit)
}

func TestParseListQueryBadPagingFallsBack(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {"-1"}, "limit": {"lots"}})

	assert.Equal(t, int64(0), q.Skip)
	assert.Equal(t, int64(DefaultLimit), q.Limit)
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 4.5, coerce("4.5"))
	assert.Equal(t, true, coerce("true"))
	assert.Equal(t, "T", coerce("T"))
	assert.Equal(t, "easy", coerce("easy"))
}
