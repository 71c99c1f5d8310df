package repository

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/deppfellow/tours/internal/lib/utils"
	"go.mongodb.org/mongo-driver/bson"
)

// List query defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"
)

// reserved parameters that are not field filters
var reservedParams = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

var (
	fieldName     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)
	fieldOperator = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.]*)\[(gte|gt|lte|lt)\]$`)
)

// ListQuery is a parsed list request.
type ListQuery struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64 // 0 means no limit
}

// ParseListQuery builds a ListQuery from URL parameters:
//
//	difficulty=easy&duration[gte]=5   filter
//	sort=-ratingsAverage,price        sort, "-" for descending
//	fields=name,price                 projection
//	page=2&limit=10                   pagination
//
// Parameters whose name is not a plain field name are ignored, so operators
// other than gte, gt, lte and lt cannot reach the database.
func ParseListQuery(params url.Values) ListQuery {
	q := ListQuery{
		Filter: parseFilter(params),
		Sort:   parseSort(params.Get("sort")),
	}

	if fields := utils.SplitCSV(params.Get("fields")); len(fields) > 0 {
		for _, f := range fields {
			if fieldName.MatchString(f) {
				q.Projection = append(q.Projection, bson.E{Key: f, Value: 1})
			}
		}
	}

	page := positiveInt(params.Get("page"), DefaultPage)
	limit := positiveInt(params.Get("limit"), DefaultLimit)
	q.Skip = (page - 1) * limit
	q.Limit = limit

	return q
}

func parseFilter(params url.Values) bson.D {
	filter := bson.D{}
	ops := map[string]bson.D{}
	var opOrder []string

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if reservedParams[key] {
			continue
		}
		values := params[key]

		if m := fieldOperator.FindStringSubmatch(key); m != nil {
			field, op := m[1], "$"+m[2]
			if _, seen := ops[field]; !seen {
				opOrder = append(opOrder, field)
			}
			ops[field] = append(ops[field], bson.E{Key: op, Value: coerce(values[0])})
			continue
		}

		if !fieldName.MatchString(key) {
			continue
		}

		if len(values) == 1 {
			filter = append(filter, bson.E{Key: key, Value: coerce(values[0])})
			continue
		}

		in := bson.A{}
		for _, v := range values {
			in = append(in, coerce(v))
		}
		filter = append(filter, bson.E{Key: key, Value: bson.D{{Key: "$in", Value: in}}})
	}

	for _, field := range opOrder {
		filter = append(filter, bson.E{Key: field, Value: ops[field]})
	}

	return filter
}

func parseSort(raw string) bson.D {
	if raw == "" {
		raw = DefaultSort
	}

	var sort bson.D
	for _, key := range utils.SplitCSV(raw) {
		dir := 1
		if strings.HasPrefix(key, "-") {
			dir = -1
			key = key[1:]
		}
		if fieldName.MatchString(key) {
			sort = append(sort, bson.E{Key: key, Value: dir})
		}
	}

	return sort
}

// coerce turns numeric and boolean parameter values into numbers and
// booleans so they compare against typed fields.
func coerce(v string) interface{} {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(v); err == nil && (v == "true" || v == "false") {
		return b
	}
	return v
}

func positiveInt(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
