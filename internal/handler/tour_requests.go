package handler

import (
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/deppfellow/tours/internal/model"
	"github.com/deppfellow/tours/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultRatingsAverage is the rating of a tour nobody has reviewed yet.
const DefaultRatingsAverage = 4.5

// LocationRequest is a GeoJSON point in a tour payload.
type LocationRequest struct {
	Type        string    `json:"type" validate:"required,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"len=2"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Day         int       `json:"day" validate:"omitempty,gte=0"`
}

func (l *LocationRequest) toModel() *model.Location {
	if l == nil {
		return nil
	}
	return &model.Location{
		Type:        l.Type,
		Coordinates: l.Coordinates,
		Address:     l.Address,
		Description: l.Description,
		Day:         l.Day,
	}
}

func locationsToModel(in []LocationRequest) []model.Location {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Location, len(in))
	for i := range in {
		out[i] = *in[i].toModel()
	}
	return out
}

// CreateTourRequest is the body of POST /tours.
type CreateTourRequest struct {
	Name           string            `json:"name" validate:"required,min=10,max=40"`
	Duration       int               `json:"duration" validate:"required,gt=0"`
	MaxGroupSize   int               `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty     string            `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage float64           `json:"ratingsAverage" validate:"omitempty,min=1,max=5"`
	Price          float64           `json:"price" validate:"required,gt=0"`
	PriceDiscount  float64           `json:"priceDiscount" validate:"omitempty,ltfield=Price"`
	Summary        string            `json:"summary" validate:"required"`
	Description    string            `json:"description"`
	ImageCover     string            `json:"imageCover" validate:"required"`
	Images         []string          `json:"images" validate:"max=3"`
	StartDates     []time.Time       `json:"startDates"`
	StartLocation  *LocationRequest  `json:"startLocation"`
	Locations      []LocationRequest `json:"locations" validate:"omitempty,dive"`
}

func newCreateTourRequest() *CreateTourRequest {
	return &CreateTourRequest{}
}

func (r *CreateTourRequest) Validate() error {
	return validation.Validator().Struct(r)
}

func (r *CreateTourRequest) ToModel() *model.Tour {
	rating := r.RatingsAverage
	if rating == 0 {
		rating = DefaultRatingsAverage
	}

	return &model.Tour{
		Name:           strings.TrimSpace(r.Name),
		Duration:       r.Duration,
		MaxGroupSize:   r.MaxGroupSize,
		Difficulty:     r.Difficulty,
		RatingsAverage: rating,
		Price:          r.Price,
		PriceDiscount:  r.PriceDiscount,
		Summary:        strings.TrimSpace(r.Summary),
		Description:    strings.TrimSpace(r.Description),
		ImageCover:     r.ImageCover,
		Images:         r.Images,
		StartDates:     r.StartDates,
		StartLocation:  r.StartLocation.toModel(),
		Locations:      locationsToModel(r.Locations),
	}
}

// UpdateTourRequest is the body of PATCH /tours/:id. Only the fields that
// are sent are changed. The body is JSON or a multipart form; a form also
// carries the image files.
type UpdateTourRequest struct {
	ID string `json:"-"`

	Name           *string           `json:"name" validate:"omitempty,min=10,max=40"`
	Duration       *int              `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize   *int              `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty     *string           `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	RatingsAverage *float64          `json:"ratingsAverage" validate:"omitempty,min=1,max=5"`
	Price          *float64          `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount  *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary        *string           `json:"summary"`
	Description    *string           `json:"description"`
	ImageCover     *string           `json:"imageCover"`
	Images         []string          `json:"images" validate:"omitempty,max=3"`
	StartDates     []time.Time       `json:"startDates"`
	StartLocation  *LocationRequest  `json:"startLocation"`
	Locations      []LocationRequest `json:"locations" validate:"omitempty,dive"`

	form *multipart.Form
}

func newUpdateTourRequest() *UpdateTourRequest {
	return &UpdateTourRequest{}
}

// Bind reads :id, then a JSON body or the fields of a multipart form.
func (r *UpdateTourRequest) Bind(c echo.Context) error {
	r.ID = c.Param("id")

	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return (&echo.DefaultBinder{}).BindBody(c, r)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return errs.NewBadRequestError("Invalid multipart form", true, nil, nil, nil)
	}
	r.form = form

	return r.bindForm(form.Value)
}

func (r *UpdateTourRequest) bindForm(values map[string][]string) error {
	var fieldErrors []errs.FieldError

	str := func(key string) *string {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return nil
		}
		s := v[0]
		return &s
	}
	integer := func(key string) *int {
		s := str(key)
		if s == nil {
			return nil
		}
		n, err := cast.ToIntE(strings.TrimSpace(*s))
		if err != nil {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: key, Error: "must be a whole number"})
			return nil
		}
		return &n
	}
	number := func(key string) *float64 {
		s := str(key)
		if s == nil {
			return nil
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(*s))
		if err != nil {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: key, Error: "must be a number"})
			return nil
		}
		return &f
	}

	r.Name = str("name")
	r.Duration = integer("duration")
	r.MaxGroupSize = integer("maxGroupSize")
	r.Difficulty = str("difficulty")
	r.RatingsAverage = number("ratingsAverage")
	r.Price = number("price")
	r.PriceDiscount = number("priceDiscount")
	r.Summary = str("summary")
	r.Description = str("description")

	if len(fieldErrors) > 0 {
		return errs.NewBadRequestError("Invalid input data.", true, nil, fieldErrors, nil)
	}
	return nil
}

func (r *UpdateTourRequest) Validate() error {
	if err := validation.Validator().Struct(r); err != nil {
		return err
	}

	if r.Price != nil && r.PriceDiscount != nil && *r.PriceDiscount >= *r.Price {
		return validation.CustomValidationErrors{{
			Field:   "priceDiscount",
			Message: fmt.Sprintf("(%v) should be below price", *r.PriceDiscount),
		}}
	}

	return nil
}

func (r *UpdateTourRequest) ResourceID() string {
	return r.ID
}

// Changes returns the fields that were sent, keyed by their stored names.
func (r *UpdateTourRequest) Changes() bson.M {
	changes := bson.M{}

	if r.Name != nil {
		changes["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Duration != nil {
		changes["duration"] = *r.Duration
	}
	if r.MaxGroupSize != nil {
		changes["maxGroupSize"] = *r.MaxGroupSize
	}
	if r.Difficulty != nil {
		changes["difficulty"] = *r.Difficulty
	}
	if r.RatingsAverage != nil {
		changes["ratingsAverage"] = *r.RatingsAverage
	}
	if r.Price != nil {
		changes["price"] = *r.Price
	}
	if r.PriceDiscount != nil {
		changes["priceDiscount"] = *r.PriceDiscount
	}
	if r.Summary != nil {
		changes["summary"] = strings.TrimSpace(*r.Summary)
	}
	if r.Description != nil {
		changes["description"] = strings.TrimSpace(*r.Description)
	}
	if r.ImageCover != nil {
		changes["imageCover"] = *r.ImageCover
	}
	if r.Images != nil {
		changes["images"] = r.Images
	}
	if r.StartDates != nil {
		changes["startDates"] = r.StartDates
	}
	if r.StartLocation != nil {
		changes["startLocation"] = r.StartLocation.toModel()
	}
	if r.Locations != nil {
		changes["locations"] = locationsToModel(r.Locations)
	}

	return changes
}

// MonthlyPlanRequest carries the :year path parameter. A year that is not
// a number is not an error; the plan is empty.
type MonthlyPlanRequest struct {
	Year string `param:"year"`
}

func newMonthlyPlanRequest() *MonthlyPlanRequest {
	return &MonthlyPlanRequest{}
}

func (r *MonthlyPlanRequest) Validate() error {
	return nil
}

// ToursWithinRequest carries the path of the tours-within route. Values
// are parsed by the tour service, which owns the error messages.
type ToursWithinRequest struct {
	Distance string `param:"distance"`
	LatLng   string `param:"latlng"`
	Unit     string `param:"unit"`
}

func newToursWithinRequest() *ToursWithinRequest {
	return &ToursWithinRequest{}
}

func (r *ToursWithinRequest) Validate() error {
	return nil
}

// DistancesRequest carries the path of the distances route.
type DistancesRequest struct {
	LatLng string `param:"latlng"`
	Unit   string `param:"unit"`
}

func newDistancesRequest() *DistancesRequest {
	return &DistancesRequest{}
}

func (r *DistancesRequest) Validate() error {
	return nil
}
