package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/deppfellow/tours/internal/repository"
	"github.com/deppfellow/tours/internal/validation"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// StatusSuccess is the status of every successful response body.
const StatusSuccess = "success"

// Response is the body of every successful JSON response.
type Response struct {
	Status  string      `json:"status"`
	Results *int        `json:"results,omitempty"`
	Data    interface{} `json:"data"`
}

// ListResponse wraps docs as {status, results, data: {data}}.
func ListResponse[T any](docs []T) Response {
	n := len(docs)
	return Response{Status: StatusSuccess, Results: &n, Data: echo.Map{"data": docs}}
}

// DataResponse wraps v as {status, data: {<key>: v}}.
func DataResponse(key string, v interface{}) Response {
	return Response{Status: StatusSuccess, Data: echo.Map{key: v}}
}

// Resource is what the CRUD factory needs from a service.
type Resource[T any] interface {
	List(ctx context.Context, params url.Values) ([]T, error)
	Get(ctx context.Context, id string, populate ...repository.Populate) (*T, error)
	Create(ctx context.Context, doc *T) (*T, error)
	Update(ctx context.Context, id string, changes bson.M) (*T, error)
	Delete(ctx context.Context, id string) (*T, error)
}

// CreateRequest is a validated payload that becomes a new document.
type CreateRequest[T any] interface {
	validation.Validatable
	ToModel() *T
}

// UpdateRequest is a validated payload naming a document and the fields to
// set on it.
type UpdateRequest interface {
	validation.Validatable
	ResourceID() string
	Changes() bson.M
}

// UpdateStage runs after validation and before the update. It may add to
// changes.
type UpdateStage[Req UpdateRequest] func(c echo.Context, req Req, changes bson.M) error

// EmptyRequest is for routes that read nothing from the request, or read
// the query string as is.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

func newEmptyRequest() *EmptyRequest {
	return &EmptyRequest{}
}

// IDRequest carries the :id path parameter.
type IDRequest struct {
	ID string `param:"id" validate:"required"`
}

func (r *IDRequest) Validate() error {
	return validation.Validator().Struct(r)
}

func newIDRequest() *IDRequest {
	return &IDRequest{}
}

// GetAll lists documents filtered, sorted, projected and paginated by the
// query string.
func GetAll[T any](h Handler, r Resource[T]) echo.HandlerFunc {
	return Handle(h, func(c echo.Context, _ *EmptyRequest) (Response, error) {
		docs, err := r.List(c.Request().Context(), c.QueryParams())
		if err != nil {
			return Response{}, err
		}
		return ListResponse(docs), nil
	}, http.StatusOK, newEmptyRequest)
}

// GetOne loads the :id document with the populated relations.
func GetOne[T any](h Handler, r Resource[T], populate ...repository.Populate) echo.HandlerFunc {
	return Handle(h, func(c echo.Context, req *IDRequest) (Response, error) {
		doc, err := r.Get(c.Request().Context(), req.ID, populate...)
		if err != nil {
			return Response{}, err
		}
		return DataResponse("data", doc), nil
	}, http.StatusOK, newIDRequest)
}

// CreateOne stores the request as a new document and answers 201.
func CreateOne[T any, Req CreateRequest[T]](h Handler, r Resource[T], newReq func() Req) echo.HandlerFunc {
	return Handle(h, func(c echo.Context, req Req) (Response, error) {
		doc, err := r.Create(c.Request().Context(), req.ToModel())
		if err != nil {
			return Response{}, err
		}
		return DataResponse("data", doc), nil
	}, http.StatusCreated, newReq)
}

// UpdateOne runs stages in order, then sets the collected changes on the
// document and returns it updated.
func UpdateOne[T any, Req UpdateRequest](h Handler, r Resource[T], newReq func() Req, stages ...UpdateStage[Req]) echo.HandlerFunc {
	return Handle(h, func(c echo.Context, req Req) (Response, error) {
		changes := req.Changes()
		if changes == nil {
			changes = bson.M{}
		}

		for _, stage := range stages {
			if err := stage(c, req, changes); err != nil {
				return Response{}, err
			}
		}

		doc, err := r.Update(c.Request().Context(), req.ResourceID(), changes)
		if err != nil {
			return Response{}, err
		}
		return DataResponse("data", doc), nil
	}, http.StatusOK, newReq)
}

// DeleteOne removes the :id document and answers 204.
func DeleteOne[T any](h Handler, r Resource[T]) echo.HandlerFunc {
	return HandleNoContent(h, func(c echo.Context, req *IDRequest) error {
		_, err := r.Delete(c.Request().Context(), req.ID)
		return err
	}, http.StatusNoContent, newIDRequest)
}
