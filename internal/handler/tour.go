package handler

import (
	"context"
	"maps"
	"net/http"
	"net/url"

	"github.com/deppfellow/tours/internal/model"
	"github.com/deppfellow/tours/internal/repository"
	"github.com/deppfellow/tours/internal/server"
	"github.com/deppfellow/tours/internal/service"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// Query preset of the top-5-cheap route.
const (
	TopToursLimit  = "5"
	TopToursSort   = "-ratingsAverage,price"
	TopToursFields = "name,price,ratingsAverage,summary,difficulty"
)

// TourResource is the tour service as seen by the tour handler.
type TourResource interface {
	Resource[model.Tour]
	Stats(ctx context.Context) ([]model.TourStats, error)
	MonthlyPlan(ctx context.Context, yearParam string) ([]model.MonthlyPlan, error)
	Within(ctx context.Context, distanceParam, latlng, unitParam string) ([]model.Tour, error)
	Distances(ctx context.Context, latlng, unitParam string) ([]model.TourDistance, error)
}

// ImageResizer writes the uploaded images of a tour.
type ImageResizer interface {
	ResizeTourImages(ctx context.Context, tourID string, cover *service.Upload, gallery []service.Upload) (*service.TourImages, error)
}

// TourHandler serves /api/v1/tours. The CRUD endpoints come from the
// generic factory and are built once.
type TourHandler struct {
	Handler
	tours  TourResource
	images ImageResizer

	GetAllTours echo.HandlerFunc
	GetTour     echo.HandlerFunc
	CreateTour  echo.HandlerFunc
	UpdateTour  echo.HandlerFunc
	DeleteTour  echo.HandlerFunc
}

func NewTourHandler(s *server.Server, tours TourResource, images ImageResizer) *TourHandler {
	h := &TourHandler{
		Handler: NewHandler(s),
		tours:   tours,
		images:  images,
	}

	h.GetAllTours = GetAll[model.Tour](h.Handler, tours)
	h.GetTour = GetOne[model.Tour](h.Handler, tours, repository.PopulateReviews)
	h.CreateTour = CreateOne[model.Tour](h.Handler, tours, newCreateTourRequest)
	h.UpdateTour = UpdateOne[model.Tour, *UpdateTourRequest](h.Handler, tours, newUpdateTourRequest, h.resizeTourImages)
	h.DeleteTour = DeleteOne[model.Tour](h.Handler, tours)

	return h
}

// AliasTopTours presets the query of the five best rated, cheapest tours.
func (h *TourHandler) AliasTopTours(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := c.QueryParams()
		q.Set("limit", TopToursLimit)
		q.Set("sort", TopToursSort)
		q.Set("fields", TopToursFields)
		c.Request().URL.RawQuery = q.Encode()

		return next(c)
	}
}

// resizeTourImages handles the image files of a multipart update. The
// written filenames replace imageCover and images. Files are only written
// for a tour that exists.
func (h *TourHandler) resizeTourImages(c echo.Context, req *UpdateTourRequest, changes bson.M) error {
	if req.form == nil {
		return nil
	}

	cover, gallery, err := service.ReadTourUploads(req.form)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if cover != nil && len(gallery) > 0 {
		if _, err := h.tours.Get(ctx, req.ID); err != nil {
			return err
		}
	}

	written, err := h.images.ResizeTourImages(ctx, req.ID, cover, gallery)
	if err != nil {
		return err
	}
	if written != nil {
		maps.Copy(changes, written.Changes())
	}

	return nil
}

func (h *TourHandler) GetTourStats(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, _ *EmptyRequest) (Response, error) {
		stats, err := h.tours.Stats(c.Request().Context())
		if err != nil {
			return Response{}, err
		}
		return DataResponse("stats", stats), nil
	}, http.StatusOK, newEmptyRequest)(c)
}

func (h *TourHandler) GetMonthlyPlan(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, req *MonthlyPlanRequest) (Response, error) {
		plan, err := h.tours.MonthlyPlan(c.Request().Context(), req.Year)
		if err != nil {
			return Response{}, err
		}
		return DataResponse("plan", plan), nil
	}, http.StatusOK, newMonthlyPlanRequest)(c)
}

func (h *TourHandler) GetToursWithin(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, req *ToursWithinRequest) (Response, error) {
		tours, err := h.tours.Within(c.Request().Context(), req.Distance, unescape(req.LatLng), req.Unit)
		if err != nil {
			return Response{}, err
		}
		return ListResponse(tours), nil
	}, http.StatusOK, newToursWithinRequest)(c)
}

func (h *TourHandler) GetDistances(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, req *DistancesRequest) (Response, error) {
		distances, err := h.tours.Distances(c.Request().Context(), unescape(req.LatLng), req.Unit)
		if err != nil {
			return Response{}, err
		}
		return DataResponse("data", distances), nil
	}, http.StatusOK, newDistancesRequest)(c)
}

// unescape decodes a path segment such as "34.1%2C-118.1". Echo leaves
// escaped path values as sent.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
