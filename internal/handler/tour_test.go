package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/deppfellow/tours/internal/model"
	"github.com/deppfellow/tours/internal/repository"
	"github.com/deppfellow/tours/internal/service"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTours struct {
	tours []model.Tour
	err   error

	params     url.Values
	id         string
	populate   []repository.Populate
	created    *model.Tour
	changes    bson.M
	deleted    string
	year       string
	within     [3]string
	distances  [2]string
	statsCalls int
}

func (f *fakeTours) List(_ context.Context, params url.Values) ([]model.Tour, error) {
	f.params = params
	return f.tours, f.err
}

func (f *fakeTours) Get(_ context.Context, id string, populate ...repository.Populate) (*model.Tour, error) {
	f.id, f.populate = id, populate
	if f.err != nil {
		return nil, f.err
	}
	return &f.tours[0], nil
}

func (f *fakeTours) Create(_ context.Context, doc *model.Tour) (*model.Tour, error) {
	f.created = doc
	if f.err != nil {
		return nil, f.err
	}
	doc.ID = primitive.NewObjectID()
	return doc, nil
}

func (f *fakeTours) Update(_ context.Context, id string, changes bson.M) (*model.Tour, error) {
	f.id, f.changes = id, changes
	if f.err != nil {
		return nil, f.err
	}
	return &f.tours[0], nil
}

func (f *fakeTours) Delete(_ context.Context, id string) (*model.Tour, error) {
	f.deleted = id
	if f.err != nil {
		return nil, f.err
	}
	return &f.tours[0], nil
}

func (f *fakeTours) Stats(context.Context) ([]model.TourStats, error) {
	f.statsCalls++
	return []model.TourStats{{ID: "EASY", NumTours: 4, AvgPrice: 947}}, f.err
}

func (f *fakeTours) MonthlyPlan(_ context.Context, yearParam string) ([]model.MonthlyPlan, error) {
	f.year = yearParam
	return []model.MonthlyPlan{{Month: 7, NumToursOfMonth: 3, Tours: []string{"a", "b", "c"}}}, f.err
}

func (f *fakeTours) Within(_ context.Context, distanceParam, latlng, unitParam string) ([]model.Tour, error) {
	f.within = [3]string{distanceParam, latlng, unitParam}
	return f.tours, f.err
}

func (f *fakeTours) Distances(_ context.Context, latlng, unitParam string) ([]model.TourDistance, error) {
	f.distances = [2]string{latlng, unitParam}
	return []model.TourDistance{{Name: "The Sea Explorer", Distance: 40.1}}, f.err
}

type fakeImages struct {
	tourID  string
	cover   *service.Upload
	gallery []service.Upload
	err     error
}

func (f *fakeImages) ResizeTourImages(_ context.Context, tourID string, cover *service.Upload, gallery []service.Upload) (*service.TourImages, error) {
	f.tourID, f.cover, f.gallery = tourID, cover, gallery
	if f.err != nil {
		return nil, f.err
	}
	if cover == nil || len(gallery) == 0 {
		return nil, nil
	}
	images := make([]string, len(gallery))
	for i := range gallery {
		images[i] = "tour-" + tourID + "-gallery.jpeg"
	}
	return &service.TourImages{ImageCover: "tour-" + tourID + "-cover.jpeg", Images: images}, nil
}

type testAPI struct {
	e       *echo.Echo
	tours   *fakeTours
	images  *fakeImages
	lastErr error
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		e:      echo.New(),
		tours:  &fakeTours{tours: []model.Tour{{ID: primitive.NewObjectID(), Name: "The Forest Hiker", Price: 397}}},
		images: &fakeImages{},
	}
	api.e.HTTPErrorHandler = func(err error, c echo.Context) {
		api.lastErr = err
		status := http.StatusInternalServerError
		var httpErr *errs.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Status
		}
		_ = c.NoContent(status)
	}

	h := NewTourHandler(nil, api.tours, api.images)
	g := api.e.Group("/api/v1/tours")
	g.GET("/top-5-cheap", h.GetAllTours, h.AliasTopTours)
	g.GET("/tour-stats", h.GetTourStats)
	g.GET("/monthly-plan/:year", h.GetMonthlyPlan)
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.GetToursWithin)
	g.GET("/distances/:latlng/unit/:unit", h.GetDistances)
	g.GET("", h.GetAllTours)
	g.POST("", h.CreateTour)
	g.GET("/:id", h.GetTour)
	g.PATCH("/:id", h.UpdateTour)
	g.DELETE("/:id", h.DeleteTour)

	return api
}

func (api *testAPI) do(t *testing.T, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	api.e.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) requireBadRequest(t *testing.T, rec *httptest.ResponseRecorder) *errs.HTTPError {
	t.Helper()

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, api.lastErr, &httpErr)
	return httpErr
}

type envelope struct {
	Status  string                     `json:"status"`
	Results *int                       `json:"results"`
	Data    map[string]json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, StatusSuccess, env.Status)
	return env
}

func TestGetAllTours(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours?price[gte]=500&sort=price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Results)
	assert.Equal(t, 1, *env.Results)

	var tours []model.Tour
	require.NoError(t, json.Unmarshal(env.Data["data"], &tours))
	require.Len(t, tours, 1)
	assert.Equal(t, "The Forest Hiker", tours[0].Name)

	assert.Equal(t, "500", api.tours.params.Get("price[gte]"))
	assert.Equal(t, "price", api.tours.params.Get("sort"))
}

func TestAliasTopTours(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/top-5-cheap?limit=50&difficulty=easy", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, TopToursLimit, api.tours.params.Get("limit"))
	assert.Equal(t, TopToursSort, api.tours.params.Get("sort"))
	assert.Equal(t, TopToursFields, api.tours.params.Get("fields"))
	assert.Equal(t, "easy", api.tours.params.Get("difficulty"))
}

func TestAliasTopToursOnlySelectedFields(t *testing.T) {
	api := newTestAPI(t)

	var projected model.Tour
	raw, err := bson.Marshal(bson.M{
		"_id":            primitive.NewObjectID(),
		"name":           "The Forest Hiker",
		"price":          397.0,
		"ratingsAverage": 4.7,
		"summary":        "Breathtaking hike through the Canadian Banff National Park",
		"difficulty":     "easy",
	})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(raw, &projected))
	api.tours.tours = []model.Tour{projected}

	rec := api.do(t, http.MethodGet, "/api/v1/tours/top-5-cheap", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tours []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, rec).Data["data"], &tours))
	require.Len(t, tours, 1)

	keys := make([]string, 0, len(tours[0]))
	for k := range tours[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"_id", "name", "price", "ratingsAverage", "summary", "difficulty"}, keys)
}

func TestGetTourPopulatesReviews(t *testing.T) {
	api := newTestAPI(t)
	id := api.tours.tours[0].ID.Hex()

	rec := api.do(t, http.MethodGet, "/api/v1/tours/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.Nil(t, env.Results)
	assert.Contains(t, string(env.Data["data"]), "The Forest Hiker")
	assert.Equal(t, id, api.tours.id)
	assert.Equal(t, []repository.Populate{repository.PopulateReviews}, api.tours.populate)
}

func TestGetTourPassesServiceErrors(t *testing.T) {
	api := newTestAPI(t)
	api.tours.err = errs.NewNotFoundError("No document found with that ID", true, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/5c88fa8cf4afda39709c2951", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.tours.err, api.lastErr)
}

const validTour = `{
	"name": "The Park Camper",
	"duration": 10,
	"maxGroupSize": 15,
	"difficulty": "medium",
	"price": 1497,
	"summary": "Breathing in Nature in America's most spectacular National Parks",
	"imageCover": "tour-9-cover.jpg",
	"startDates": ["2021-08-05T10:00:00.000Z"],
	"startLocation": {"type": "Point", "coordinates": [-115.172652, 36.110904], "address": "Las Vegas, NV 89109, USA"}
}`

func TestCreateTour(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/tours", echo.MIMEApplicationJSON, bytes.NewBufferString(validTour))
	require.Equal(t, http.StatusCreated, rec.Code)

	created := api.tours.created
	require.NotNil(t, created)
	assert.Equal(t, "The Park Camper", created.Name)
	assert.Equal(t, DefaultRatingsAverage, created.RatingsAverage)
	require.NotNil(t, created.StartLocation)
	assert.Equal(t, []float64{-115.172652, 36.110904}, created.StartLocation.Coordinates)
	require.Len(t, created.StartDates, 1)
	assert.Equal(t, 2021, created.StartDates[0].Year())

	env := decode(t, rec)
	assert.Contains(t, string(env.Data["data"]), `"_id"`)
}

func TestCreateTourValidation(t *testing.T) {
	api := newTestAPI(t)

	body := strings.Replace(validTour, `"price": 1497`, `"price": 1497, "priceDiscount": 2000, "images": ["a","b","c","d"]`, 1)
	body = strings.Replace(body, `"difficulty": "medium"`, `"difficulty": "extreme"`, 1)

	rec := api.do(t, http.MethodPost, "/api/v1/tours", echo.MIMEApplicationJSON, bytes.NewBufferString(body))
	httpErr := api.requireBadRequest(t, rec)

	fields := map[string]string{}
	for _, fe := range httpErr.Errors {
		fields[fe.Field] = fe.Error
	}
	assert.Equal(t, "(2000) should be below price", fields["priceDiscount"])
	assert.Equal(t, "must be one of: easy medium difficult", fields["difficulty"])
	assert.Equal(t, "must have at most 3 items", fields["images"])
	assert.Nil(t, api.tours.created)
}

func TestUpdateTourJSON(t *testing.T) {
	api := newTestAPI(t)
	id := api.tours.tours[0].ID.Hex()

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/"+id, echo.MIMEApplicationJSON,
		bytes.NewBufferString(`{"price": 500, "difficulty": "easy"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, id, api.tours.id)
	assert.Equal(t, bson.M{"price": 500.0, "difficulty": "easy"}, api.tours.changes)
	assert.Empty(t, api.images.tourID, "JSON updates carry no files")
}

func TestUpdateTourEmptyBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bson.M{}, api.tours.changes)
}

func TestUpdateTourDiscountBelowPrice(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/abc", echo.MIMEApplicationJSON,
		bytes.NewBufferString(`{"price": 500, "priceDiscount": 600}`))
	httpErr := api.requireBadRequest(t, rec)

	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "priceDiscount", httpErr.Errors[0].Field)
	assert.Nil(t, api.tours.changes)
}

type part struct {
	field, filename, contentType, body string
}

func pngBytes(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.String()
}

func multipartBody(t *testing.T, values map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpdateTourMultipartWithImages(t *testing.T) {
	api := newTestAPI(t)
	img := pngBytes(t)

	body, contentType := multipartBody(t,
		map[string]string{"price": "997", "duration": "7"},
		part{service.FieldImageCover, "cover.png", "image/png", img},
		part{service.FieldImages, "1.png", "image/png", img},
		part{service.FieldImages, "2.png", "image/png", img},
	)

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/5c88fa8cf4afda39709c2955", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "5c88fa8cf4afda39709c2955", api.images.tourID)
	require.NotNil(t, api.images.cover)
	assert.Equal(t, "cover.png", api.images.cover.Filename)
	require.Len(t, api.images.gallery, 2)
	assert.Equal(t, "1.png", api.images.gallery[0].Filename)

	changes := api.tours.changes
	assert.Equal(t, 997.0, changes["price"])
	assert.Equal(t, 7, changes["duration"])
	assert.Equal(t, "tour-5c88fa8cf4afda39709c2955-cover.jpeg", changes["imageCover"])
	assert.Len(t, changes["images"], 2)
}

func TestUpdateTourMultipartMissingTourWritesNothing(t *testing.T) {
	api := newTestAPI(t)
	api.tours.err = errs.NewNotFoundError("No document found with that ID", true, nil)
	img := pngBytes(t)

	body, contentType := multipartBody(t, nil,
		part{service.FieldImageCover, "cover.png", "image/png", img},
		part{service.FieldImages, "1.png", "image/png", img},
	)

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/5c88fa8cf4afda39709c2951", contentType, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "5c88fa8cf4afda39709c2951", api.tours.id)
	assert.Empty(t, api.images.tourID)
	assert.Nil(t, api.tours.changes)
}

func TestUpdateTourMultipartCoverOnlySkipsImages(t *testing.T) {
	api := newTestAPI(t)

	body, contentType := multipartBody(t, map[string]string{"name": "The Snow Adventurer"},
		part{service.FieldImageCover, "cover.png", "image/png", pngBytes(t)},
	)

	rec := api.do(t, http.MethodPatch, "/api/v1/tours/abc", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bson.M{"name": "The Snow Adventurer"}, api.tours.changes)
}

func TestUpdateTourMultipartRejects(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		parts   []part
		message string
	}{
		{
			name:    "non image",
			parts:   []part{{service.FieldImageCover, "notes.txt", "text/plain", "hello"}},
			message: service.NotAnImageMessage,
		},
		{
			name:    "unexpected field",
			parts:   []part{{"photo", "a.png", "image/png", "x"}},
			message: "Unexpected field: photo",
		},
		{
			name:    "bad number",
			values:  map[string]string{"price": "cheap"},
			message: "Invalid input data.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			body, contentType := multipartBody(t, tt.values, tt.parts...)
			rec := api.do(t, http.MethodPatch, "/api/v1/tours/abc", contentType, body)

			httpErr := api.requireBadRequest(t, rec)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.Nil(t, api.tours.changes)
		})
	}
}

func TestDeleteTour(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodDelete, "/api/v1/tours/5c88fa8cf4afda39709c2961", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "5c88fa8cf4afda39709c2961", api.tours.deleted)
}

func TestGetTourStats(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/tour-stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.Nil(t, env.Results)
	assert.JSONEq(t,
		`[{"_id":"EASY","numTours":4,"numRatings":0,"avgRating":0,"avgPrice":947,"minPrice":0,"maxPrice":0}]`,
		string(env.Data["stats"]))
	assert.Equal(t, 1, api.tours.statsCalls)
}

func TestGetMonthlyPlan(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/monthly-plan/2021", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.JSONEq(t, `[{"month":7,"numToursOfMonth":3,"tours":["a","b","c"]}]`, string(env.Data["plan"]))
	assert.Equal(t, "2021", api.tours.year)
}

func TestGetToursWithin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/tours-within/400/center/34.111745,-118.113491/unit/mi", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Results)
	assert.Equal(t, 1, *env.Results)
	assert.Equal(t, [3]string{"400", "34.111745,-118.113491", "mi"}, api.tours.within)
}

func TestGetDistances(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/distances/34.111745%2C-118.113491/unit/km", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.Nil(t, env.Results)
	assert.Contains(t, string(env.Data["data"]), "The Sea Explorer")
	assert.Equal(t, [2]string{"34.111745,-118.113491", "km"}, api.tours.distances)
}

func TestGeoRoutesPassServiceErrors(t *testing.T) {
	api := newTestAPI(t)
	api.tours.err = errs.NewBadRequestError(service.LatLngMessage, true, nil, nil, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/tours/distances/34.1/unit/km", "", nil)
	httpErr := api.requireBadRequest(t, rec)
	assert.Equal(t, service.LatLngMessage, httpErr.Message)
}
