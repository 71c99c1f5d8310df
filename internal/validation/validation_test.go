package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Type        string    `json:"type" validate:"required,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"len=2"`
}

type samplePayload struct {
	Name          string  `json:"name" validate:"required,min=10,max=40"`
	Price         float64 `json:"price" validate:"gt=0"`
	PriceDiscount float64 `json:"priceDiscount" validate:"omitempty,ltfield=Price"`
	Difficulty    string  `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Start         *point  `json:"startLocation" validate:"omitempty"`
}

func (p *samplePayload) Validate() error {
	return Validator().Struct(p)
}

type customPayload struct{}

func (customPayload) Validate() error {
	return CustomValidationErrors{{Field: "images", Message: "must have at most 3 items"}}
}

func bind(t *testing.T, body string, payload Validatable) error {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return BindAndValidate(c, payload)
}

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr
}

func TestBindAndValidateAcceptsValidPayload(t *testing.T) {
	var p samplePayload
	err := bind(t, `{"name":"The Forest Hiker","price":397,"priceDiscount":100,"difficulty":"easy"}`, &p)
	require.NoError(t, err)
	assert.Equal(t, "The Forest Hiker", p.Name)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	var p samplePayload
	err := bind(t, `{"name":"Short","price":100,"priceDiscount":200,"difficulty":"extreme","startLocation":{"type":"Polygon","coordinates":[1]}}`, &p)

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.True(t, strings.HasPrefix(httpErr.Message, "Invalid input data."))

	byField := map[string]string{}
	for _, fe := range httpErr.Errors {
		byField[fe.Field] = fe.Error
	}
	assert.Equal(t, "must have at least 10 characters", byField["name"])
	assert.Equal(t, "(200) should be below price", byField["priceDiscount"])
	assert.Equal(t, "must be one of: easy medium difficult", byField["difficulty"])
	assert.Equal(t, "must be Point", byField["startLocation.type"])
	assert.Equal(t, "must have exactly 2 items", byField["startLocation.coordinates"])
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	var p samplePayload
	httpErr := asHTTPError(t, bind(t, `{"name":`, &p))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	httpErr := asHTTPError(t, bind(t, `{}`, &customPayload{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "images", httpErr.Errors[0].Field)
}
