// Package validation binds request payloads and turns validator failures
// into 400 errors with one entry per field.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payloads.
type Validatable interface {
	Validate() error
}

// Binder is implemented by payloads that read the request themselves,
// e.g. to accept both JSON and multipart bodies.
type Binder interface {
	Bind(c echo.Context) error
}

// CustomValidationError is a rule that struct tags cannot express.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors satisfies error so Validate can return it.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors are the
// json names ("ratingsAverage", not "RatingsAverage").
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// BindAndValidate binds the request into payload and validates it. Both
// failures are 400s. Payloads implementing Binder bind themselves.
func BindAndValidate(c echo.Context, payload Validatable) error {
	bind := c.Bind
	if b, ok := payload.(Binder); ok {
		bind = func(interface{}) error { return b.Bind(c) }
	}

	if err := bind(payload); err != nil {
		return bindError(err)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors, nil)
	}

	return nil
}

func bindError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	message := "Invalid request body"

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusUnsupportedMediaType {
			return errs.NewBadRequestError("Unsupported content type", true, nil, nil, nil)
		}
		if msg, ok := echoErr.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	return errs.NewBadRequestError(message, true, nil, nil, nil)
}

func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
		return "Invalid input data.", fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid input data.", []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fieldPath(fe)
		msg := message(fe)
		fieldErrors = append(fieldErrors, errs.FieldError{Field: field, Error: msg})
		messages = append(messages, field+" "+msg)
	}

	return "Invalid input data. " + strings.Join(messages, ". "), fieldErrors
}

// fieldPath drops the root struct name: "createTourRequest.startLocation.type"
// becomes "startLocation.type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "is required"

	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())

	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())

	case "len":
		return fmt.Sprintf("must have exactly %s items", fe.Param())

	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())

	case "ltfield":
		return fmt.Sprintf("(%v) should be below %s", fe.Value(), lowerFirst(fe.Param()))

	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())

	case "eq":
		return fmt.Sprintf("must be %s", fe.Param())

	case "latitude":
		return "must be a valid latitude"

	case "longitude":
		return "must be a valid longitude"

	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
