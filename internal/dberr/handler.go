package dberr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/tours/internal/errs"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// first double-quoted value of an E11000 message
	quotedValue = regexp.MustCompile(`"((?:\\.|[^"\\])*)"`)
	// field name inside "dup key: { name: ... }"
	dupKeyField = regexp.MustCompile(`dup key: \{ ?([A-Za-z0-9_.]+):`)
)

// HandleError converts a database error into an *errs.HTTPError.
//
//   - *errs.HTTPError: returned unchanged
//   - *CastError: 400 "Invalid <path>: <value>."
//   - duplicate key: 400 "Duplicate field value: <value>. Please use another value!"
//   - document validation failure: 400 "Invalid input data. ..."
//   - mongo.ErrNoDocuments: 404 "No document found with that ID"
//   - anything else: 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		code := CodeInvalidID
		return errs.NewBadRequestError(
			fmt.Sprintf("Invalid %s: %s.", castErr.Path, castErr.Value),
			true, &code, nil, nil,
		)
	}

	if mongo.IsDuplicateKeyError(err) {
		return duplicateKeyError(err)
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(documentValidationFailure) {
		code := CodeInvalidInput
		return errs.NewBadRequestError(
			"Invalid input data. Document failed validation.",
			true, &code, nil, nil,
		)
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		code := CodeDocumentMissing
		return errs.NewNotFoundError("No document found with that ID", true, &code)
	}

	return errs.NewInternalServerError()
}

func duplicateKeyError(err error) error {
	msg := err.Error()
	code := CodeDuplicateField

	value := ""
	if m := quotedValue.FindStringSubmatch(msg); len(m) > 1 {
		value = m[1]
	}

	var fieldErrors []errs.FieldError
	if m := dupKeyField.FindStringSubmatch(msg); len(m) > 1 {
		fieldErrors = []errs.FieldError{{
			Field: m[1],
			Error: fmt.Sprintf("%s is already taken", humanize(m[1])),
		}}
	}

	return errs.NewBadRequestError(
		fmt.Sprintf("Duplicate field value: %q. Please use another value!", strings.TrimSpace(value)),
		true, &code, fieldErrors, nil,
	)
}
