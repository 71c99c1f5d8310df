// Package dberr translates MongoDB driver errors into client-facing
// HTTPErrors.
//
// Repositories return driver errors as they are; HandleError is called once
// by the global error handler so a duplicate key, an invalid id or a missing
// document reach the client as a 400 or 404 instead of a 500.
package dberr

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Codes returned in HTTPError.Code for database errors.
const (
	CodeInvalidID       = "INVALID_ID"
	CodeDuplicateField  = "DUPLICATE_FIELD"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeDocumentMissing = "DOCUMENT_NOT_FOUND"
)

// Server error code MongoDB uses when a write fails schema validation.
const documentValidationFailure = 121

// CastError reports a value that could not be converted to the type of a
// field, usually a malformed ObjectID in the URL.
type CastError struct {
	Path  string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast to ObjectId failed for value %q at path %q", e.Value, e.Path)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// humanize turns "maxGroupSize" or "max_group_size" into "Max Group Size".
func humanize(field string) string {
	if field == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_' || r == '.':
			b.WriteRune(' ')
			continue
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	return cases.Title(language.English).String(b.String())
}
