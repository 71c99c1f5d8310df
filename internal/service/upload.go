package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/deppfellow/tours/internal/errs"
	"github.com/gabriel-vasile/mimetype"
)

// Multipart fields accepted for tour images and how many files each takes.
const (
	FieldImageCover = "imageCover"
	FieldImages     = "images"
)

var uploadFields = map[string]int{
	FieldImageCover: 1,
	FieldImages:     3,
}

// NotAnImageMessage is returned for uploads whose type is not an image.
const NotAnImageMessage = "Not an image! Please upload only images."

// Upload is a file held in memory until it is resized.
type Upload struct {
	Field    string
	Filename string
	MIMEType string
	Buffer   []byte
}

// FilterImage accepts MIME types starting with "image". Anything else is
// rejected with a 400.
func FilterImage(mimeType string) (bool, error) {
	if strings.HasPrefix(mimeType, "image") {
		return true, nil
	}
	return false, errs.NewBadRequestError(NotAnImageMessage, true, nil, nil, nil)
}

// ReadTourUploads reads the imageCover and images files of a multipart
// form into memory. A file field other than those two, or more files than
// a field takes, is a 400 "Unexpected field". Both the declared type and
// the sniffed content of every file must pass FilterImage.
func ReadTourUploads(form *multipart.Form) (*Upload, []Upload, error) {
	if form == nil {
		return nil, nil, nil
	}

	for field, files := range form.File {
		limit, ok := uploadFields[field]
		if !ok || len(files) > limit {
			return nil, nil, errs.NewBadRequestError(fmt.Sprintf("Unexpected field: %s", field), true, nil, nil, nil)
		}
	}

	var cover *Upload
	if files := form.File[FieldImageCover]; len(files) == 1 {
		up, err := readUpload(FieldImageCover, files[0])
		if err != nil {
			return nil, nil, err
		}
		cover = &up
	}

	var gallery []Upload
	for _, fh := range form.File[FieldImages] {
		up, err := readUpload(FieldImages, fh)
		if err != nil {
			return nil, nil, err
		}
		gallery = append(gallery, up)
	}

	return cover, gallery, nil
}

func readUpload(field string, fh *multipart.FileHeader) (Upload, error) {
	mimeType := fh.Header.Get("Content-Type")
	if _, err := FilterImage(mimeType); err != nil {
		return Upload{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	if _, err := FilterImage(mimetype.Detect(buf).String()); err != nil {
		return Upload{}, err
	}

	return Upload{
		Field:    field,
		Filename: fh.Filename,
		MIMEType: mimeType,
		Buffer:   buf,
	}, nil
}
