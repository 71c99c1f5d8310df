package service

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	field    string
	mimeType string
	body     string
}

func multipartForm(t *testing.T, files ...formFile) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="upload"`)
		h.Set("Content-Type", f.mimeType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("price", "500"))
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

// pngBody is a w x 1 PNG, so every call with a different w gives
// different bytes.
func pngBody(t *testing.T, w int) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, 1))))
	return buf.String()
}

func TestReadTourUploads(t *testing.T) {
	cover, one, two := pngBody(t, 3), pngBody(t, 1), pngBody(t, 2)
	form := multipartForm(t,
		formFile{FieldImageCover, "image/jpeg", cover},
		formFile{FieldImages, "image/png", one},
		formFile{FieldImages, "image/png", two},
	)

	gotCover, gallery, err := ReadTourUploads(form)
	require.NoError(t, err)
	require.NotNil(t, gotCover)
	assert.Equal(t, []byte(cover), gotCover.Buffer)
	assert.Equal(t, "image/jpeg", gotCover.MIMEType)
	require.Len(t, gallery, 2)
	assert.Equal(t, []byte(one), gallery[0].Buffer)
	assert.Equal(t, []byte(two), gallery[1].Buffer)
}

func TestReadTourUploadsRejectsNonImages(t *testing.T) {
	form := multipartForm(t, formFile{FieldImageCover, "text/plain", pngBody(t, 1)})

	_, _, err := ReadTourUploads(form)
	requireBadRequest(t, err, NotAnImageMessage)
}

func TestReadTourUploadsSniffsContent(t *testing.T) {
	form := multipartForm(t, formFile{FieldImageCover, "image/png", "#!/bin/sh\necho hi\n"})

	_, _, err := ReadTourUploads(form)
	requireBadRequest(t, err, NotAnImageMessage)
}

func TestReadTourUploadsRejectsUnexpectedFields(t *testing.T) {
	_, _, err := ReadTourUploads(multipartForm(t, formFile{"avatar", "image/png", "x"}))
	requireBadRequest(t, err, "Unexpected field: avatar")

	_, _, err = ReadTourUploads(multipartForm(t,
		formFile{FieldImageCover, "image/png", "a"},
		formFile{FieldImageCover, "image/png", "b"},
	))
	requireBadRequest(t, err, "Unexpected field: imageCover")

	_, _, err = ReadTourUploads(multipartForm(t,
		formFile{FieldImages, "image/png", "1"},
		formFile{FieldImages, "image/png", "2"},
		formFile{FieldImages, "image/png", "3"},
		formFile{FieldImages, "image/png", "4"},
	))
	requireBadRequest(t, err, "Unexpected field: images")
}

func TestReadTourUploadsWithoutFiles(t *testing.T) {
	cover, gallery, err := ReadTourUploads(multipartForm(t))
	require.NoError(t, err)
	assert.Nil(t, cover)
	assert.Nil(t, gallery)

	cover, gallery, err = ReadTourUploads(nil)
	require.NoError(t, err)
	assert.Nil(t, cover)
	assert.Nil(t, gallery)
}
