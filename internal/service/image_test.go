package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deppfellow/tours/internal/config"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(t *testing.T, field string, w, h int) Upload {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Upload{Field: field, Filename: "photo.png", MIMEType: "image/png", Buffer: buf.Bytes()}
}

func newTestImageService(t *testing.T) *ImageService {
	t.Helper()

	cfg := config.DefaultImagesConfig()
	cfg.Dir = filepath.Join(t.TempDir(), "img", "tours")
	s := NewImageService(cfg)

	var tick atomic.Int64
	base := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Millisecond) }
	return s
}

func TestResizeTourImages(t *testing.T) {
	s := newTestImageService(t)

	cover := pngUpload(t, FieldImageCover, 300, 200)
	gallery := []Upload{
		pngUpload(t, FieldImages, 120, 90),
		pngUpload(t, FieldImages, 90, 120),
		pngUpload(t, FieldImages, 64, 64),
	}

	result, err := s.ResizeTourImages(context.Background(), "abc", &cover, gallery)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "tour-abc-1700000000001-cover.jpeg", result.ImageCover)
	require.Len(t, result.Images, 3)
	for i, name := range result.Images {
		assert.Regexp(t, `^tour-abc-\d+-`+string(rune('1'+i))+`\.jpeg$`, name)
	}

	for _, name := range append([]string{result.ImageCover}, result.Images...) {
		img, err := imaging.Open(filepath.Join(s.Dir(), name))
		require.NoError(t, err, name)
		assert.Equal(t, 2000, img.Bounds().Dx(), name)
		assert.Equal(t, 1333, img.Bounds().Dy(), name)
	}

	changes := result.Changes()
	assert.Equal(t, result.ImageCover, changes["imageCover"])
	assert.Equal(t, result.Images, changes["images"])
}

func TestResizeTourImagesNeedsBothGroups(t *testing.T) {
	s := newTestImageService(t)
	cover := pngUpload(t, FieldImageCover, 30, 20)

	result, err := s.ResizeTourImages(context.Background(), "abc", &cover, nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = s.ResizeTourImages(context.Background(), "abc", nil, []Upload{cover})
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err), "nothing should be written")
}

func TestResizeTourImagesFailsOnBadGalleryImage(t *testing.T) {
	s := newTestImageService(t)
	cover := pngUpload(t, FieldImageCover, 30, 20)
	broken := Upload{Field: FieldImages, MIMEType: "image/png", Buffer: []byte("not a png")}

	result, err := s.ResizeTourImages(context.Background(), "abc", &cover, []Upload{broken})
	require.Error(t, err)
	assert.Nil(t, result)

	_, statErr := os.Stat(filepath.Join(s.Dir(), "tour-abc-1700000000001-cover.jpeg"))
	assert.NoError(t, statErr, "cover written before the failure stays in place")
}

func TestFilterImage(t *testing.T) {
	ok, err := FilterImage("image/jpeg")
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = FilterImage("application/pdf")
	assert.False(t, ok)
	requireBadRequest(t, err, NotAnImageMessage)
}

func TestTourImagesChangesNil(t *testing.T) {
	var ti *TourImages
	assert.Empty(t, ti.Changes())
}
