package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deppfellow/tours/internal/config"
	"github.com/disintegration/imaging"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// TourImages are the filenames written for one update.
type TourImages struct {
	ImageCover string
	Images     []string
}

// Changes returns the fields to set on the tour.
func (ti *TourImages) Changes() bson.M {
	if ti == nil {
		return bson.M{}
	}
	return bson.M{
		"imageCover": ti.ImageCover,
		"images":     ti.Images,
	}
}

// ImageService resizes uploaded tour images and writes them as JPEG.
type ImageService struct {
	dir     string
	width   int
	height  int
	quality int
	now     func() time.Time
}

func NewImageService(cfg *config.ImagesConfig) *ImageService {
	if cfg == nil {
		cfg = config.DefaultImagesConfig()
	}

	return &ImageService{
		dir:     cfg.Dir,
		width:   cfg.Width,
		height:  cfg.Height,
		quality: cfg.Quality,
		now:     time.Now,
	}
}

// Dir is where images are written and served from.
func (s *ImageService) Dir() string {
	return s.dir
}

// ResizeTourImages writes the cover and gallery images of tour tourID.
//
// Nothing is done unless both a cover and at least one gallery image are
// given; the result is then nil. The cover is written first, then the
// gallery images concurrently. Gallery filenames keep the input order. The
// first failure is returned and files already written are left in place.
func (s *ImageService) ResizeTourImages(ctx context.Context, tourID string, cover *Upload, gallery []Upload) (*TourImages, error) {
	if cover == nil || len(gallery) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	result := &TourImages{
		ImageCover: s.filename(tourID, "cover"),
		Images:     make([]string, len(gallery)),
	}
	if err := s.resize(cover.Buffer, result.ImageCover); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, up := range gallery {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			name := s.filename(tourID, fmt.Sprint(i+1))
			if err := s.resize(up.Buffer, name); err != nil {
				return err
			}
			result.Images[i] = name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// filename is tour-<id>-<unix millis>-<suffix>.jpeg.
func (s *ImageService) filename(tourID, suffix string) string {
	return fmt.Sprintf("tour-%s-%d-%s.jpeg", tourID, s.now().UnixMilli(), suffix)
}

func (s *ImageService) resize(buf []byte, name string) error {
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	img = imaging.Fill(img, s.width, s.height, imaging.Center, imaging.Lanczos)

	if err := imaging.Save(img, filepath.Join(s.dir, name), imaging.JPEGQuality(s.quality)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}
