package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

// TaskDeleteTourImages removes the image files of a deleted tour.
const TaskDeleteTourImages = "tour:images:delete"

// DeleteTourImagesPayload lists the files to remove, as stored on the tour
// (bare filenames inside the images directory).
type DeleteTourImagesPayload struct {
	TourID string   `json:"tour_id"`
	Files  []string `json:"files"`
}

// NewDeleteTourImagesTask builds the cleanup task for a deleted tour.
func NewDeleteTourImagesTask(tourID string, files []string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeleteTourImagesPayload{
		TourID: tourID,
		Files:  files,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDeleteTourImages,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
	), nil
}

func (j *JobService) handleDeleteTourImagesTask(ctx context.Context, t *asynq.Task) error {
	var p DeleteTourImagesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal tour images payload: %w: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", TaskDeleteTourImages).
		Str("tour_id", p.TourID).
		Int("files", len(p.Files)).
		Msg("Processing tour images cleanup task")

	removed, err := RemoveImages(j.imagesDir, p.Files)
	if err != nil {
		j.logger.Error().
			Str("type", TaskDeleteTourImages).
			Str("tour_id", p.TourID).
			Err(err).
			Msg("Failed to remove tour images")
		return err
	}

	j.logger.Info().
		Str("type", TaskDeleteTourImages).
		Str("tour_id", p.TourID).
		Int("removed", removed).
		Msg("Removed tour images")

	return nil
}

// RemoveImages deletes files from dir and returns how many were removed.
// Files that are already gone are skipped; names that try to leave dir are
// rejected.
func RemoveImages(dir string, files []string) (int, error) {
	removed := 0
	for _, name := range files {
		if name == "" {
			continue
		}
		if name != filepath.Base(name) {
			return removed, fmt.Errorf("refusing to remove %q outside the images directory", name)
		}

		err := os.Remove(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}

	return removed, nil
}
