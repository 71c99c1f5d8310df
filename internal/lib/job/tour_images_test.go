package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("jpeg"), 0o644))
	}
}

func TestNewDeleteTourImagesTask(t *testing.T) {
	task, err := NewDeleteTourImagesTask("5c88fa8cf4afda39709c2955", []string{"a.jpeg", "b.jpeg"})
	require.NoError(t, err)

	assert.Equal(t, TaskDeleteTourImages, task.Type())

	var p DeleteTourImagesPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "5c88fa8cf4afda39709c2955", p.TourID)
	assert.Equal(t, []string{"a.jpeg", "b.jpeg"}, p.Files)
}

func TestRemoveImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tour-1-cover.jpeg", "tour-1-1.jpeg", "other.jpeg")

	removed, err := RemoveImages(dir, []string{"tour-1-cover.jpeg", "tour-1-1.jpeg", "tour-1-2.jpeg", ""})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = os.Stat(filepath.Join(dir, "other.jpeg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tour-1-cover.jpeg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveImagesRejectsPaths(t *testing.T) {
	_, err := RemoveImages(t.TempDir(), []string{"../config.env"})
	require.Error(t, err)
}

func TestHandleDeleteTourImagesTask(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tour-2-cover.jpeg")

	logger := zerolog.Nop()
	j := &JobService{logger: &logger, imagesDir: dir}

	task, err := NewDeleteTourImagesTask("2", []string{"tour-2-cover.jpeg"})
	require.NoError(t, err)
	require.NoError(t, j.handleDeleteTourImagesTask(context.Background(), task))

	_, err = os.Stat(filepath.Join(dir, "tour-2-cover.jpeg"))
	assert.True(t, os.IsNotExist(err))

	err = j.handleDeleteTourImagesTask(context.Background(), asynq.NewTask(TaskDeleteTourImages, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
