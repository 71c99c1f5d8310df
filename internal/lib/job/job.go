// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue: tasks are enqueued with an
// asynq.Client and processed by handlers registered on an asynq.Server.
package job

import (
	"context"

	"github.com/deppfellow/tours/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer is the producer side of the job service.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobService holds the Asynq client (enqueue) and server (workers).
type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	logger    *zerolog.Logger
	imagesDir string
}

// NewJobService creates the client and the worker server on the configured
// Redis. Critical tasks get six of every ten workers.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	imagesDir := config.DefaultImagesConfig().Dir
	if cfg.Images != nil {
		imagesDir = cfg.Images.Dir
	}

	return &JobService{
		Client:    client,
		server:    server,
		logger:    logger,
		imagesDir: imagesDir,
	}
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDeleteTourImages, j.handleDeleteTourImagesTask)
	return mux
}

// Start starts the worker server in the background.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")
	return j.server.Start(j.Mux())
}

// Stop waits for running tasks and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("closing job client")
	}
}
