package database

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/event"
)

// commandLogger logs MongoDB commands through zerolog.
//
// The driver reports start and finish separately; inflight keeps the command
// name and target collection until the matching finish event arrives.
type commandLogger struct {
	log           zerolog.Logger
	verbose       bool
	slowThreshold time.Duration
	inflight      sync.Map // request id -> startedCommand
}

type startedCommand struct {
	name       string
	database   string
	collection string
}

func newCommandMonitor(logger *zerolog.Logger, verbose bool, slowThreshold time.Duration) *event.CommandMonitor {
	cl := &commandLogger{
		log:           logger.With().Str("component", "mongo").Logger(),
		verbose:       verbose,
		slowThreshold: slowThreshold,
	}

	return &event.CommandMonitor{
		Started:   cl.started,
		Succeeded: cl.succeeded,
		Failed:    cl.failed,
	}
}

func (cl *commandLogger) started(_ context.Context, e *event.CommandStartedEvent) {
	cmd := startedCommand{name: e.CommandName, database: e.DatabaseName}
	if v, err := e.Command.LookupErr(e.CommandName); err == nil {
		cmd.collection, _ = v.StringValueOK()
	}
	cl.inflight.Store(e.RequestID, cmd)

	if cl.verbose {
		cl.log.Debug().
			Str("command", e.CommandName).
			Str("db", e.DatabaseName).
			Str("collection", cmd.collection).
			Int64("request_id", e.RequestID).
			Msg("mongo command started")
	}
}

func (cl *commandLogger) succeeded(_ context.Context, e *event.CommandSucceededEvent) {
	cmd := cl.finish(e.RequestID)

	if cl.slowThreshold > 0 && e.Duration >= cl.slowThreshold {
		cl.log.Warn().
			Str("command", e.CommandName).
			Str("collection", cmd.collection).
			Dur("duration", e.Duration).
			Dur("threshold", cl.slowThreshold).
			Msg("slow mongo command")
		return
	}

	if cl.verbose {
		cl.log.Debug().
			Str("command", e.CommandName).
			Str("collection", cmd.collection).
			Dur("duration", e.Duration).
			Msg("mongo command succeeded")
	}
}

func (cl *commandLogger) failed(_ context.Context, e *event.CommandFailedEvent) {
	cmd := cl.finish(e.RequestID)

	cl.log.Warn().
		Str("command", e.CommandName).
		Str("collection", cmd.collection).
		Dur("duration", e.Duration).
		Str("failure", e.Failure).
		Msg("mongo command failed")
}

func (cl *commandLogger) finish(requestID int64) startedCommand {
	v, ok := cl.inflight.LoadAndDelete(requestID)
	if !ok {
		return startedCommand{}
	}
	return v.(startedCommand)
}
