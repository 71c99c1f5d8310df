// Package database owns the MongoDB client.
//
// It handles:
//   - building client options from config (server API, pool sizes)
//   - command monitoring: local debug logs, slow command warnings and
//     optional New Relic instrumentation (nrmongo)
//   - index migrations and dev-data import used by the CLI
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/tours/internal/config"
	loggerPkg "github.com/deppfellow/tours/internal/logger"
	"github.com/newrelic/go-agent/v3/integrations/nrmongo"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database wraps the MongoDB client and the application database.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
	log    *zerolog.Logger
}

// DatabasePingTimeout is the number of seconds to wait for the first ping.
const DatabasePingTimeout = 10

// New connects to MongoDB and pings the primary.
//
// In the local environment every command is logged at debug level; in all
// environments commands slower than the configured threshold are logged at
// warn level. With New Relic enabled the monitor is wrapped by nrmongo so
// commands show up as datastore segments.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Database, error) {
	var slowThreshold time.Duration
	if cfg.Observability != nil {
		slowThreshold = cfg.Observability.Logging.SlowQueryThreshold
	}

	monitor := newCommandMonitor(logger, cfg.IsLocal(), slowThreshold)
	if loggerService != nil && loggerService.GetApplication() != nil {
		monitor = nrmongo.NewCommandMonitor(monitor)
	}

	clientOptions := options.Client().
		ApplyURI(cfg.Database.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetAppName("tours").
		SetMonitor(monitor)

	if cfg.Database.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.Database.MaxPoolSize)
	}
	if cfg.Database.MinPoolSize > 0 {
		clientOptions.SetMinPoolSize(cfg.Database.MinPoolSize)
	}
	if cfg.Database.MaxConnIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(cfg.Database.MaxConnIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("database", cfg.Database.Name).Msg("connected to the database")

	return &Database{
		Client: client,
		DB:     client.Database(cfg.Database.Name),
		log:    logger,
	}, nil
}

// Ping checks that the primary is reachable.
func (db *Database) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, waiting for in-flight operations.
func (db *Database) Close(ctx context.Context) error {
	db.log.Info().Msg("closing database connection")
	return db.Client.Disconnect(ctx)
}
