package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/deppfellow/tours/internal/config"
	"github.com/deppfellow/tours/internal/database"
	"github.com/deppfellow/tours/internal/lib/utils"
	"github.com/deppfellow/tours/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var dryRun bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
}

var dbIndexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the indexes of the tours and reviews collections",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(ctx context.Context, db *database.Database, log *zerolog.Logger, _ []string) error {
		return db.EnsureIndexes(ctx, log)
	}),
}

var dbImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Insert the tours of a JSON array file",
	Long: `Insert the tours of a JSON array file. Dates are RFC 3339 strings
and tours without createdAt get the current time. With --dry-run the
decoded tours are printed and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: importTours,
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every tour",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(ctx context.Context, db *database.Database, log *zerolog.Logger, _ []string) error {
		n, err := db.DeleteTours(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("deleted", n).Msg("tours deleted")
		return nil
	}),
}

func importTours(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	tours, err := database.DecodeTours(f, time.Now().UTC())
	if err != nil {
		return err
	}

	if dryRun {
		return utils.PrintJSON(cmd.OutOrStdout(), tours)
	}

	return withDatabase(func(ctx context.Context, db *database.Database, log *zerolog.Logger, _ []string) error {
		n, err := db.ImportTours(ctx, tours)
		if err != nil {
			return err
		}
		log.Info().Int("imported", n).Str("file", args[0]).Msg("tours imported")
		return nil
	})(cmd, args)
}

// withDatabase loads the config, connects to MongoDB without the rest of
// the server and runs fn with a bounded context.
func withDatabase(fn func(ctx context.Context, db *database.Database, log *zerolog.Logger, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log := logger.NewLogger(cfg.Observability)

		db, err := database.New(cfg, &log, nil)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), DefaultContextTimeout)
		defer cancel()

		defer func() {
			if err := db.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to close database connection")
			}
		}()

		return fn(ctx, db, &log, args)
	}
}

func init() {
	dbImportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the decoded tours without writing them")

	dbCmd.AddCommand(dbIndexesCmd, dbImportCmd, dbDeleteCmd)
	rootCmd.AddCommand(dbCmd)
}
