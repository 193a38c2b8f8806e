package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file if it is missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", r.configPath)
		}
	}

	config := r.conf()
	r.logger.Info("initializing database", "path", config.Database.Path)

	if err := r.database(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if store, err := r.lyricCache(); err != nil {
		r.logger.Warn("failed to create cache directory", "error", err)
	} else if store != nil {
		r.logger.Info("cache ready", "dir", store.Path())
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// rawDatabase opens the configured database without migrating it.
func (r *Runner) rawDatabase() (*sql.DB, error) {
	config := r.conf()
	if config.Database.Path != ":memory:" {
		if _, err := os.Stat(config.Database.Path); err != nil {
			return nil, fmt.Errorf("%w: database %s not found, run 'lrcx setup database'", shared.ErrMissingConfig, config.Database.Path)
		}
	}
	db, err := shared.NewDatabase(shared.DSN(config.Database.Path))
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, 1, 1)
	return db, nil
}

// SetupStatus prints each migration and when it was applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations: " + r.conf().Database.Path)
	for _, s := range states {
		if s.Applied && s.AppliedAt != nil {
			r.writePlain("  %s %04d  applied %s\n", r.palette.OK("✓"), s.Version, s.AppliedAt.Format("2006-01-02 15:04:05"))
		} else {
			r.writePlain("  %s %04d  pending\n", r.palette.Warn("•"), s.Version)
		}
	}
	return nil
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.logger.Info("rolled back latest migration", "database", r.conf().Database.Path)
	return nil
}

// SetupConfig writes the default config file, or prints the effective configuration with --print.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("print") {
		if err := toml.NewEncoder(r.output).Encode(r.conf()); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(r.configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return r.writePlain("%s Config written to %s\n", r.palette.OK("✓"), r.configPath)
}

// SetupHeaders stores a browser cURL command whose headers are replayed on every mirror request.
func (r *Runner) SetupHeaders(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	raw := []byte(curlCmd)
	if curlFile != "" {
		data, err := os.ReadFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to read cURL file: %w", err)
		}
		raw = data
	}

	headers, err := shared.ParseCurlCommand(raw)
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}
	r.logger.Debug("parsed cURL command", "headers", len(headers.Headers))

	if outputPath == "" {
		outputPath = r.conf().Provider.HeadersFile
	}
	if outputPath == "" {
		outputPath = "headers.sh"
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	r.logger.Info("headers saved", "path", outputPath)

	r.writePlain("%s Captured request headers\n", r.palette.OK("✓"))
	r.writePlain("%s\n", headers)
	r.writePlainln("Next steps:")
	r.writePlain("1. Update %s with: provider.headers_file = \"%s\"\n", r.configPath, outputPath)
	r.writePlain("2. Run 'lrcx fetch --artist ... --title ...' to test the mirrors\n")

	return nil
}
