package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rxpad/rxpad/internal/config"
	"github.com/rxpad/rxpad/internal/platform/db"
	"github.com/rxpad/rxpad/migrations"
)

const version = "0.1.0"

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "rxpad-server",
		Short: "Prescription pad API server",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Additional .env file to load before reading the environment")

	loadConfig := func() (*config.Config, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(serveCmd(loadConfig))
	rootCmd.AddCommand(migrateCmd(loadConfig))
	rootCmd.AddCommand(userCmd(loadConfig))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cfg, newLogger(cfg))
		},
	}
}

func migrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run Postgres schema migrations",
	}

	// migrationFiles returns the embedded files unless --dir points elsewhere.
	migrationFiles := func(cmd *cobra.Command) fs.FS {
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			return os.DirFS(dir)
		}
		return migrations.FS
	}

	withMigrator := func(cmd *cobra.Command, fn func(context.Context, *db.Migrator) error) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != config.StorePostgres {
			return fmt.Errorf("migrations only apply to STORE_DRIVER=%s (current: %s)", config.StorePostgres, cfg.StoreDriver)
		}

		ctx := context.Background()
		pool, err := db.NewPool(ctx, poolOptions(cfg))
		if err != nil {
			return err
		}
		defer pool.Close()

		return fn(ctx, db.NewMigrator(pool, migrationFiles(cmd)))
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Println("---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the operator account",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the configured operator account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			created, err := seedOperator(ctx, cfg, st, logger)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Created user %q.\n", cfg.SeedUsername)
			} else {
				fmt.Printf("User %q already exists; nothing to do.\n", cfg.SeedUsername)
			}
			return nil
		},
	})

	return cmd
}
