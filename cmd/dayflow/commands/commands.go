package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayflow/core/internal/adapters/repository"
	"github.com/dayflow/core/internal/adapters/transport"
	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/config"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/infrastructure/server"
	"github.com/dayflow/core/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Dayflow API server",
		Long:  "Start the local Dayflow API server with all configured routes and middleware",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) error {
				if err := db.MigrateUp(); err != nil {
					return err
				}
				fmt.Println("Migrations applied")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) error {
				if err := db.MigrateDown(); err != nil {
					return err
				}
				fmt.Println("Migrations rolled back")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) error {
				version, dirty, err := db.MigrationVersion()
				if err != nil {
					return err
				}
				fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
				return nil
			})
		},
	})

	return migrateCmd
}

// NewSyncCommand creates the one-shot sync command
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass against the configured shared file",
		Run: func(cmd *cobra.Command, args []string) {
			withDatabase(func(db *database.DB) error {
				cfg, appLogger, err := loadRuntime()
				if err != nil {
					return err
				}
				defer appLogger.Close()

				itemRepo := repository.NewItemRepository(db)
				moodRepo := repository.NewMoodRepository(db)
				settingsRepo := repository.NewSettingsRepository(db)

				remoteTransport := transport.NewDriveTransport(cfg.Sync.FetchTimeout, appLogger)
				snapshotService := services.NewSnapshotService(itemRepo, moodRepo, settingsRepo, appLogger)
				syncService := services.NewSyncService(remoteTransport, snapshotService, settingsRepo, appLogger)

				result, err := syncService.Sync(context.Background())
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}

				out, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(out))
				return nil
			})
		},
	}
}

// NewBackupCommand creates the backup export/import commands
func NewBackupCommand() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore a full data snapshot",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a full snapshot of all user data to a file",
		Run: func(cmd *cobra.Command, args []string) {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				log.Fatal("--out is required")
			}

			withDatabase(func(db *database.DB) error {
				snapshotService, appLogger, err := newSnapshotService(db)
				if err != nil {
					return err
				}
				defer appLogger.Close()

				snap, err := snapshotService.Export(context.Background())
				if err != nil {
					return err
				}

				payload, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, payload, 0o644); err != nil {
					return err
				}

				fmt.Printf("Exported %d tasks, %d habit entries to %s\n",
					len(snap.Data.Tasks), len(snap.Data.Habits), out)
				return nil
			})
		},
	}
	exportCmd.Flags().String("out", "", "Output file path (required)")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all local data with a snapshot file",
		Run: func(cmd *cobra.Command, args []string) {
			in, _ := cmd.Flags().GetString("in")
			keepClock, _ := cmd.Flags().GetBool("keep-clock")
			if in == "" {
				log.Fatal("--in is required")
			}

			withDatabase(func(db *database.DB) error {
				snapshotService, appLogger, err := newSnapshotService(db)
				if err != nil {
					return err
				}
				defer appLogger.Close()

				payload, err := os.ReadFile(in)
				if err != nil {
					return err
				}

				var snap entities.Snapshot
				if err := json.Unmarshal(payload, &snap); err != nil {
					return fmt.Errorf("parse snapshot: %w", err)
				}

				stats, err := snapshotService.Import(context.Background(), &snap, ports.ImportOptions{
					PreserveLocalTimestamp: keepClock,
				})
				if err != nil {
					return err
				}

				fmt.Printf("Imported %d tasks, %d habit entries, %d settings\n",
					stats.Tasks, stats.Habits, stats.Settings)
				return nil
			})
		},
	}
	importCmd.Flags().String("in", "", "Snapshot file path (required)")
	importCmd.Flags().Bool("keep-clock", false, "Leave the local modification timestamp untouched")

	backupCmd.AddCommand(exportCmd)
	backupCmd.AddCommand(importCmd)
	return backupCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Dayflow version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Dayflow Core v1.0.0")
		},
	}
}

func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

func newSnapshotService(db *database.DB) (*services.SnapshotService, *logger.Logger, error) {
	_, appLogger, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}

	itemRepo := repository.NewItemRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	return services.NewSnapshotService(itemRepo, moodRepo, settingsRepo, appLogger), appLogger, nil
}

func withDatabase(fn func(db *database.DB) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := fn(db); err != nil {
		log.Fatalf("%v", err)
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		appLogger.Fatal("Failed to apply migrations", "error", err)
	}

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	appLogger.Info("Starting Dayflow API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
	)

	go func() {
		if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil {
			appLogger.Info("Server stopped", "reason", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
}
