package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curator-bot/internal/bootstrap"
	"curator-bot/internal/config"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/server"
	"curator-bot/internal/tracer"
	"curator-bot/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	root := &cobra.Command{
		Use:           "curator",
		Short:         "Chat-driven content curation bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the HTTP server and the event consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before starting")
	return cmd
}

func serve(ctx context.Context, migrateFirst bool) error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.App, sysLogger)
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "development")
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if migrateFirst {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		if _, err := database.Migrate(ctx, sqlDB); err != nil {
			return err
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger)
	if err != nil {
		return err
	}
	defer container.Close()

	// 4. Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	var sink server.UpdateSink
	if cfg.Telegram.Mode == "webhook" {
		sink = container.Source
	}
	srv := server.New(cfg, container.SQLDB, sink, sysLogger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return container.Dispatcher.Run(ctx, container.Source.Events())
	})

	if cfg.Telegram.Mode == "webhook" {
		url := cfg.App.BaseURL + "/telegram/webhook/" + cfg.Telegram.WebhookSecret
		if err := container.Source.RegisterWebhook(ctx, url, cfg.Telegram.WebhookSecret); err != nil {
			return err
		}
	} else {
		g.Go(func() error {
			return container.Source.Poll(ctx)
		})
	}

	g.Go(srv.Run)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	sysLogger.Info("Main", "Curator bot started", map[string]interface{}{
		"telegram_mode": cfg.Telegram.Mode,
		"port":          cfg.App.Port,
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	sysLogger.Info("Main", "Curator bot stopped", nil)
	return nil
}

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the content store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if !statusOnly {
				results, err := database.Migrate(cmd.Context(), sqlDB)
				for _, r := range results {
					color.Green("applied %s (%s)", r.Source.Path, r.Duration)
				}
				if err != nil {
					return err
				}
				if len(results) == 0 {
					color.Cyan("nothing to migrate")
				}
			}

			statuses, err := database.MigrationStatus(cmd.Context(), sqlDB)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				if s.AppliedAt.IsZero() {
					color.Yellow("pending  %s", s.Source.Path)
				} else {
					color.Green("applied  %s at %s", s.Source.Path, s.AppliedAt.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print migration status")
	return cmd
}
