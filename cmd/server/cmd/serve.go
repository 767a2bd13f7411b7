package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eventhub/backend/config"
	"github.com/eventhub/backend/internal/auth"
	"github.com/eventhub/backend/internal/comments"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/notify"
	"github.com/eventhub/backend/internal/realtime"
	"github.com/eventhub/backend/internal/rsvps"
	"github.com/eventhub/backend/internal/server"
	"github.com/eventhub/backend/internal/worker"
	"github.com/eventhub/backend/pkg/database"
	"github.com/eventhub/backend/pkg/mailer"
	"github.com/eventhub/backend/pkg/queue"
	"github.com/eventhub/backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

type serveOptions struct {
	migrate    bool
	withWorker bool
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, logger)
		},
	}
	c.Flags().BoolVar(&opts.migrate, "migrate", true, "apply pending migrations before serving")
	c.Flags().BoolVar(&opts.withWorker, "with-worker", false, "process the e-mail queue in this process (requires Redis)")
	return c
}

func runServe(ctx context.Context, opts *serveOptions, logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if opts.migrate {
		if err := database.MigrateUp(cfg.Database.DSN()); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	users := auth.NewRepository(pool)
	g, gctx := errgroup.WithContext(ctx)

	var (
		hub      *realtime.Hub
		notifier rsvps.Notifier
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
		jobs := queue.NewQueue(rdb.Client, logger)
		notifier = notify.NewRSVPNotifier(users, jobs, cfg.Email.BaseURL, logger)

		if opts.withWorker {
			processor := worker.NewEmailProcessor(jobs, mailer.FromConfig(cfg.Email, logger), logger)
			g.Go(func() error {
				processor.Run(gctx)
				return nil
			})
		}
	} else {
		logger.Warn("REDIS_ADDR not set: comment feed is local to this process and RSVP mails are disabled")
		if opts.withWorker {
			return errors.New("--with-worker requires REDIS_ADDR")
		}
	}

	srv := server.New(cfg, server.Stores{
		Users:    users,
		Events:   events.NewRepository(pool),
		RSVPs:    rsvps.NewRepository(pool),
		Comments: comments.NewRepository(pool),
	}, server.Deps{Notifier: notifier, Hub: hub, DB: pool}, logger)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			_ = httpSrv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
