// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
	"github.com/unclebandit/prospecting-dashboard/internal/controller"
	"github.com/unclebandit/prospecting-dashboard/internal/db"
	"github.com/unclebandit/prospecting-dashboard/internal/handler"
	"github.com/unclebandit/prospecting-dashboard/internal/logging"
	"github.com/unclebandit/prospecting-dashboard/internal/queue"
	"github.com/unclebandit/prospecting-dashboard/internal/repository"
	"github.com/unclebandit/prospecting-dashboard/internal/service"
	"github.com/unclebandit/prospecting-dashboard/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB; this is the only failure that ends the process at startup
	conn, dialect, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	targets, err := cfg.WorkflowRoutes()
	if err != nil {
		return err
	}
	routes := workflow.NewRoutes(targets)
	if len(routes.Kinds()) == 0 {
		logger.Warn("no workflow webhooks configured; every launch will be rejected")
	}
	client := workflow.NewClient(cfg.Workflow.Timeout)

	q, closeQueue, err := openQueue(cfg, client, logger)
	if err != nil {
		return err
	}
	defer closeQueue()

	userRepo := &repository.UserRepository{DB: conn, Dialect: dialect}
	sessionRepo := &repository.SessionRepository{DB: conn, Dialect: dialect}
	campaignRepo := &repository.CampaignRepository{DB: conn, Dialect: dialect}
	cityRepo := &repository.CityRepository{DB: conn, Dialect: dialect}

	authService := &service.AuthService{
		Users:       userRepo,
		Sessions:    sessionRepo,
		TTL:         cfg.Session.TTL,
		RememberTTL: cfg.Session.RememberTTL,
		Logger:      logger,
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		CityRepo:     cityRepo,
		Admission:    &service.AdmissionController{Repo: campaignRepo, Limit: cfg.CampaignLimit, Logger: logger},
		Routes:       routes,
		Workflow:     client,
		Queue:        q,
		Topic:        cfg.AMQPQueue,
		Logger:       logger,
	}

	cookies, err := handler.NewCookieCodec(cfg.Session)
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:    cfg,
		Auth:      &handler.AuthHandler{Auth: authService, Cookies: cookies, Logger: logger},
		Pages:     &handler.PageHandler{Campaigns: campaignService, Logger: logger},
		Campaigns: &controller.CampaignController{CampaignService: campaignService, Logger: logger},
		DB:        conn,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running",
			zap.String("addr", srv.Addr),
			zap.Int("campaign_limit", cfg.CampaignLimit),
			zap.Strings("workflow_kinds", routes.Kinds()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return authService.RunSweeper(gctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openQueue picks RabbitMQ when AMQP_URL is set and the in-process queue
// otherwise. The in-process queue relays events itself; with RabbitMQ the
// worker binary does that.
func openQueue(cfg *config.Config, client *workflow.Client, logger *zap.Logger) (queue.Queue, func(), error) {
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("publishing campaign events to RabbitMQ", zap.String("queue", cfg.AMQPQueue))
		return q, func() { _ = q.Close() }, nil
	}

	q := queue.NewInMemoryQueue(logger)
	relay := &queue.EventRelay{Notifier: client, ControlURL: cfg.Workflow.ControlWebhook, Logger: logger}
	if err := queue.StartEventRelay(q, cfg.AMQPQueue, relay); err != nil {
		return nil, nil, err
	}
	return q, q.Wait, nil
}
