package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/tradepay/internal/config"
	"github.com/congo-pay/tradepay/internal/httpx"
	"github.com/congo-pay/tradepay/internal/notification"
	"github.com/congo-pay/tradepay/internal/routes"
)

// Server wraps the Fiber application, shared dependencies and background workers.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	db     *pgxpool.Pool
	cache  *redis.Client
	logger *slog.Logger
	worker *notification.Worker

	stopWorker context.CancelFunc
	workerDone chan struct{}
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: httpx.ErrorHandler(logger),
	})

	notifier, worker := buildNotifier(cfg, cache, logger)

	if _, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Notifier: notifier}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache, logger: logger, worker: worker}, nil
}

// buildNotifier picks the delivery channel: SMTP when configured, else the logger.
// With NOTIFY_QUEUE and Redis, senders enqueue and a worker delivers.
func buildNotifier(cfg config.Config, cache *redis.Client, logger *slog.Logger) (notification.Notifier, *notification.Worker) {
	var delivery notification.Notifier = notification.NewLoggerNotifier(logger)
	if cfg.SMTP.Host != "" {
		delivery = notification.NewSMTPNotifier(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	if cfg.NotifyQueue == "" || cache == nil {
		return delivery, nil
	}
	worker := notification.NewWorker(cache, cfg.NotifyQueue, delivery, logger, cfg.NotifyTimeout)
	return notification.NewQueueNotifier(cache, cfg.NotifyQueue), worker
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// StartWorkers launches background workers. Call it once, before Listen.
func (s *Server) StartWorkers() {
	if s.worker == nil || s.stopWorker != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWorker = cancel
	s.workerDone = make(chan struct{})
	go func() {
		defer close(s.workerDone)
		s.worker.Run(ctx)
	}()
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, then the notification worker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.stopWorker != nil {
		s.stopWorker()
		select {
		case <-s.workerDone:
		case <-ctx.Done():
			s.logger.Warn("notification worker did not stop before shutdown deadline")
		}
	}
	return err
}
