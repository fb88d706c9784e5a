package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iliyamo/bloodbank/internal/config"
	"github.com/iliyamo/bloodbank/internal/database"
	"github.com/iliyamo/bloodbank/internal/handler"
	"github.com/iliyamo/bloodbank/internal/logging"
	"github.com/iliyamo/bloodbank/internal/queue"
	"github.com/iliyamo/bloodbank/internal/repository"
	"github.com/iliyamo/bloodbank/internal/router"
	"github.com/iliyamo/bloodbank/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := database.Open(ctx, database.Options{
		User:         cfg.DBUser,
		Pass:         cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	users := repository.NewUserRepo(db)
	if err := service.EnsureAdmin(ctx, users, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost, log); err != nil {
		return err
	}

	rdb := config.NewRedisClient(ctx, cfg.Redis) // nil when disabled or unreachable
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn(ctx, "redis unavailable; cache and rate limiting disabled")
	}

	var wg sync.WaitGroup
	if cfg.AMQPURL != "" {
		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.EventLogPath, Log: log.With("component", "event-consumer")}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "event consumer stopped", "err", err)
			}
		}()
	}

	donations := repository.NewDonationRepo(db)
	evaluator := service.NewEvaluator(donations, time.Now)
	ledger := service.NewLedger(service.LedgerDeps{
		DB:        db,
		Publisher: service.NewPublisher(cfg.AMQPURL, log),
		Log:       log.With("component", "ledger"),
	})

	e := router.New(router.Handlers{
		DB:        db,
		Auth:      handler.NewAuthHandler(cfg, users),
		Profile:   handler.NewProfileHandler(users, evaluator),
		Inventory: handler.NewInventoryHandler(repository.NewInventoryRepo(db)),
		Donation:  handler.NewDonationHandler(users, donations, ledger),
		Request:   handler.NewRequestHandler(repository.NewRequestRepo(db), ledger),
		Support:   handler.NewSupportHandler(repository.NewSupportRepo(db)),
		Dashboard: handler.NewDashboardHandler(users, evaluator, repository.NewAppointmentRepo(db), repository.NewActivityRepo(db)),
		Admin:     handler.NewAdminHandler(users),
	}, router.Options{Cfg: cfg, Redis: rdb, Log: log})

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	err = e.Shutdown(shutdownCtx)
	cancel() // stops the consumer
	wg.Wait()
	return err
}
