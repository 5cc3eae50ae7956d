package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-browser/internal/config"
	"github.com/rocketscienceinc/tictactoe-browser/internal/repository"
	"github.com/rocketscienceinc/tictactoe-browser/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-browser/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-browser/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-browser/transport/rest"
	"github.com/rocketscienceinc/tictactoe-browser/transport/websocket"
	"golang.org/x/sync/errgroup"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sessionRepo, closeStorage, err := newSessionRepository(ctx, log, conf)
	if err != nil {
		return err
	}

	defer closeStorage()

	sessionManager := usecase.NewSessionManager(
		logger,
		sessionRepo,
		tictactoe.NewRandomPolicy(),
		tictactoe.NewTimerScheduler(),
		conf.Game,
	)

	wsServer := websocket.New(logger, sessionManager, conf.Game.SessionTTL)
	router := rest.NewRouter(logger, sessionManager, wsServer)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := rest.Start(ctx, conf.HTTPPort, router); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		return sessionManager.Run(ctx)
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func newSessionRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.SessionRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewMemorySessionRepository(conf.Game.SessionTTL), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewSessionRepository(redisStorage, conf.Game.SessionTTL), closeStorage, nil
}
