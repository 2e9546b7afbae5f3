package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/connection"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/tcp"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

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

	results, closeResults := openResults(ctx, log, conf.Redis)
	defer closeResults()

	gameManager := usecase.NewGameManager(logger, results)
	handler := connection.NewHandler(logger, gameManager, conf.SendBuffer)

	// the game listener is the one socket the server cannot run without
	tcpListener, err := tcp.Listen(":" + conf.TCPPort)
	if err != nil {
		log.Error("TCP server error", "error", err)
		return fmt.Errorf("TCP server error: %w", err)
	}

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		tcpServer := tcp.New(logger, handler, conf.MaxMessageSize)
		if tcpErr := tcpServer.Serve(ctx, tcpListener); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpServer := rest.New(logger, gameManager, results)
		if httpErr := httpServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, handler, conf.MaxMessageSize)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openResults connects the optional result store. Games run without recording when
// it is disabled or unreachable.
func openResults(ctx context.Context, log *slog.Logger, conf config.Redis) (repository.ResultRepository, func()) {
	noop := func() {}

	if !conf.Enabled {
		return nil, noop
	}

	redisAddrString := conf.GetRedisAddr()
	if redisAddrString == ":" {
		log.Warn("Results are not recorded", "error", ErrAddrNotFound)
		return nil, noop
	}

	redisStorage, err := storage.New(ctx, redisAddrString, conf.Timeout)
	if err != nil {
		log.Warn("Results are not recorded, could not connect to redis storage", "addr", redisAddrString, "error", err)
		return nil, noop
	}

	log.Info("Recording results in redis", "addr", redisAddrString)

	return repository.NewResultRepository(redisStorage, conf.RecentResults), func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}
}
