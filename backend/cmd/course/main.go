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

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"x-course/backend/internal/adapter/in/ws"
	"x-course/backend/internal/adapter/out/physics/grpcphys"
	"x-course/backend/internal/adapter/out/physics/local"
	"x-course/backend/internal/config"
	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/domain/service"
	"x-course/backend/internal/core/port/out/physics"
	"x-course/backend/internal/game"
	"x-course/backend/internal/logging"
	"x-course/backend/internal/world"
)

func main() {
	fs := pflag.NewFlagSet("course", pflag.ExitOnError)
	config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("course server stopped")
	}
}

// newEngine подключает движок по engine.backend
func newEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (physics.Engine, func() error, error) {
	gravity := cfg.Physics.World.Gravity()

	if cfg.Engine.Backend != config.BackendGRPC {
		engine := local.New(local.Config{Gravity: gravity}, logging.Component(logger, "LocalPhysics"))
		return engine, func() error { return nil }, nil
	}

	client, err := grpcphys.Dial(cfg.Engine.Address, logging.Component(logger, "PhysicsClient"))
	if err != nil {
		return nil, nil, fmt.Errorf("dialing physics server %s: %w", cfg.Engine.Address, err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Engine.DialTimeout)
	defer cancel()
	if err := client.SetGravity(dialCtx, gravity); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("configuring physics server: %w", err)
	}

	logger.Info().Str("address", cfg.Engine.Address).Msg("connected to physics server")
	return client, client.Close, nil
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world.SetPhysicsConfig(cfg.Physics)

	engine, closeEngine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	kinds, err := cfg.Course.ParsedKinds()
	if err != nil {
		return err
	}

	manager := world.NewManager()
	factory := world.NewFactory(manager, engine, logging.Component(logger, "CourseFactory"))
	session := service.NewSession(engine, factory, service.Options{
		SegmentCount: cfg.Course.SegmentCount,
		Kinds:        kinds,
		Seed:         cfg.Course.SeedPtr(),
		Player:       cfg.PlayerControls(),
	}, logging.Component(logger, "Session"))

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("building course: %w", err)
	}

	metrics, err := game.NewMetrics(func() int64 { return int64(manager.Count()) })
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	controls := input.NewState()
	server := ws.NewServer(session, controls, manager, cfg.Server.PingInterval, logging.Component(logger, "WebSocket"))
	defer server.Close()

	driver := game.NewDriver(engine, session, manager, metrics, logging.Component(logger, "Driver"))
	ticker := game.NewGameTicker(cfg.Ticker.TargetTPS, metrics, logging.Component(logger, "GameTicker"))
	frames := game.NewFrameSystem(ctx, driver, controls, logging.Component(logger, "FrameSystem"))
	defer frames.Close()
	ticker.RegisterSystem(frames)
	ticker.RegisterSystem(game.NewNetworkSyncSystem(ticker, manager, server, cfg.Server.UpdateInterval, logging.Component(logger, "NetworkSync")))
	ticker.RegisterSystem(game.NewGameMetricsSystem(ticker, driver, logging.Component(logger, "GameMetrics")))

	if err := ticker.Start(); err != nil {
		return fmt.Errorf("starting ticker: %w", err)
	}
	defer ticker.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Int("tps", cfg.Ticker.TargetTPS).Msg("course server listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
