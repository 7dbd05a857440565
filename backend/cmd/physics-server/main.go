package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"x-course/backend/internal/adapter/out/physics/grpcphys"
	"x-course/backend/internal/adapter/out/physics/local"
	"x-course/backend/internal/config"
	"x-course/backend/internal/logging"
)

func main() {
	fs := pflag.NewFlagSet("physics-server", pflag.ExitOnError)
	config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("physics server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Engine.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Engine.ListenAddr, err)
	}

	engine := local.New(local.Config{Gravity: cfg.Physics.World.Gravity()}, logging.Component(logger, "LocalPhysics"))
	srv := grpc.NewServer()
	grpcphys.Register(srv, grpcphys.NewServer(engine, logging.Component(logger, "PhysicsServer")))

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		srv.GracefulStop()
	}()

	logger.Info().Str("addr", lis.Addr().String()).Msg("physics server listening")
	return srv.Serve(lis)
}
