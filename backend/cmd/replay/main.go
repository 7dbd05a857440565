package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"x-course/backend/internal/adapter/out/physics/local"
	"x-course/backend/internal/config"
	"x-course/backend/internal/logging"
	"x-course/backend/internal/replay"
	"x-course/backend/internal/world"
)

func main() {
	fs := pflag.NewFlagSet("replay", pflag.ExitOnError)
	config.BindFlags(fs)
	script := fs.String("script", "", "path to replay script (yaml)")
	_ = fs.Parse(os.Args[1:])

	if *script == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --script path.yaml [flags]")
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	world.SetPhysicsConfig(cfg.Physics)

	s, err := replay.LoadFile(*script)
	if err != nil {
		logger.Fatal().Err(err).Str("script", *script).Msg("loading replay script")
	}

	engine := local.New(local.Config{Gravity: cfg.Physics.World.Gravity()}, logging.Component(logger, "LocalPhysics"))
	result, err := replay.Run(context.Background(), s, engine, cfg.PlayerControls(), logging.Component(logger, "Replay"))
	if err != nil {
		logger.Fatal().Err(err).Msg("replay failed")
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		logger.Fatal().Err(err).Msg("encoding result")
	}
	_ = enc.Close()
}
