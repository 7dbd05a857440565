package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/domain/player"
	"x-course/backend/internal/world"
)

const (
	BackendLocal = "local"
	BackendGRPC  = "grpc"
)

// Config полная конфигурация сервера трассы
type Config struct {
	Server  ServerConfig        `mapstructure:"server"`
	Ticker  TickerConfig        `mapstructure:"ticker"`
	Course  CourseConfig        `mapstructure:"course"`
	Engine  EngineConfig        `mapstructure:"engine"`
	Physics world.PhysicsConfig `mapstructure:"physics"`
	Log     LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
}

type TickerConfig struct {
	TargetTPS int `mapstructure:"target_tps"`
}

// CourseConfig параметры генерации трассы.
// Seed учитывается только при Seeded=true, иначе каждая генерация случайна.
type CourseConfig struct {
	SegmentCount int      `mapstructure:"segment_count"`
	Kinds        []string `mapstructure:"kinds"`
	Seed         uint64   `mapstructure:"seed"`
	Seeded       bool     `mapstructure:"seeded"`
}

// EngineConfig выбирает реализацию физического движка
type EngineConfig struct {
	Backend     string        `mapstructure:"backend"`
	Address     string        `mapstructure:"address"`
	ListenAddr  string        `mapstructure:"listen_addr"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SeedPtr возвращает seed генерации или nil для несидированного режима
func (c CourseConfig) SeedPtr() *uint64 {
	if !c.Seeded {
		return nil
	}
	seed := c.Seed
	return &seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.update_interval", 50*time.Millisecond)
	v.SetDefault("server.ping_interval", 2*time.Second)

	v.SetDefault("ticker.target_tps", 60)

	v.SetDefault("course.segment_count", 5)
	v.SetDefault("course.kinds", []string{"spinner", "limbo", "axe"})
	v.SetDefault("course.seed", 0)
	v.SetDefault("course.seeded", false)

	v.SetDefault("engine.backend", BackendLocal)
	v.SetDefault("engine.address", "localhost:50051")
	v.SetDefault("engine.listen_addr", ":50051")
	v.SetDefault("engine.dial_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	phys := world.DefaultPhysicsConfig()
	v.SetDefault("physics.world.gravity_x", phys.World.GravityX)
	v.SetDefault("physics.world.gravity_y", phys.World.GravityY)
	v.SetDefault("physics.world.gravity_z", phys.World.GravityZ)
	v.SetDefault("physics.world.wall_restitution", phys.World.WallRestitution)
	v.SetDefault("physics.world.wall_friction", phys.World.WallFriction)
	v.SetDefault("physics.world.floor_restitution", phys.World.FloorRestitution)
	v.SetDefault("physics.world.floor_friction", phys.World.FloorFriction)
	v.SetDefault("physics.world.obstacle_restitution", phys.World.ObstacleRestitution)
	v.SetDefault("physics.world.obstacle_friction", phys.World.ObstacleFriction)
	v.SetDefault("physics.world.goal_restitution", phys.World.GoalRestitution)
	v.SetDefault("physics.world.goal_friction", phys.World.GoalFriction)

	v.SetDefault("physics.player.radius", phys.Player.Radius)
	v.SetDefault("physics.player.density", phys.Player.Density)
	v.SetDefault("physics.player.restitution", phys.Player.Restitution)
	v.SetDefault("physics.player.friction", phys.Player.Friction)
	v.SetDefault("physics.player.linear_damping", phys.Player.LinearDamping)
	v.SetDefault("physics.player.angular_damping", phys.Player.AngularDamping)
	v.SetDefault("physics.player.spawn_x", phys.Player.SpawnX)
	v.SetDefault("physics.player.spawn_y", phys.Player.SpawnY)
	v.SetDefault("physics.player.spawn_z", phys.Player.SpawnZ)

	v.SetDefault("physics.control.base_impulse", phys.Control.BaseImpulse)
	v.SetDefault("physics.control.base_torque", phys.Control.BaseTorque)
	v.SetDefault("physics.control.jump_impulse", phys.Control.JumpImpulse)
	v.SetDefault("physics.control.jump_policy", phys.Control.JumpPolicy)
	v.SetDefault("physics.control.ray_offset", phys.Control.RayOffset)
	v.SetDefault("physics.control.ray_max_distance", phys.Control.RayMaxDistance)
	v.SetDefault("physics.control.ground_tolerance", phys.Control.GroundTolerance)
}

// BindFlags регистрирует флаги командной строки, перекрывающие файл и окружение
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file (yaml or json)")
	fs.String("addr", ":8080", "websocket listen address")
	fs.Int("tps", 60, "simulation ticks per second")
	fs.Int("segments", 5, "number of interior course segments")
	fs.StringSlice("kinds", []string{"spinner", "limbo", "axe"}, "obstacle kinds to draw from")
	fs.Uint64("seed", 0, "course seed (only used with --seeded)")
	fs.Bool("seeded", false, "generate reproducible courses from --seed")
	fs.String("physics-backend", BackendLocal, "physics backend: local or grpc")
	fs.String("physics-addr", "localhost:50051", "remote physics server address")
	fs.String("physics-listen", ":50051", "physics server listen address")
	fs.String("jump-policy", "grounded", "jump policy: grounded or always")
	fs.String("log-level", "info", "log level")
	fs.String("log-format", "console", "log format: console or json")
}

var flagKeys = map[string]string{
	"addr":            "server.addr",
	"tps":             "ticker.target_tps",
	"segments":        "course.segment_count",
	"kinds":           "course.kinds",
	"seed":            "course.seed",
	"seeded":          "course.seeded",
	"physics-backend": "engine.backend",
	"physics-addr":    "engine.address",
	"physics-listen":  "engine.listen_addr",
	"jump-policy":     "physics.control.jump_policy",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// Load читает конфигурацию: значения по умолчанию, файл, переменные XCOURSE_*, флаги.
// fs может быть nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("XCOURSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := ""
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("x-course")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	if c.Ticker.TargetTPS <= 0 {
		return fmt.Errorf("ticker.target_tps must be positive, got %d", c.Ticker.TargetTPS)
	}
	if len(c.Course.Kinds) == 0 {
		return errors.New("course.kinds must not be empty")
	}
	if _, err := c.Course.ParsedKinds(); err != nil {
		return fmt.Errorf("course.kinds: %w", err)
	}
	switch c.Engine.Backend {
	case BackendLocal, BackendGRPC:
	default:
		return fmt.Errorf("unknown engine.backend %q", c.Engine.Backend)
	}
	if _, err := player.ParseJumpPolicy(c.Physics.Control.JumpPolicy); err != nil {
		return fmt.Errorf("physics.control.jump_policy: %w", err)
	}
	if c.Physics.Player.Radius <= 0 {
		return fmt.Errorf("physics.player.radius must be positive, got %v", c.Physics.Player.Radius)
	}
	return nil
}

// ParsedKinds возвращает типы сегментов для генератора
func (c CourseConfig) ParsedKinds() ([]course.Kind, error) {
	return course.ParseKinds(c.Kinds)
}

// PlayerControls переводит настройки управления в параметры контроллера игрока
func (c *Config) PlayerControls() player.Config {
	ctl := c.Physics.Control
	return player.Config{
		BaseImpulse:     ctl.BaseImpulse,
		BaseTorque:      ctl.BaseTorque,
		JumpImpulse:     ctl.JumpImpulse,
		JumpPolicy:      player.JumpPolicy(ctl.JumpPolicy),
		RayOffset:       ctl.RayOffset,
		RayMaxDistance:  ctl.RayMaxDistance,
		GroundTolerance: ctl.GroundTolerance,
	}
}
