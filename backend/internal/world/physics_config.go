package world

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// WorldPhysicsConfig содержит глобальные настройки физики трассы
type WorldPhysicsConfig struct {
	// Настройки гравитации
	GravityX float64 `mapstructure:"gravity_x"`
	GravityY float64 `mapstructure:"gravity_y"`
	GravityZ float64 `mapstructure:"gravity_z"`

	// Материалы статической геометрии
	WallRestitution     float64 `mapstructure:"wall_restitution"`
	WallFriction        float64 `mapstructure:"wall_friction"`
	FloorRestitution    float64 `mapstructure:"floor_restitution"`
	FloorFriction       float64 `mapstructure:"floor_friction"`
	ObstacleRestitution float64 `mapstructure:"obstacle_restitution"`
	ObstacleFriction    float64 `mapstructure:"obstacle_friction"`
	GoalRestitution     float64 `mapstructure:"goal_restitution"`
	GoalFriction        float64 `mapstructure:"goal_friction"`
}

// Gravity возвращает вектор гравитации
func (c WorldPhysicsConfig) Gravity() mgl64.Vec3 {
	return mgl64.Vec3{c.GravityX, c.GravityY, c.GravityZ}
}

// PlayerConfig содержит настройки шара игрока
type PlayerConfig struct {
	Radius         float64 `mapstructure:"radius"`
	Density        float64 `mapstructure:"density"`
	Restitution    float64 `mapstructure:"restitution"`
	Friction       float64 `mapstructure:"friction"`
	LinearDamping  float64 `mapstructure:"linear_damping"`
	AngularDamping float64 `mapstructure:"angular_damping"`

	// Точка появления
	SpawnX float64 `mapstructure:"spawn_x"`
	SpawnY float64 `mapstructure:"spawn_y"`
	SpawnZ float64 `mapstructure:"spawn_z"`
}

// Spawn возвращает точку появления игрока
func (c PlayerConfig) Spawn() mgl64.Vec3 {
	return mgl64.Vec3{c.SpawnX, c.SpawnY, c.SpawnZ}
}

// ControlConfig содержит настройки управления
type ControlConfig struct {
	// Импульсы в секунду, умножаются на dt кадра
	BaseImpulse float64 `mapstructure:"base_impulse"`
	BaseTorque  float64 `mapstructure:"base_torque"`

	JumpImpulse     float64 `mapstructure:"jump_impulse"`
	JumpPolicy      string  `mapstructure:"jump_policy"`
	RayOffset       float64 `mapstructure:"ray_offset"`
	RayMaxDistance  float64 `mapstructure:"ray_max_distance"`
	GroundTolerance float64 `mapstructure:"ground_tolerance"`
}

// PhysicsConfig объединяет все конфигурации
type PhysicsConfig struct {
	World   WorldPhysicsConfig `mapstructure:"world"`
	Player  PlayerConfig       `mapstructure:"player"`
	Control ControlConfig      `mapstructure:"control"`
}

var (
	physicsConfig PhysicsConfig
	configMutex   sync.RWMutex
)

func init() {
	physicsConfig = DefaultPhysicsConfig()
}

// DefaultPhysicsConfig возвращает настройки по умолчанию
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		World: WorldPhysicsConfig{
			GravityX: 0.0,
			GravityY: -9.81,
			GravityZ: 0.0,

			WallRestitution:     0.2,
			WallFriction:        0.0,
			FloorRestitution:    0.2,
			FloorFriction:       1.0,
			ObstacleRestitution: 0.2,
			ObstacleFriction:    0.0,
			GoalRestitution:     0.2,
			GoalFriction:        0.0,
		},

		Player: PlayerConfig{
			Radius:         0.3,
			Density:        1.0,
			Restitution:    0.2,
			Friction:       1.0,
			LinearDamping:  0.5,
			AngularDamping: 0.5,

			SpawnX: 0.0,
			SpawnY: 1.0,
			SpawnZ: 0.0,
		},

		Control: ControlConfig{
			BaseImpulse:     0.6,
			BaseTorque:      0.2,
			JumpImpulse:     0.5,
			JumpPolicy:      "grounded",
			RayOffset:       0.31,
			RayMaxDistance:  10.0,
			GroundTolerance: 0.15,
		},
	}
}

// SetPhysicsConfig устанавливает новую конфигурацию физики
func SetPhysicsConfig(config PhysicsConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()
	physicsConfig = config
}

// GetWorldConfig возвращает только конфигурацию мира
func GetWorldConfig() WorldPhysicsConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return physicsConfig.World
}

// GetPlayerConfig возвращает только конфигурацию игрока
func GetPlayerConfig() PlayerConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return physicsConfig.Player
}
