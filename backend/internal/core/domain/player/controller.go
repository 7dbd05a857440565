package player

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/port/out/physics"
)

// JumpPolicy определяет, нужна ли опора под шаром для прыжка
type JumpPolicy string

const (
	// JumpGrounded прыжок только если луч вниз нашел опору в пределах GroundTolerance
	JumpGrounded JumpPolicy = "grounded"
	// JumpAlways луч только логируется, импульс прыжка применяется всегда
	JumpAlways JumpPolicy = "always"
)

// ParseJumpPolicy разбирает имя политики
func ParseJumpPolicy(name string) (JumpPolicy, error) {
	switch JumpPolicy(name) {
	case JumpGrounded, JumpAlways:
		return JumpPolicy(name), nil
	}
	return "", fmt.Errorf("unknown jump policy %q", name)
}

var (
	down = mgl64.Vec3{0, -1, 0}
	up   = mgl64.Vec3{0, 1, 0}
)

// Config параметры управления
type Config struct {
	// Импульс и момент в секунду удержания клавиши
	BaseImpulse float64
	BaseTorque  float64

	JumpImpulse     float64
	JumpPolicy      JumpPolicy
	RayOffset       float64
	RayMaxDistance  float64
	GroundTolerance float64
}

func DefaultConfig() Config {
	return Config{
		BaseImpulse:     0.6,
		BaseTorque:      0.2,
		JumpImpulse:     0.5,
		JumpPolicy:      JumpGrounded,
		RayOffset:       0.31,
		RayMaxDistance:  10,
		GroundTolerance: 0.15,
	}
}

// State состояние игрока, которым владеет ядро
type State struct {
	Handle          physics.Handle
	LastTranslation mgl64.Vec3
}

// Forces суммирует вклад нажатых направлений.
// Вперед/назад действуют по оси Z и вращают вокруг X, влево/вправо по X и вокруг Z.
func Forces(snap input.Snapshot, dt float64, cfg Config) (impulse, torque mgl64.Vec3) {
	s := cfg.BaseImpulse * dt
	tq := cfg.BaseTorque * dt

	if snap.Forward {
		impulse[2] -= s
		torque[0] -= tq
	}
	if snap.Backward {
		impulse[2] += s
		torque[0] += tq
	}
	if snap.Right {
		impulse[0] += s
		torque[2] -= tq
	}
	if snap.Left {
		impulse[0] -= s
		torque[2] += tq
	}
	return impulse, torque
}

// Controller переводит ввод в импульсы динамического тела игрока
type Controller struct {
	engine physics.Engine
	cfg    Config
	state  State
	logger zerolog.Logger

	prevJump bool
	jumps    uint64
}

func NewController(engine physics.Engine, handle physics.Handle, spawn mgl64.Vec3, cfg Config, logger zerolog.Logger) *Controller {
	return &Controller{
		engine: engine,
		cfg:    cfg,
		state:  State{Handle: handle, LastTranslation: spawn},
		logger: logger,
	}
}

func (c *Controller) State() State {
	return c.state
}

// Jumps число примененных импульсов прыжка
func (c *Controller) Jumps() uint64 {
	return c.jumps
}

// Observe запоминает позу тела после шага симуляции
func (c *Controller) Observe(translation mgl64.Vec3) {
	c.state.LastTranslation = translation
}

// Update применяет ввод кадра: ровно один импульс и один момент,
// прыжок только по фронту нажатия. Фронт берется из JumpPressed или из
// сравнения с прошлым кадром. При ошибке движка состояние фронта
// не меняется.
func (c *Controller) Update(ctx context.Context, snap input.Snapshot, dt float64) error {
	impulse, torque := Forces(snap, dt, c.cfg)

	if err := c.engine.ApplyImpulse(ctx, c.state.Handle, impulse); err != nil {
		return fmt.Errorf("player impulse: %w", err)
	}
	if err := c.engine.ApplyTorqueImpulse(ctx, c.state.Handle, torque); err != nil {
		return fmt.Errorf("player torque: %w", err)
	}

	if snap.JumpPressed || (snap.Jump && !c.prevJump) {
		if err := c.jump(ctx); err != nil {
			return err
		}
	}

	// нажатие, учтенное через JumpPressed, не должно сработать еще раз
	// фронтом в следующем кадре
	c.prevJump = snap.Jump || snap.JumpPressed
	return nil
}

// JumpHeld удерживался ли прыжок в последнем кадре
func (c *Controller) JumpHeld() bool {
	return c.prevJump
}

// HoldJump переносит удержание прыжка с контроллера прошлой трассы
func (c *Controller) HoldJump(held bool) {
	c.prevJump = held
}

func (c *Controller) jump(ctx context.Context) error {
	tr, err := c.engine.Transform(ctx, c.state.Handle)
	if err != nil {
		return fmt.Errorf("player transform: %w", err)
	}
	c.state.LastTranslation = tr.Translation

	ray := physics.Ray{
		Origin: tr.Translation.Sub(mgl64.Vec3{0, c.cfg.RayOffset, 0}),
		Dir:    down,
	}
	hit, err := c.engine.CastRay(ctx, ray, c.cfg.RayMaxDistance, true)
	if err != nil {
		return fmt.Errorf("player ground ray: %w", err)
	}

	grounded := hit != nil && hit.TimeOfImpact <= c.cfg.GroundTolerance

	event := c.logger.Debug().
		Bool("grounded", grounded).
		Str("policy", string(c.cfg.JumpPolicy)).
		Floats64("translation", tr.Translation[:])
	if hit != nil {
		event = event.Float64("toi", hit.TimeOfImpact).Uint64("hit_body", uint64(hit.Handle))
	}
	event.Msg("jump ray")

	if c.cfg.JumpPolicy == JumpGrounded && !grounded {
		return nil
	}

	if err := c.engine.ApplyImpulse(ctx, c.state.Handle, up.Mul(c.cfg.JumpImpulse)); err != nil {
		return fmt.Errorf("player jump: %w", err)
	}
	c.jumps++
	return nil
}
