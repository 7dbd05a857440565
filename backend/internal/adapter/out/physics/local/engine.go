// Package local реализует physics.Engine в процессе: полу-неявный Эйлер,
// динамические шары против шаров и ориентированных параллелепипедов.
package local

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/port/out/physics"
)

// RestitutionThreshold скорость сближения, ниже которой отскок не применяется
const RestitutionThreshold = 1.0

// Config параметры мира
type Config struct {
	Gravity mgl64.Vec3
}

func DefaultConfig() Config {
	return Config{Gravity: mgl64.Vec3{0, -9.81, 0}}
}

type body struct {
	handle physics.Handle
	typ    physics.BodyType

	pos mgl64.Vec3
	rot mgl64.Quat
	vel mgl64.Vec3
	ang mgl64.Vec3

	linDamping float64
	angDamping float64
	colliders  []physics.Collider

	invMass    float64
	invInertia float64

	nextPos *mgl64.Vec3
	nextRot *mgl64.Quat
}

// colliderCenter центр коллайдера в мировых координатах
func (b *body) colliderCenter(c physics.Collider) mgl64.Vec3 {
	return b.pos.Add(b.rot.Rotate(c.Offset))
}

// velocityAt скорость точки тела
func (b *body) velocityAt(p mgl64.Vec3) mgl64.Vec3 {
	return b.vel.Add(b.ang.Cross(p.Sub(b.pos)))
}

// Engine движок в памяти процесса. Безопасен для конкурентного доступа,
// но рассчитан на один поток симуляции.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	logger zerolog.Logger

	next   physics.Handle
	bodies map[physics.Handle]*body
	order  []*body
}

func New(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger,
		bodies: make(map[physics.Handle]*body),
	}
}

func (e *Engine) lookup(h physics.Handle) (*body, error) {
	b, ok := e.bodies[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", physics.ErrUnknownBody, h)
	}
	return b, nil
}

func validateCollider(c physics.Collider) error {
	switch c.Shape {
	case physics.ShapeSphere:
		if c.Radius <= 0 {
			return fmt.Errorf("sphere radius must be positive, got %v", c.Radius)
		}
	case physics.ShapeBox:
		h := c.HalfExtents
		if h.X() < 0 || h.Y() < 0 || h.Z() < 0 {
			return fmt.Errorf("box half extents must not be negative, got %v", h)
		}
	default:
		return fmt.Errorf("%w: %s", physics.ErrUnsupportedShape, c.Shape)
	}
	return nil
}

func (e *Engine) CreateBody(_ context.Context, desc physics.BodyDesc) (physics.Handle, error) {
	for _, c := range desc.Colliders {
		if err := validateCollider(c); err != nil {
			return 0, err
		}
	}

	b := &body{
		typ:        desc.Type,
		pos:        desc.Translation,
		rot:        desc.Orientation(),
		linDamping: desc.LinearDamping,
		angDamping: desc.AngularDamping,
		colliders:  append([]physics.Collider(nil), desc.Colliders...),
	}

	switch desc.Type {
	case physics.BodyFixed, physics.BodyKinematic:
	case physics.BodyDynamic:
		// динамическими бывают только одиночные шары с центром в начале тела
		if len(desc.Colliders) != 1 || desc.Colliders[0].Shape != physics.ShapeSphere || desc.Colliders[0].Offset != (mgl64.Vec3{}) {
			return 0, fmt.Errorf("%w: dynamic bodies must be a single centered sphere", physics.ErrUnsupportedShape)
		}
		c := desc.Colliders[0]
		density := c.Density
		if density <= 0 {
			density = 1
		}
		mass := density * 4.0 / 3.0 * math.Pi * c.Radius * c.Radius * c.Radius
		b.invMass = 1 / mass
		b.invInertia = 1 / (0.4 * mass * c.Radius * c.Radius)
	default:
		return 0, fmt.Errorf("unknown body type %s", desc.Type)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	b.handle = e.next
	e.bodies[b.handle] = b
	e.order = append(e.order, b)

	e.logger.Debug().
		Uint64("handle", uint64(b.handle)).
		Str("type", b.typ.String()).
		Int("colliders", len(b.colliders)).
		Msg("body created")

	return b.handle, nil
}

func (e *Engine) RemoveBody(_ context.Context, h physics.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.lookup(h); err != nil {
		return err
	}
	delete(e.bodies, h)
	for i, b := range e.order {
		if b.handle == h {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

func (e *Engine) dynamic(h physics.Handle) (*body, error) {
	b, err := e.lookup(h)
	if err != nil {
		return nil, err
	}
	if b.typ != physics.BodyDynamic {
		return nil, fmt.Errorf("%w: %s body %d", physics.ErrWrongBodyType, b.typ, h)
	}
	return b, nil
}

func (e *Engine) kinematic(h physics.Handle) (*body, error) {
	b, err := e.lookup(h)
	if err != nil {
		return nil, err
	}
	if b.typ != physics.BodyKinematic {
		return nil, fmt.Errorf("%w: %s body %d", physics.ErrWrongBodyType, b.typ, h)
	}
	return b, nil
}

func (e *Engine) ApplyImpulse(_ context.Context, h physics.Handle, impulse mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.dynamic(h)
	if err != nil {
		return err
	}
	b.vel = b.vel.Add(impulse.Mul(b.invMass))
	return nil
}

func (e *Engine) ApplyTorqueImpulse(_ context.Context, h physics.Handle, torque mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.dynamic(h)
	if err != nil {
		return err
	}
	b.ang = b.ang.Add(torque.Mul(b.invInertia))
	return nil
}

func (e *Engine) SetNextKinematicTranslation(_ context.Context, h physics.Handle, translation mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.kinematic(h)
	if err != nil {
		return err
	}
	b.nextPos = &translation
	return nil
}

func (e *Engine) SetNextKinematicRotation(_ context.Context, h physics.Handle, rotation mgl64.Quat) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.kinematic(h)
	if err != nil {
		return err
	}
	r := rotation.Normalize()
	b.nextRot = &r
	return nil
}

func (e *Engine) Transform(_ context.Context, h physics.Handle) (physics.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lookup(h)
	if err != nil {
		return physics.Transform{}, err
	}
	return physics.Transform{Translation: b.pos, Rotation: b.rot}, nil
}

// Velocity линейная и угловая скорость тела
func (e *Engine) Velocity(h physics.Handle) (linear, angular mgl64.Vec3, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lookup(h)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, err
	}
	return b.vel, b.ang, nil
}

// SetGravity меняет гравитацию мира
func (e *Engine) SetGravity(g mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Gravity = g
}

// Bodies число тел в мире
func (e *Engine) Bodies() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

func (e *Engine) Step(ctx context.Context, dt float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dt <= 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.order {
		switch b.typ {
		case physics.BodyKinematic:
			moveKinematic(b, dt)
		case physics.BodyDynamic:
			e.integrate(b, dt)
		}
	}

	for i, a := range e.order {
		if a.typ != physics.BodyDynamic {
			continue
		}
		for j, other := range e.order {
			if i == j || (other.typ == physics.BodyDynamic && j < i) {
				continue
			}
			for _, c := range other.colliders {
				if contact, ok := collide(a, other, c); ok {
					resolve(a, other, contact)
				}
			}
		}
	}
	return nil
}

// moveKinematic переносит тело в заданную позу и выводит из смещения
// скорость, которую видят контакты
func moveKinematic(b *body, dt float64) {
	b.vel = mgl64.Vec3{}
	b.ang = mgl64.Vec3{}

	if b.nextPos != nil {
		b.vel = b.nextPos.Sub(b.pos).Mul(1 / dt)
		b.pos = *b.nextPos
		b.nextPos = nil
	}
	if b.nextRot != nil {
		delta := b.nextRot.Mul(b.rot.Conjugate())
		if delta.W < 0 {
			delta = delta.Scale(-1)
		}
		w := math.Min(delta.W, 1)
		angle := 2 * math.Acos(w)
		if s := math.Sqrt(1 - w*w); s > 1e-9 {
			b.ang = delta.V.Mul(angle / s / dt)
		}
		b.rot = *b.nextRot
		b.nextRot = nil
	}
}

func (e *Engine) integrate(b *body, dt float64) {
	b.vel = b.vel.Add(e.cfg.Gravity.Mul(dt))
	b.vel = b.vel.Mul(1 / (1 + dt*b.linDamping))
	b.ang = b.ang.Mul(1 / (1 + dt*b.angDamping))

	b.pos = b.pos.Add(b.vel.Mul(dt))
	if b.ang.LenSqr() > 0 {
		spin := mgl64.Quat{V: b.ang}.Mul(b.rot).Scale(0.5 * dt)
		b.rot = b.rot.Add(spin).Normalize()
	}
}

var _ physics.Engine = (*Engine)(nil)
