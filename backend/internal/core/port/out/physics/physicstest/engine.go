// Package physicstest содержит записывающую реализацию physics.Engine для тестов
package physicstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/port/out/physics"
)

// Методы Engine, используемые в Call.Method и Engine.Fail
const (
	MethodCreateBody      = "CreateBody"
	MethodRemoveBody      = "RemoveBody"
	MethodApplyImpulse    = "ApplyImpulse"
	MethodApplyTorque     = "ApplyTorqueImpulse"
	MethodNextTranslation = "SetNextKinematicTranslation"
	MethodNextRotation    = "SetNextKinematicRotation"
	MethodCastRay         = "CastRay"
	MethodTransform       = "Transform"
	MethodStep            = "Step"
)

// Call один записанный вызов
type Call struct {
	Method string
	Handle physics.Handle
	Vec    mgl64.Vec3
	Quat   mgl64.Quat
	Dt     float64
	Ray    physics.Ray
	Solid  bool
	MaxToi float64
}

// Engine фиктивный движок: запоминает вызовы, не симулирует.
// Step переносит заданные кинематические цели в позы тел.
type Engine struct {
	mu sync.Mutex

	next       physics.Handle
	Bodies     map[physics.Handle]physics.BodyDesc
	Transforms map[physics.Handle]physics.Transform
	Calls      []Call

	// RayHit возвращается из CastRay, nil означает промах
	RayHit *physics.RayHit

	// Fail заставляет метод вернуть ошибку
	Fail map[string]error
}

// New создает пустой фиктивный движок
func New() *Engine {
	return &Engine{
		Bodies:     make(map[physics.Handle]physics.BodyDesc),
		Transforms: make(map[physics.Handle]physics.Transform),
		Fail:       make(map[string]error),
	}
}

func (e *Engine) record(c Call) error {
	e.Calls = append(e.Calls, c)
	return e.Fail[c.Method]
}

func (e *Engine) known(h physics.Handle) error {
	if _, ok := e.Bodies[h]; !ok {
		return fmt.Errorf("%w: %d", physics.ErrUnknownBody, h)
	}
	return nil
}

func (e *Engine) CreateBody(_ context.Context, desc physics.BodyDesc) (physics.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodCreateBody, Vec: desc.Translation}); err != nil {
		return 0, err
	}
	e.next++
	e.Bodies[e.next] = desc
	e.Transforms[e.next] = physics.Transform{Translation: desc.Translation, Rotation: desc.Orientation()}
	return e.next, nil
}

func (e *Engine) RemoveBody(_ context.Context, h physics.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodRemoveBody, Handle: h}); err != nil {
		return err
	}
	if err := e.known(h); err != nil {
		return err
	}
	delete(e.Bodies, h)
	delete(e.Transforms, h)
	return nil
}

func (e *Engine) ApplyImpulse(_ context.Context, h physics.Handle, impulse mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodApplyImpulse, Handle: h, Vec: impulse}); err != nil {
		return err
	}
	return e.known(h)
}

func (e *Engine) ApplyTorqueImpulse(_ context.Context, h physics.Handle, torque mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodApplyTorque, Handle: h, Vec: torque}); err != nil {
		return err
	}
	return e.known(h)
}

func (e *Engine) SetNextKinematicTranslation(_ context.Context, h physics.Handle, translation mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodNextTranslation, Handle: h, Vec: translation}); err != nil {
		return err
	}
	if err := e.known(h); err != nil {
		return err
	}
	tr := e.Transforms[h]
	tr.Translation = translation
	e.Transforms[h] = tr
	return nil
}

func (e *Engine) SetNextKinematicRotation(_ context.Context, h physics.Handle, rotation mgl64.Quat) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodNextRotation, Handle: h, Quat: rotation}); err != nil {
		return err
	}
	if err := e.known(h); err != nil {
		return err
	}
	tr := e.Transforms[h]
	tr.Rotation = rotation
	e.Transforms[h] = tr
	return nil
}

func (e *Engine) CastRay(_ context.Context, ray physics.Ray, maxDistance float64, solid bool) (*physics.RayHit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodCastRay, Ray: ray, MaxToi: maxDistance, Solid: solid}); err != nil {
		return nil, err
	}
	if e.RayHit == nil {
		return nil, nil
	}
	hit := *e.RayHit
	return &hit, nil
}

func (e *Engine) Transform(_ context.Context, h physics.Handle) (physics.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.record(Call{Method: MethodTransform, Handle: h}); err != nil {
		return physics.Transform{}, err
	}
	if err := e.known(h); err != nil {
		return physics.Transform{}, err
	}
	return e.Transforms[h], nil
}

func (e *Engine) Step(_ context.Context, dt float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.record(Call{Method: MethodStep, Dt: dt})
}

// SetTranslation подменяет позу тела, как будто его сдвинула симуляция
func (e *Engine) SetTranslation(h physics.Handle, translation mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tr := e.Transforms[h]
	tr.Translation = translation
	e.Transforms[h] = tr
}

// CallsOf возвращает копию вызовов указанного метода
func (e *Engine) CallsOf(method string) []Call {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Call
	for _, c := range e.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods возвращает последовательность имен методов
func (e *Engine) Methods() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.Calls))
	for i, c := range e.Calls {
		out[i] = c.Method
	}
	return out
}

// Reset очищает журнал вызовов
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = nil
}

var _ physics.Engine = (*Engine)(nil)
