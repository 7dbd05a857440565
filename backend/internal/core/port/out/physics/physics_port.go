package physics

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrUnknownBody тело с таким handle не существует
	ErrUnknownBody = errors.New("physics: unknown body")
	// ErrWrongBodyType операция не поддерживается для режима движения тела
	ErrWrongBodyType = errors.New("physics: operation not supported for body type")
	// ErrUnsupportedShape форма коллайдера не поддерживается движком
	ErrUnsupportedShape = errors.New("physics: unsupported collider shape")
)

// Engine определяет интерфейс для взаимодействия с физическим движком.
// Движок владеет телами, ядро хранит только handle.
type Engine interface {
	// CreateBody создает тело с коллайдерами
	CreateBody(ctx context.Context, desc BodyDesc) (Handle, error)

	// RemoveBody удаляет тело из симуляции
	RemoveBody(ctx context.Context, h Handle) error

	// ApplyImpulse мгновенно меняет импульс динамического тела
	ApplyImpulse(ctx context.Context, h Handle, impulse mgl64.Vec3) error

	// ApplyTorqueImpulse мгновенно меняет момент импульса динамического тела
	ApplyTorqueImpulse(ctx context.Context, h Handle, torque mgl64.Vec3) error

	// SetNextKinematicTranslation задает позицию кинематического тела на следующий шаг
	SetNextKinematicTranslation(ctx context.Context, h Handle, translation mgl64.Vec3) error

	// SetNextKinematicRotation задает ориентацию кинематического тела на следующий шаг
	SetNextKinematicRotation(ctx context.Context, h Handle, rotation mgl64.Quat) error

	// CastRay возвращает ближайшее попадание или nil.
	// При solid=true луч из точки внутри формы попадает с расстоянием 0.
	CastRay(ctx context.Context, ray Ray, maxDistance float64, solid bool) (*RayHit, error)

	// Transform возвращает текущую позу тела
	Transform(ctx context.Context, h Handle) (Transform, error)

	// Step продвигает симуляцию на dt секунд
	Step(ctx context.Context, dt float64) error
}

// Handle непрозрачная ссылка на тело движка, 0 недействителен
type Handle uint64

// BodyType режим движения тела
type BodyType int

const (
	BodyFixed BodyType = iota
	BodyKinematic
	BodyDynamic
)

func (t BodyType) String() string {
	switch t {
	case BodyFixed:
		return "fixed"
	case BodyKinematic:
		return "kinematic"
	case BodyDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("body_type(%d)", int(t))
	}
}

// ShapeType форма коллайдера
type ShapeType int

const (
	ShapeSphere ShapeType = iota
	ShapeBox
)

func (s ShapeType) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Material параметры контакта
type Material struct {
	Restitution float64 `json:"restitution"`
	Friction    float64 `json:"friction"`
}

// Collider форма, закрепленная за телом со смещением Offset
type Collider struct {
	Shape       ShapeType  `json:"shape"`
	Radius      float64    `json:"radius,omitempty"`
	HalfExtents mgl64.Vec3 `json:"half_extents"`
	Offset      mgl64.Vec3 `json:"offset"`

	// Density по умолчанию 1
	Density  float64  `json:"density,omitempty"`
	Material Material `json:"material"`
}

// Sphere коллайдер-сфера
func Sphere(radius float64, m Material) Collider {
	return Collider{Shape: ShapeSphere, Radius: radius, Material: m}
}

// Cuboid коллайдер-параллелепипед по половинам размеров
func Cuboid(halfExtents, offset mgl64.Vec3, m Material) Collider {
	return Collider{Shape: ShapeBox, HalfExtents: halfExtents, Offset: offset, Material: m}
}

// BodyDesc описание создаваемого тела
type BodyDesc struct {
	Type        BodyType   `json:"type"`
	Translation mgl64.Vec3 `json:"translation"`
	Rotation    mgl64.Quat `json:"rotation"`

	LinearDamping  float64 `json:"linear_damping"`
	AngularDamping float64 `json:"angular_damping"`

	Colliders []Collider `json:"colliders"`
}

// Orientation возвращает ориентацию, нулевой кватернион трактуется как единичный
func (d BodyDesc) Orientation() mgl64.Quat {
	if d.Rotation.W == 0 && d.Rotation.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return d.Rotation.Normalize()
}

// Transform поза тела
type Transform struct {
	Translation mgl64.Vec3 `json:"translation"`
	Rotation    mgl64.Quat `json:"rotation"`
}

// Ray луч с нормированным направлением Dir
type Ray struct {
	Origin mgl64.Vec3 `json:"origin"`
	Dir    mgl64.Vec3 `json:"dir"`
}

// PointAt точка на расстоянии toi от начала
func (r Ray) PointAt(toi float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(toi))
}

// RayHit результат попадания луча
type RayHit struct {
	Handle       Handle     `json:"handle"`
	TimeOfImpact float64    `json:"toi"`
	Point        mgl64.Vec3 `json:"point"`
}
