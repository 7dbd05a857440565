package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/port/out/physics"
)

// Role назначение объекта на трассе
type Role string

const (
	RoleFloorTile Role = "floor_tile"
	RoleWall      Role = "wall"
	RoleObstacle  Role = "obstacle"
	RoleGoal      Role = "goal"
	RolePlayer    Role = "player"
)

// Object объект трассы, видимый рендеру.
// Handle равен 0 у чисто визуальных объектов.
type Object struct {
	ID       string
	Role     Role
	Kind     course.Kind
	Segment  int
	Handle   physics.Handle
	BodyType physics.BodyType
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Shape    *ShapeDescriptor
	Asset    string
}

// Moving true для тел, позу которых нужно синхронизировать каждый кадр
func (o Object) Moving() bool {
	return o.Handle != 0 && o.BodyType != physics.BodyFixed
}

type ShapeDescriptor struct {
	Type   ShapeType
	Sphere *SphereData
	Box    *BoxData
}

type ShapeType int

const (
	SPHERE ShapeType = iota
	BOX
)

func (t ShapeType) String() string {
	if t == SPHERE {
		return "sphere"
	}
	return "box"
}

type SphereData struct {
	Radius float64
	Mass   float64
	Color  string
}

type BoxData struct {
	Width  float64
	Height float64
	Depth  float64
	Color  string
}

// Цвета материалов трассы
const (
	ColorStartFloor = "limegreen"
	ColorFloor      = "greenyellow"
	ColorObstacle   = "orangered"
	ColorWall       = "slategrey"
	ColorPlayer     = "mediumpurple"
)

func boxShape(b course.Box, color string) *ShapeDescriptor {
	size := b.Size()
	return &ShapeDescriptor{
		Type: BOX,
		Box:  &BoxData{Width: size.X(), Height: size.Y(), Depth: size.Z(), Color: color},
	}
}
