package course

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Геометрия трассы. Ось движения -Z, один сегмент на Spacing единиц.
const (
	Spacing        = 4.0
	SegmentWidth   = 4.0
	FloorThickness = 0.2

	ObstacleLift = 0.3

	WallThickness = 0.3
	WallHeight    = 1.5

	LimboLift  = 1.3
	AxeLift    = 0.7
	AxeSwing   = 1.25
	SpeedFloor = 0.2

	GoalAsset = "hamburger.glb"
)

var upAxis = mgl64.Vec3{0, 1, 0}

// Box прямоугольный объем в координатах сегмента
type Box struct {
	Center      mgl64.Vec3 `json:"center"`
	HalfExtents mgl64.Vec3 `json:"half_extents"`
}

// Size полный размер по осям
func (b Box) Size() mgl64.Vec3 {
	return b.HalfExtents.Mul(2)
}

// Pose целевая поза кинематического тела.
// Флаги показывают, какие компоненты задает функция движения.
type Pose struct {
	Translation       mgl64.Vec3
	Rotation          mgl64.Quat
	DrivesTranslation bool
	DrivesRotation    bool
}

// MotionFunc вычисляет позу препятствия в момент t
type MotionFunc func(base mgl64.Vec3, seed MotionSeed, t float64) Pose

// SeedFunc выполняет одноразовую выборку параметров экземпляра
type SeedFunc func(rng Rand) MotionSeed

// Entry запись каталога: статическая геометрия и поведение типа сегмента
type Entry struct {
	Kind Kind

	// Плитка пола, только визуальная: коллизию пола дает Bounds
	Floor Box

	// Кинематическое препятствие, nil для Start/End
	Obstacle *Box

	// Статичный финишный объект, только у End
	Goal  *Box
	Asset string

	Seed   SeedFunc
	Motion MotionFunc
}

func floorTile(y float64) Box {
	return Box{
		Center:      mgl64.Vec3{0, y, 0},
		HalfExtents: mgl64.Vec3{SegmentWidth / 2, FloorThickness / 2, Spacing / 2},
	}
}

func obstacleBox(sx, sy, sz float64) *Box {
	return &Box{
		Center:      mgl64.Vec3{0, ObstacleLift, 0},
		HalfExtents: mgl64.Vec3{sx / 2, sy / 2, sz / 2},
	}
}

var catalog = map[Kind]Entry{
	KindStart: {
		Kind:  KindStart,
		Floor: floorTile(-0.1),
	},
	KindEnd: {
		Kind:  KindEnd,
		Floor: floorTile(0),
		// приближение выпуклой оболочки модели бургера
		Goal: &Box{
			Center:      mgl64.Vec3{0, 0.4, 0},
			HalfExtents: mgl64.Vec3{0.5, 0.4, 0.5},
		},
		Asset: GoalAsset,
	},
	KindSpinner: {
		Kind:     KindSpinner,
		Floor:    floorTile(-0.1),
		Obstacle: obstacleBox(3.5, 0.3, 0.3),
		Seed:     spinnerSeed,
		Motion:   spinnerMotion,
	},
	KindLimbo: {
		Kind:     KindLimbo,
		Floor:    floorTile(-0.1),
		Obstacle: obstacleBox(3.5, 0.3, 0.3),
		Seed:     phaseSeed,
		Motion:   limboMotion,
	},
	KindAxe: {
		Kind:     KindAxe,
		Floor:    floorTile(-0.1),
		Obstacle: obstacleBox(1.5, 1.5, 0.3),
		Seed:     phaseSeed,
		Motion:   axeMotion,
	},
}

// Lookup возвращает запись каталога для типа
func Lookup(kind Kind) (Entry, bool) {
	entry, ok := catalog[kind]
	return entry, ok
}

func spinnerSeed(rng Rand) MotionSeed {
	magnitude := rng.Float64() + SpeedFloor
	sign := -1.0
	if rng.Float64() > 0.5 {
		sign = 1.0
	}
	return MotionSeed{Speed: magnitude * sign}
}

func phaseSeed(rng Rand) MotionSeed {
	return MotionSeed{Phase: rng.Float64() * 2 * math.Pi}
}

func spinnerMotion(base mgl64.Vec3, seed MotionSeed, t float64) Pose {
	return Pose{
		Translation:    base.Add(mgl64.Vec3{0, ObstacleLift, 0}),
		Rotation:       mgl64.QuatRotate(t*seed.Speed, upAxis),
		DrivesRotation: true,
	}
}

func limboMotion(base mgl64.Vec3, seed MotionSeed, t float64) Pose {
	return Pose{
		Translation:       mgl64.Vec3{base.X(), base.Y() + math.Sin(t+seed.Phase) + LimboLift, base.Z()},
		Rotation:          mgl64.QuatIdent(),
		DrivesTranslation: true,
	}
}

func axeMotion(base mgl64.Vec3, seed MotionSeed, t float64) Pose {
	return Pose{
		Translation:       mgl64.Vec3{base.X() + math.Sin(t+seed.Phase)*AxeSwing, base.Y() + AxeLift, base.Z()},
		Rotation:          mgl64.QuatIdent(),
		DrivesTranslation: true,
	}
}
