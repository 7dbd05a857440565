package course

import "github.com/go-gl/mathgl/mgl64"

// MotionSeed параметры экземпляра, выбираемые один раз при генерации.
// Phase используется Limbo и Axe, Speed используется Spinner.
type MotionSeed struct {
	Phase float64 `json:"phase"`
	Speed float64 `json:"speed"`
}

// Segment экземпляр сегмента на трассе
type Segment struct {
	Kind     Kind        `json:"kind"`
	Index    int         `json:"index"`
	Position mgl64.Vec3  `json:"position"`
	Motion   *MotionSeed `json:"motion,omitempty"`
}

// Bounds статическая оболочка трассы в мировых координатах.
// Стенки у старта нет: трасса открыта со стороны входа.
type Bounds struct {
	Length    int `json:"length"`
	Floor     Box `json:"floor"`
	LeftWall  Box `json:"left_wall"`
	RightWall Box `json:"right_wall"`
	EndWall   Box `json:"end_wall"`
}

// Walls возвращает стенки в порядке правая, левая, торцевая
func (b Bounds) Walls() []Box {
	return []Box{b.RightWall, b.LeftWall, b.EndWall}
}

// NewBounds строит оболочку для трассы из length сегментов
func NewBounds(length int) Bounds {
	l := float64(length)
	courseDepth := l * Spacing
	midZ := -courseDepth/2 + Spacing/2
	halfWidth := SegmentWidth / 2

	sideWall := func(x float64) Box {
		return Box{
			Center:      mgl64.Vec3{x, WallHeight / 2, midZ},
			HalfExtents: mgl64.Vec3{WallThickness / 2, WallHeight / 2, courseDepth / 2},
		}
	}

	return Bounds{
		Length: length,
		Floor: Box{
			Center:      mgl64.Vec3{0, -0.1, -l*Spacing/2 + Spacing/2},
			HalfExtents: mgl64.Vec3{halfWidth, 0.1, l * Spacing / 2},
		},
		RightWall: sideWall(halfWidth + WallThickness/2),
		LeftWall:  sideWall(-halfWidth - WallThickness/2),
		EndWall: Box{
			Center:      mgl64.Vec3{0, WallHeight / 2, -courseDepth + Spacing/2 - WallThickness/2},
			HalfExtents: mgl64.Vec3{halfWidth, WallHeight / 2, WallThickness / 2},
		},
	}
}

// Layout сгенерированная трасса. Порядок сегментов совпадает с порядком прохождения.
type Layout struct {
	Segments []Segment `json:"segments"`
	Bounds   Bounds    `json:"bounds"`

	// Seed генерации, nil для несидированной трассы
	Seed *uint64 `json:"seed,omitempty"`
}

// TotalLength число сегментов вместе со Start и End
func (l *Layout) TotalLength() int {
	return len(l.Segments)
}

// Interior возвращает сегменты между Start и End
func (l *Layout) Interior() []Segment {
	if len(l.Segments) < 2 {
		return nil
	}
	return l.Segments[1 : len(l.Segments)-1]
}

// End последний сегмент трассы
func (l *Layout) End() Segment {
	return l.Segments[len(l.Segments)-1]
}

// PositionAt мировая позиция сегмента с индексом i
func PositionAt(index int) mgl64.Vec3 {
	return mgl64.Vec3{0, 0, -float64(index) * Spacing}
}
