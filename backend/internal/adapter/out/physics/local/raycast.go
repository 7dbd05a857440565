package local

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/port/out/physics"
)

// CastRay ищет ближайшее пересечение луча со всеми коллайдерами мира.
// Направление нормализуется, нулевое направление ничего не находит.
func (e *Engine) CastRay(_ context.Context, ray physics.Ray, maxDistance float64, solid bool) (*physics.RayHit, error) {
	if ray.Dir.LenSqr() == 0 || maxDistance < 0 {
		return nil, nil
	}
	ray.Dir = ray.Dir.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()

	var best *physics.RayHit
	for _, b := range e.order {
		for _, c := range b.colliders {
			var (
				toi float64
				ok  bool
			)
			center := b.colliderCenter(c)
			switch c.Shape {
			case physics.ShapeSphere:
				toi, ok = raySphere(ray, center, c.Radius, solid)
			case physics.ShapeBox:
				toi, ok = rayBox(ray, center, b.rot, c.HalfExtents, solid)
			}
			if !ok || toi > maxDistance {
				continue
			}
			if best == nil || toi < best.TimeOfImpact {
				best = &physics.RayHit{Handle: b.handle, TimeOfImpact: toi, Point: ray.PointAt(toi)}
			}
		}
	}
	return best, nil
}

func raySphere(ray physics.Ray, center mgl64.Vec3, r float64, solid bool) (float64, bool) {
	m := ray.Origin.Sub(center)
	b := m.Dot(ray.Dir)
	c := m.Dot(m) - r*r

	if c <= 0 {
		// начало внутри шара
		if solid {
			return 0, true
		}
		return -b + math.Sqrt(b*b-c), true
	}
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

func rayBox(ray physics.Ray, center mgl64.Vec3, rot mgl64.Quat, half mgl64.Vec3, solid bool) (float64, bool) {
	inv := rot.Conjugate()
	origin := inv.Rotate(ray.Origin.Sub(center))
	dir := inv.Rotate(ray.Dir)

	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < -half[i] || origin[i] > half[i] {
				return 0, false
			}
			continue
		}
		t1 := (-half[i] - origin[i]) / dir[i]
		t2 := (half[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	if tmin <= 0 {
		// начало внутри параллелепипеда
		if solid {
			return 0, true
		}
		return tmax, true
	}
	return tmin, true
}
