package local

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/port/out/physics"
)

// contact точка касания шара динамического тела с коллайдером другого тела.
// Normal направлена от другого тела к шару.
type contact struct {
	point       mgl64.Vec3
	normal      mgl64.Vec3
	penetration float64
	material    physics.Material
}

func collide(a, other *body, c physics.Collider) (contact, bool) {
	sphere := a.colliders[0]
	center := a.pos

	var (
		ct contact
		ok bool
	)
	switch c.Shape {
	case physics.ShapeSphere:
		ct, ok = sphereSphere(center, sphere.Radius, other.colliderCenter(c), c.Radius)
	case physics.ShapeBox:
		ct, ok = sphereBox(center, sphere.Radius, other.colliderCenter(c), other.rot, c.HalfExtents)
	}
	if !ok {
		return contact{}, false
	}
	ct.material = physics.Material{
		Restitution: (sphere.Material.Restitution + c.Material.Restitution) / 2,
		Friction:    (sphere.Material.Friction + c.Material.Friction) / 2,
	}
	return ct, true
}

func sphereSphere(ca mgl64.Vec3, ra float64, cb mgl64.Vec3, rb float64) (contact, bool) {
	d := ca.Sub(cb)
	dist := d.Len()
	if dist >= ra+rb {
		return contact{}, false
	}
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		n = d.Mul(1 / dist)
	}
	return contact{
		point:       cb.Add(n.Mul(rb)),
		normal:      n,
		penetration: ra + rb - dist,
	}, true
}

func sphereBox(c mgl64.Vec3, r float64, boxCenter mgl64.Vec3, rot mgl64.Quat, half mgl64.Vec3) (contact, bool) {
	local := rot.Conjugate().Rotate(c.Sub(boxCenter))

	var clamped mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		clamped[i] = mgl64.Clamp(local[i], -half[i], half[i])
		if clamped[i] != local[i] {
			inside = false
		}
	}

	if inside {
		// центр внутри: выталкиваем через ближайшую грань
		axis, depth := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := half[i] - math.Abs(local[i]); d < depth {
				axis, depth = i, d
			}
		}
		var n mgl64.Vec3
		n[axis] = 1
		if local[axis] < 0 {
			n[axis] = -1
		}
		face := local
		face[axis] = half[axis] * n[axis]
		return contact{
			point:       boxCenter.Add(rot.Rotate(face)),
			normal:      rot.Rotate(n),
			penetration: r + depth,
		}, true
	}

	diff := local.Sub(clamped)
	dist := diff.Len()
	if dist >= r {
		return contact{}, false
	}
	return contact{
		point:       boxCenter.Add(rot.Rotate(clamped)),
		normal:      rot.Rotate(diff.Mul(1 / dist)),
		penetration: r - dist,
	}, true
}

// resolve разводит тела и применяет импульсы отскока и трения.
// other неподвижен или кинематический, если его invMass равен нулю.
func resolve(a, other *body, ct contact) {
	n := ct.normal
	totalInv := a.invMass + other.invMass

	correction := n.Mul(ct.penetration / totalInv)
	a.pos = a.pos.Add(correction.Mul(a.invMass))
	other.pos = other.pos.Sub(correction.Mul(other.invMass))

	radius := a.colliders[0].Radius
	rA := n.Mul(-radius)
	rel := a.vel.Add(a.ang.Cross(rA)).Sub(other.velocityAt(ct.point))

	vn := rel.Dot(n)
	if vn >= 0 {
		return
	}

	e := ct.material.Restitution
	if -vn < RestitutionThreshold {
		e = 0
	}
	// для шара rA параллелен нормали, вращательный вклад равен нулю
	j := -(1 + e) * vn / totalInv
	impulse := n.Mul(j)
	a.vel = a.vel.Add(impulse.Mul(a.invMass))
	other.vel = other.vel.Sub(impulse.Mul(other.invMass))

	tangent := rel.Sub(n.Mul(vn))
	speed := tangent.Len()
	if speed < 1e-9 {
		return
	}
	t := tangent.Mul(1 / speed)

	// эффективная масса по касательной с учетом вращения шара
	k := totalInv + radius*radius*a.invInertia
	jt := math.Min(speed/k, ct.material.Friction*j)
	friction := t.Mul(-jt)

	a.vel = a.vel.Add(friction.Mul(a.invMass))
	a.ang = a.ang.Add(rA.Cross(friction).Mul(a.invInertia))
	other.vel = other.vel.Sub(friction.Mul(other.invMass))
}
