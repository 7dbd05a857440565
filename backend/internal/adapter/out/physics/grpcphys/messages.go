package grpcphys

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/port/out/physics"
)

type CreateBodyRequest struct {
	Body physics.BodyDesc `json:"body"`
}

type CreateBodyResponse struct {
	Handle physics.Handle `json:"handle"`
}

type HandleRequest struct {
	Handle physics.Handle `json:"handle"`
}

type VectorRequest struct {
	Handle physics.Handle `json:"handle"`
	Vector mgl64.Vec3     `json:"vector"`
}

type RotationRequest struct {
	Handle   physics.Handle `json:"handle"`
	Rotation mgl64.Quat     `json:"rotation"`
}

type CastRayRequest struct {
	Ray         physics.Ray `json:"ray"`
	MaxDistance float64     `json:"max_distance"`
	Solid       bool        `json:"solid"`
}

type CastRayResponse struct {
	Hit *physics.RayHit `json:"hit,omitempty"`
}

type TransformResponse struct {
	Transform physics.Transform `json:"transform"`
}

type StepRequest struct {
	Dt float64 `json:"dt"`
}

type GravityRequest struct {
	Gravity mgl64.Vec3 `json:"gravity"`
}

type Empty struct{}
