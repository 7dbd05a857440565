package player

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/port/out/physics"
	"x-course/backend/internal/core/port/out/physics/physicstest"
)

func newTestController(t *testing.T, cfg Config) (*Controller, *physicstest.Engine) {
	t.Helper()
	engine := physicstest.New()
	spawn := mgl64.Vec3{0, 1, 0}
	h, err := engine.CreateBody(context.Background(), physics.BodyDesc{Type: physics.BodyDynamic, Translation: spawn})
	require.NoError(t, err)
	engine.Reset()
	return NewController(engine, h, spawn, cfg, zerolog.Nop()), engine
}

func TestForces_ScaleLinearlyWithDt(t *testing.T) {
	cfg := DefaultConfig()
	snap := input.Snapshot{Forward: true, Right: true}

	i1, t1 := Forces(snap, 1.0/60, cfg)
	i2, t2 := Forces(snap, 2.0/60, cfg)

	assert.True(t, i2.ApproxEqualThreshold(i1.Mul(2), 1e-12))
	assert.True(t, t2.ApproxEqualThreshold(t1.Mul(2), 1e-12))
	assert.InDelta(t, -0.01, i1.Z(), 1e-12)
	assert.InDelta(t, 0.01, i1.X(), 1e-12)
	assert.InDelta(t, -0.2/60, t1.X(), 1e-12)
	assert.InDelta(t, -0.2/60, t1.Z(), 1e-12)
}

func TestForces_ZeroWithoutInput(t *testing.T) {
	impulse, torque := Forces(input.Snapshot{Jump: true}, 0.5, DefaultConfig())
	assert.Equal(t, mgl64.Vec3{}, impulse)
	assert.Equal(t, mgl64.Vec3{}, torque)
}

func TestForces_OpposingKeysCancel(t *testing.T) {
	impulse, torque := Forces(input.Snapshot{Forward: true, Backward: true, Left: true, Right: true}, 0.1, DefaultConfig())
	assert.Equal(t, mgl64.Vec3{}, impulse)
	assert.Equal(t, mgl64.Vec3{}, torque)
}

func TestForces_Directions(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		snap    input.Snapshot
		impulse mgl64.Vec3
		torque  mgl64.Vec3
	}{
		{"forward", input.Snapshot{Forward: true}, mgl64.Vec3{0, 0, -0.6}, mgl64.Vec3{-0.2, 0, 0}},
		{"backward", input.Snapshot{Backward: true}, mgl64.Vec3{0, 0, 0.6}, mgl64.Vec3{0.2, 0, 0}},
		{"right", input.Snapshot{Right: true}, mgl64.Vec3{0.6, 0, 0}, mgl64.Vec3{0, 0, -0.2}},
		{"left", input.Snapshot{Left: true}, mgl64.Vec3{-0.6, 0, 0}, mgl64.Vec3{0, 0, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impulse, torque := Forces(tt.snap, 1, cfg)
			assert.True(t, impulse.ApproxEqualThreshold(tt.impulse, 1e-12), "impulse %v", impulse)
			assert.True(t, torque.ApproxEqualThreshold(tt.torque, 1e-12), "torque %v", torque)
		})
	}
}

func TestUpdate_OneImpulseAndTorquePerFrame(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())

	require.NoError(t, c.Update(context.Background(), input.Snapshot{}, 1.0/60))

	assert.Equal(t, []string{physicstest.MethodApplyImpulse, physicstest.MethodApplyTorque}, engine.Methods())
	assert.Equal(t, mgl64.Vec3{}, engine.CallsOf(physicstest.MethodApplyImpulse)[0].Vec)
}

func TestUpdate_ForwardForOneSecond(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	ctx := context.Background()
	dt := 1.0 / 60

	for i := 0; i < 60; i++ {
		require.NoError(t, c.Update(ctx, input.Snapshot{Forward: true}, dt))
	}

	impulses := engine.CallsOf(physicstest.MethodApplyImpulse)
	require.Len(t, impulses, 60)

	var total mgl64.Vec3
	for _, call := range impulses {
		assert.InDelta(t, 0.6/60, call.Vec.Len(), 1e-12)
		total = total.Add(call.Vec)
	}
	assert.InDelta(t, -0.6, total.Z(), 1e-9)
	assert.InDelta(t, 0, total.X(), 1e-12)
}

func TestUpdate_JumpIsEdgeTriggered(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	engine.RayHit = &physics.RayHit{Handle: 99, TimeOfImpact: 0}
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	}
	assert.Equal(t, uint64(1), c.Jumps())
	assert.Len(t, engine.CallsOf(physicstest.MethodCastRay), 1)

	// отпустили и нажали снова
	require.NoError(t, c.Update(ctx, input.Snapshot{}, 1.0/60))
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Equal(t, uint64(2), c.Jumps())

	var jumpImpulses int
	for _, call := range engine.CallsOf(physicstest.MethodApplyImpulse) {
		if call.Vec == (mgl64.Vec3{0, 0.5, 0}) {
			jumpImpulses++
		}
	}
	assert.Equal(t, 2, jumpImpulses)
}

func TestUpdate_JumpPressedBetweenFrames(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	engine.RayHit = &physics.RayHit{Handle: 99, TimeOfImpact: 0}
	ctx := context.Background()

	// нажали и отпустили до кадра
	require.NoError(t, c.Update(ctx, input.Snapshot{JumpPressed: true}, 1.0/60))
	assert.Equal(t, uint64(1), c.Jumps())
	require.NoError(t, c.Update(ctx, input.Snapshot{}, 1.0/60))
	assert.Equal(t, uint64(1), c.Jumps())

	// нажатие и удержание: фронт и флаг дают один прыжок
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true, JumpPressed: true}, 1.0/60))
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Equal(t, uint64(2), c.Jumps())

	// флаг после снимка без удержания, затем удержание
	require.NoError(t, c.Update(ctx, input.Snapshot{}, 1.0/60))
	require.NoError(t, c.Update(ctx, input.Snapshot{JumpPressed: true}, 1.0/60))
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Equal(t, uint64(3), c.Jumps())
}

func TestUpdate_HoldJumpSuppressesEdge(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	engine.RayHit = &physics.RayHit{Handle: 99, TimeOfImpact: 0}
	ctx := context.Background()

	c.HoldJump(true)
	assert.True(t, c.JumpHeld())
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Zero(t, c.Jumps())
	assert.Empty(t, engine.CallsOf(physicstest.MethodCastRay))
}

func TestUpdate_JumpRayShape(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	engine.RayHit = &physics.RayHit{TimeOfImpact: 0.05}
	engine.SetTranslation(c.State().Handle, mgl64.Vec3{1, 2, -3})

	require.NoError(t, c.Update(context.Background(), input.Snapshot{Jump: true}, 1.0/60))

	rays := engine.CallsOf(physicstest.MethodCastRay)
	require.Len(t, rays, 1)
	assert.True(t, rays[0].Ray.Origin.ApproxEqualThreshold(mgl64.Vec3{1, 1.69, -3}, 1e-12))
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, rays[0].Ray.Dir)
	assert.Equal(t, 10.0, rays[0].MaxToi)
	assert.True(t, rays[0].Solid)
	assert.Equal(t, mgl64.Vec3{1, 2, -3}, c.State().LastTranslation)
}

func TestUpdate_GroundedPolicyBlocksAirJump(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	ctx := context.Background()

	engine.RayHit = nil
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Zero(t, c.Jumps())

	// фронт израсходован: удержание не дает прыжка при появлении опоры
	engine.RayHit = &physics.RayHit{TimeOfImpact: 0}
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Zero(t, c.Jumps())

	// высоко над опорой
	require.NoError(t, c.Update(ctx, input.Snapshot{}, 1.0/60))
	engine.RayHit = &physics.RayHit{TimeOfImpact: 3}
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Zero(t, c.Jumps())
}

func TestUpdate_AlwaysPolicyIgnoresRay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JumpPolicy = JumpAlways
	c, engine := newTestController(t, cfg)
	engine.RayHit = nil

	require.NoError(t, c.Update(context.Background(), input.Snapshot{Jump: true}, 1.0/60))
	assert.Equal(t, uint64(1), c.Jumps())
}

func TestUpdate_EngineErrorKeepsEdgeState(t *testing.T) {
	c, engine := newTestController(t, DefaultConfig())
	engine.RayHit = &physics.RayHit{}
	ctx := context.Background()

	boom := errors.New("engine unavailable")
	engine.Fail[physicstest.MethodApplyImpulse] = boom

	err := c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Jumps())

	// следующий кадр с тем же удержанием все еще видит фронт
	delete(engine.Fail, physicstest.MethodApplyImpulse)
	require.NoError(t, c.Update(ctx, input.Snapshot{Jump: true}, 1.0/60))
	assert.Equal(t, uint64(1), c.Jumps())
}

func TestParseJumpPolicy(t *testing.T) {
	p, err := ParseJumpPolicy("always")
	require.NoError(t, err)
	assert.Equal(t, JumpAlways, p)

	_, err = ParseJumpPolicy("never")
	assert.Error(t, err)
}
