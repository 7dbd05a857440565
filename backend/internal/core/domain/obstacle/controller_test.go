package obstacle

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/port/out/physics"
	"x-course/backend/internal/core/port/out/physics/physicstest"
)

func segment(kind course.Kind, index int, seed course.MotionSeed) course.Segment {
	return course.Segment{Kind: kind, Index: index, Position: course.PositionAt(index), Motion: &seed}
}

func TestAdvance_TerminalSegmentsDoNotMove(t *testing.T) {
	_, ok := Advance(course.Segment{Kind: course.KindStart}, 1)
	assert.False(t, ok)
	_, ok = Advance(course.Segment{Kind: course.KindEnd, Index: 4}, 1)
	assert.False(t, ok)
}

func TestAdvance_LimboStaysInBand(t *testing.T) {
	seg := segment(course.KindLimbo, 2, course.MotionSeed{Phase: 4.2})
	for i := 0; i < 600; i++ {
		pose, ok := Advance(seg, float64(i)/60)
		require.True(t, ok)
		y := pose.Translation.Y()
		assert.True(t, y >= 0.3-1e-12 && y <= 2.3+1e-12, "y=%v", y)
	}
}

func TestAdvance_ParametersStableAcrossFrames(t *testing.T) {
	seg := segment(course.KindAxe, 1, course.MotionSeed{Phase: 0.5})
	a, _ := Advance(seg, 3.0)
	b, _ := Advance(seg, 3.0)
	assert.Equal(t, a, b)
	assert.InDelta(t, math.Sin(3.5)*1.25, a.Translation.X(), 1e-12)
}

func TestController_IssuesTargetsPerKind(t *testing.T) {
	engine := physicstest.New()
	ctx := context.Background()

	spinner, err := engine.CreateBody(ctx, physics.BodyDesc{Type: physics.BodyKinematic})
	require.NoError(t, err)
	limbo, err := engine.CreateBody(ctx, physics.BodyDesc{Type: physics.BodyKinematic})
	require.NoError(t, err)
	engine.Reset()

	c := NewController(engine)
	c.Track(segment(course.KindSpinner, 1, course.MotionSeed{Speed: 0.5}), spinner)
	c.Track(segment(course.KindLimbo, 2, course.MotionSeed{Phase: 0}), limbo)

	require.NoError(t, c.Advance(ctx, 2))

	assert.Equal(t, []string{physicstest.MethodNextRotation, physicstest.MethodNextTranslation}, engine.Methods())

	rot := engine.CallsOf(physicstest.MethodNextRotation)[0]
	assert.Equal(t, spinner, rot.Handle)
	assert.True(t, rot.Quat.ApproxEqualThreshold(mgl64.QuatRotate(1.0, mgl64.Vec3{0, 1, 0}), 1e-12))

	tr := engine.CallsOf(physicstest.MethodNextTranslation)[0]
	assert.Equal(t, limbo, tr.Handle)
	assert.InDelta(t, math.Sin(2)+1.3, tr.Vec.Y(), 1e-12)
	assert.InDelta(t, -8, tr.Vec.Z(), 1e-12)
}

func TestController_StopsOnEngineError(t *testing.T) {
	engine := physicstest.New()
	ctx := context.Background()
	h, _ := engine.CreateBody(ctx, physics.BodyDesc{Type: physics.BodyKinematic})

	boom := errors.New("engine down")
	engine.Fail[physicstest.MethodNextTranslation] = boom

	c := NewController(engine)
	c.Track(segment(course.KindAxe, 1, course.MotionSeed{}), h)
	c.Track(segment(course.KindAxe, 2, course.MotionSeed{}), h)

	err := c.Advance(ctx, 0)
	require.ErrorIs(t, err, boom)
	assert.Len(t, engine.CallsOf(physicstest.MethodNextTranslation), 1)
}

func TestController_Clear(t *testing.T) {
	c := NewController(physicstest.New())
	c.Track(segment(course.KindAxe, 1, course.MotionSeed{}), 1)
	require.Len(t, c.Bodies(), 1)
	c.Clear()
	assert.Empty(t, c.Bodies())
	assert.NoError(t, c.Advance(context.Background(), 1))
}
