package course

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand возвращает заранее заданную последовательность
type scriptedRand struct {
	values []float64
	pos    int
}

func (r *scriptedRand) Float64() float64 {
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v
}

func TestGenerate_LengthAndTerminals(t *testing.T) {
	for count := 0; count <= 20; count++ {
		layout, err := Generate(count, DefaultKinds(), NewRand(uint64(count)))
		require.NoError(t, err)

		require.Equal(t, count+2, layout.TotalLength())
		assert.Equal(t, KindStart, layout.Segments[0].Kind)
		assert.Equal(t, KindEnd, layout.End().Kind)
		assert.Equal(t, count+2, layout.Bounds.Length)

		for i, seg := range layout.Segments {
			assert.Equal(t, i, seg.Index)
			assert.Equal(t, mgl64.Vec3{0, 0, -4 * float64(i)}, seg.Position)
		}
	}
}

func TestGenerate_NegativeCountClampsToZero(t *testing.T) {
	layout, err := Generate(-3, DefaultKinds(), NewRand(1))
	require.NoError(t, err)

	require.Len(t, layout.Segments, 2)
	assert.Equal(t, KindStart, layout.Segments[0].Kind)
	assert.Equal(t, KindEnd, layout.Segments[1].Kind)
	assert.Equal(t, mgl64.Vec3{0, 0, -4}, layout.Segments[1].Position)
	assert.Empty(t, layout.Interior())
}

func TestGenerate_Membership(t *testing.T) {
	allowed := []Kind{KindLimbo, KindAxe}
	for seed := uint64(0); seed < 50; seed++ {
		layout, err := Generate(10, allowed, NewRand(seed))
		require.NoError(t, err)

		for _, seg := range layout.Interior() {
			assert.Contains(t, allowed, seg.Kind)
			require.NotNil(t, seg.Motion)
		}
	}
}

func TestGenerate_Determinism(t *testing.T) {
	seed := uint64(42)
	first, err := GenerateSeeded(3, DefaultKinds(), &seed)
	require.NoError(t, err)
	second, err := GenerateSeeded(3, DefaultKinds(), &seed)
	require.NoError(t, err)

	require.Equal(t, 5, first.TotalLength())
	assert.Equal(t, first, second)
	require.NotNil(t, first.Seed)
	assert.Equal(t, seed, *first.Seed)
}

func TestGenerateSeeded_NilSeedLeavesLayoutUnseeded(t *testing.T) {
	layout, err := GenerateSeeded(4, DefaultKinds(), nil)
	require.NoError(t, err)
	assert.Nil(t, layout.Seed)
	assert.Equal(t, 6, layout.TotalLength())
}

func TestGenerate_DrawOrder(t *testing.T) {
	// два типа: 0.1 -> spinner, 0.9 -> limbo; далее параметры по индексам
	rng := &scriptedRand{values: []float64{
		0.1, 0.9, // типы
		0.5, 0.7, // spinner: модуль 0.7, знак +
		0.25, // limbo: фаза
	}}

	layout, err := Generate(2, []Kind{KindSpinner, KindLimbo}, rng)
	require.NoError(t, err)

	interior := layout.Interior()
	require.Len(t, interior, 2)
	assert.Equal(t, KindSpinner, interior[0].Kind)
	assert.Equal(t, KindLimbo, interior[1].Kind)

	assert.InDelta(t, 0.7, interior[0].Motion.Speed, 1e-12)
	assert.InDelta(t, 0.25*2*math.Pi, interior[1].Motion.Phase, 1e-12)
	assert.Equal(t, 5, rng.pos)
}

func TestGenerate_SpinnerSpeedRange(t *testing.T) {
	rng := NewRand(7)
	var positive, negative int
	for i := 0; i < 200; i++ {
		seed := spinnerSeed(rng)
		magnitude := math.Abs(seed.Speed)
		assert.GreaterOrEqual(t, magnitude, 0.2)
		assert.Less(t, magnitude, 1.2)
		if seed.Speed > 0 {
			positive++
		} else {
			negative++
		}
	}
	assert.NotZero(t, positive)
	assert.NotZero(t, negative)
}

func TestGenerate_ConfigurationErrors(t *testing.T) {
	_, err := Generate(3, nil, NewRand(1))
	assert.ErrorIs(t, err, ErrNoKinds)

	_, err = Generate(3, []Kind{KindSpinner, KindEnd}, NewRand(1))
	assert.ErrorIs(t, err, ErrTerminalKind)

	_, err = Generate(3, []Kind{Kind(99)}, NewRand(1))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewBounds_Geometry(t *testing.T) {
	b := NewBounds(7)

	assert.InDeltaSlice(t, []float64{2.15, 0.75, -12}, b.RightWall.Center[:], 1e-9)
	assert.InDeltaSlice(t, []float64{-2.15, 0.75, -12}, b.LeftWall.Center[:], 1e-9)
	sideSize := b.RightWall.Size()
	assert.InDeltaSlice(t, []float64{0.3, 1.5, 28}, sideSize[:], 1e-9)

	assert.InDeltaSlice(t, []float64{0, 0.75, -26.15}, b.EndWall.Center[:], 1e-9)
	endSize := b.EndWall.Size()
	assert.InDeltaSlice(t, []float64{4, 1.5, 0.3}, endSize[:], 1e-9)

	assert.InDeltaSlice(t, []float64{0, -0.1, -12}, b.Floor.Center[:], 1e-9)
	assert.InDeltaSlice(t, []float64{2, 0.1, 14}, b.Floor.HalfExtents[:], 1e-9)

	assert.Len(t, b.Walls(), 3)
}

func TestKind_TextRoundTrip(t *testing.T) {
	kinds, err := ParseKinds([]string{"Spinner", " limbo", "AXE"})
	require.NoError(t, err)
	assert.Equal(t, DefaultKinds(), kinds)

	text, err := KindEnd.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "end", string(text))

	_, err = ParseKind("ramp")
	assert.Error(t, err)
	assert.Equal(t, "kind(42)", Kind(42).String())
}
