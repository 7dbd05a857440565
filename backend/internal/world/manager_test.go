package world

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-course/backend/internal/core/port/out/physics"
)

func TestManager_AddGetUpdate(t *testing.T) {
	m := NewManager()
	m.AddObject(Object{ID: "b", Handle: 2, BodyType: physics.BodyKinematic})
	m.AddObject(Object{ID: "a", Handle: 1, BodyType: physics.BodyFixed})
	m.AddObject(Object{ID: "c"})

	all := m.GetAllObjects()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	moving := m.MovingObjects()
	require.Len(t, moving, 1)
	assert.Equal(t, "b", moving[0].ID)

	m.UpdateObjectState("b", mgl64.Vec3{1, 2, 3}, mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0}))
	obj, ok := m.GetObject("b")
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, obj.Position)

	// копия не влияет на хранимый объект
	obj.Position = mgl64.Vec3{}
	again, _ := m.GetObject("b")
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, again.Position)

	m.UpdateObjectState("missing", mgl64.Vec3{}, mgl64.QuatIdent())
	m.RemoveObject("c")
	assert.Equal(t, 2, m.Count())
	m.Clear()
	assert.Zero(t, m.Count())
}

func TestManager_ConcurrentReadersAndWriter(t *testing.T) {
	m := NewManager()
	m.AddObject(Object{ID: "player", Handle: 1, BodyType: physics.BodyDynamic})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.UpdateObjectState("player", mgl64.Vec3{float64(i), 0, 0}, mgl64.QuatIdent())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = m.GetAllObjects()
		}
	}()
	wg.Wait()
}
