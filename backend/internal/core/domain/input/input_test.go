package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"UP":       ActionForward,
		"forward":  ActionForward,
		"DOWN":     ActionBackward,
		"Left":     ActionLeft,
		"d":        ActionRight,
		" SPACE ":  ActionJump,
		"jump":     ActionJump,
		"backward": ActionBackward,
	}
	for name, want := range tests {
		got, ok := ParseAction(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseAction("crouch")
	assert.False(t, ok)
}

func TestState_SetAndSnapshot(t *testing.T) {
	s := NewState()
	assert.True(t, s.Set(ActionForward, true))
	assert.False(t, s.Set(ActionForward, true))
	assert.True(t, s.Set(ActionLeft, true))

	assert.Equal(t, Snapshot{Forward: true, Left: true}, s.Snapshot())

	s.Release()
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

func TestState_SubscribeSeesTransitionsOnly(t *testing.T) {
	s := NewState()

	var jumps []bool
	unsubscribe := s.Subscribe(func(a Action, pressed bool) {
		if a == ActionJump {
			jumps = append(jumps, pressed)
		}
	})

	s.Set(ActionJump, true)
	s.Set(ActionJump, true)
	s.Set(ActionForward, true)
	s.Set(ActionJump, false)

	assert.Equal(t, []bool{true, false}, jumps)

	unsubscribe()
	s.Set(ActionJump, true)
	assert.Len(t, jumps, 2)
}

func TestState_ApplySnapshot(t *testing.T) {
	s := NewState()
	s.Set(ActionRight, true)

	var changes int
	s.Subscribe(func(Action, bool) { changes++ })

	s.Apply(Snapshot{Backward: true, Jump: true})
	assert.Equal(t, Snapshot{Backward: true, Jump: true}, s.Snapshot())
	assert.Equal(t, 3, changes)
}

func TestState_ConcurrentWriters(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(ActionForward, i%2 == 0)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()
}
