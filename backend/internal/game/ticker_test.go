package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	name     string
	priority int
	err      error
	panicMsg string

	mu    sync.Mutex
	order *[]string
	calls int
}

func (s *recordingSystem) Update(time.Duration) error {
	s.mu.Lock()
	s.calls++
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	s.mu.Unlock()

	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.err
}

func (s *recordingSystem) GetName() string  { return s.name }
func (s *recordingSystem) GetPriority() int { return s.priority }

func (s *recordingSystem) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestGameTicker_SystemsRunByPriority(t *testing.T) {
	gt := NewGameTicker(60, nil, zerolog.Nop())
	var order []string

	gt.RegisterSystem(&recordingSystem{name: "sync", priority: 100, order: &order})
	gt.RegisterSystem(&recordingSystem{name: "metrics", priority: 200, order: &order})
	gt.RegisterSystem(&recordingSystem{name: "frame", priority: 10, order: &order})

	gt.executeAllSystems(time.Second / 60)

	assert.Equal(t, []string{"frame", "sync", "metrics"}, order)
}

func TestGameTicker_ErrorsAndPanicsAreCounted(t *testing.T) {
	gt := NewGameTicker(60, nil, zerolog.Nop())
	failing := &recordingSystem{name: "failing", priority: 1, err: errors.New("boom")}
	panicking := &recordingSystem{name: "panicking", priority: 2, panicMsg: "bad state"}
	after := &recordingSystem{name: "after", priority: 3}

	gt.RegisterSystem(failing)
	gt.RegisterSystem(panicking)
	gt.RegisterSystem(after)

	require.NotPanics(t, func() { gt.executeAllSystems(time.Millisecond) })

	m, ok := gt.perfMonitor.GetSystemMetrics("failing")
	require.True(t, ok)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(1), m.TotalExecutions)

	m, ok = gt.perfMonitor.GetSystemMetrics("panicking")
	require.True(t, ok)
	assert.Equal(t, uint64(1), m.Errors)

	// паника одной системы не останавливает остальные
	assert.Equal(t, 1, after.Calls())
}

func TestGameTicker_StartStop(t *testing.T) {
	gt := NewGameTicker(200, nil, zerolog.Nop())
	sys := &recordingSystem{name: "counter", priority: 1}
	gt.RegisterSystem(sys)

	require.NoError(t, gt.Start())
	require.NoError(t, gt.Start())

	assert.Eventually(t, func() bool { return sys.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	gt.Stop()
	calls := sys.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, sys.Calls())

	stats := gt.GetStats()
	assert.Equal(t, false, stats["is_running"])
	assert.Equal(t, 1, stats["systems_count"])
	assert.GreaterOrEqual(t, gt.GetTickCount(), uint64(3))
}

func TestGameTicker_Pause(t *testing.T) {
	gt := NewGameTicker(200, nil, zerolog.Nop())
	sys := &recordingSystem{name: "counter", priority: 1}
	gt.RegisterSystem(sys)

	require.NoError(t, gt.Start())
	defer gt.Stop()

	assert.Eventually(t, func() bool { return sys.Calls() >= 1 }, 2*time.Second, 5*time.Millisecond)

	gt.Pause()
	assert.Eventually(t, func() bool {
		before := sys.Calls()
		time.Sleep(30 * time.Millisecond)
		return before == sys.Calls()
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, true, gt.GetStats()["is_paused"])

	paused := sys.Calls()
	gt.Resume()
	assert.Eventually(t, func() bool { return sys.Calls() > paused }, 2*time.Second, 5*time.Millisecond)
}

func TestNewGameTicker_DefaultTPS(t *testing.T) {
	gt := NewGameTicker(0, nil, zerolog.Nop())
	assert.Equal(t, 60, gt.GetStats()["target_tps"])
}
