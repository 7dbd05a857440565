package input

import (
	"strings"
	"sync"
)

// Action логическое действие игрока
type Action string

const (
	ActionForward  Action = "forward"
	ActionBackward Action = "backward"
	ActionLeft     Action = "left"
	ActionRight    Action = "right"
	ActionJump     Action = "jump"
)

// клавиатурные команды клиента сводятся к действиям
var actionAliases = map[string]Action{
	"forward":  ActionForward,
	"up":       ActionForward,
	"w":        ActionForward,
	"backward": ActionBackward,
	"down":     ActionBackward,
	"s":        ActionBackward,
	"left":     ActionLeft,
	"a":        ActionLeft,
	"right":    ActionRight,
	"d":        ActionRight,
	"jump":     ActionJump,
	"space":    ActionJump,
}

// ParseAction разбирает имя действия или клавиши без учета регистра
func ParseAction(name string) (Action, bool) {
	a, ok := actionAliases[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Snapshot состояние ввода на один кадр
type Snapshot struct {
	Forward  bool `json:"forward" yaml:"forward"`
	Backward bool `json:"backward" yaml:"backward"`
	Left     bool `json:"left" yaml:"left"`
	Right    bool `json:"right" yaml:"right"`
	Jump     bool `json:"jump" yaml:"jump"`

	// JumpPressed прыжок нажимался после предыдущего кадра,
	// даже если к моменту снимка уже отпущен
	JumpPressed bool `json:"-" yaml:"-"`
}

// Get значение действия в снимке
func (s Snapshot) Get(a Action) bool {
	switch a {
	case ActionForward:
		return s.Forward
	case ActionBackward:
		return s.Backward
	case ActionLeft:
		return s.Left
	case ActionRight:
		return s.Right
	case ActionJump:
		return s.Jump
	}
	return false
}

// Set меняет одно действие снимка
func (s *Snapshot) Set(a Action, pressed bool) {
	switch a {
	case ActionForward:
		s.Forward = pressed
	case ActionBackward:
		s.Backward = pressed
	case ActionLeft:
		s.Left = pressed
	case ActionRight:
		s.Right = pressed
	case ActionJump:
		s.Jump = pressed
	}
}

var allActions = []Action{ActionForward, ActionBackward, ActionLeft, ActionRight, ActionJump}

// Source поставщик ввода для кадра
type Source interface {
	Snapshot() Snapshot
	// Subscribe вызывает fn при каждом изменении действия, возвращает отписку
	Subscribe(fn func(a Action, pressed bool)) (unsubscribe func())
}

// State потокобезопасное состояние ввода. Пишут сетевые обработчики,
// читает игровой цикл раз в кадр.
type State struct {
	mu     sync.Mutex
	keys   Snapshot
	subs   map[int]func(Action, bool)
	nextID int
}

func NewState() *State {
	return &State{subs: make(map[int]func(Action, bool))}
}

// Set меняет одно действие, возвращает true при изменении
func (s *State) Set(a Action, pressed bool) bool {
	s.mu.Lock()
	if s.keys.Get(a) == pressed {
		s.mu.Unlock()
		return false
	}
	s.keys.Set(a, pressed)
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(a, pressed)
	}
	return true
}

// Apply заменяет состояние целиком
func (s *State) Apply(snap Snapshot) {
	for _, a := range allActions {
		s.Set(a, snap.Get(a))
	}
}

// Release отпускает все действия
func (s *State) Release() {
	s.Apply(Snapshot{})
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys
}

func (s *State) Subscribe(fn func(Action, bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *State) subscribers() []func(Action, bool) {
	out := make([]func(Action, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

var _ Source = (*State)(nil)
