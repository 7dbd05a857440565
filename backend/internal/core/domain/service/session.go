package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/domain/obstacle"
	"x-course/backend/internal/core/domain/player"
	"x-course/backend/internal/core/port/in/coursemanagement"
	"x-course/backend/internal/core/port/out/physics"
)

var ErrNotStarted = errors.New("session: course not started")

// Builder создает тела трассы в движке
type Builder interface {
	BuildBounds(ctx context.Context, b course.Bounds) (physics.Handle, error)
	BuildSegment(ctx context.Context, seg course.Segment) (physics.Handle, error)
	BuildPlayer(ctx context.Context) (physics.Handle, mgl64.Vec3, error)
	Teardown(ctx context.Context) error
}

// Options параметры сессии
type Options struct {
	SegmentCount int
	Kinds        []course.Kind
	// Seed первой трассы, nil для случайной
	Seed   *uint64
	Player player.Config
}

// Session владеет текущей трассой, ее препятствиями и игроком
type Session struct {
	engine  physics.Engine
	builder Builder
	opts    Options
	logger  zerolog.Logger

	obstacles *obstacle.Controller
	player    *player.Controller

	mu        sync.RWMutex
	layout    *course.Layout
	listeners []func(*course.Layout)

	regen chan *uint64
}

func NewSession(engine physics.Engine, builder Builder, opts Options, logger zerolog.Logger) *Session {
	return &Session{
		engine:    engine,
		builder:   builder,
		opts:      opts,
		logger:    logger,
		obstacles: obstacle.NewController(engine),
		regen:     make(chan *uint64, 1),
	}
}

// Start генерирует первую трассу и создает ее тела
func (s *Session) Start(ctx context.Context) error {
	return s.Regenerate(ctx, s.opts.Seed)
}

// Regenerate заново генерирует трассу и перестраивает все тела.
// Ошибка генерации возвращается до удаления старых тел.
func (s *Session) Regenerate(ctx context.Context, seed *uint64) error {
	if s.opts.SegmentCount < 0 {
		s.logger.Warn().Int("segment_count", s.opts.SegmentCount).Msg("negative segment count clamped to 0")
	}

	layout, err := course.GenerateSeeded(s.opts.SegmentCount, s.opts.Kinds, seed)
	if err != nil {
		return fmt.Errorf("generating course: %w", err)
	}

	heldJump := s.player != nil && s.player.JumpHeld()

	if err := s.builder.Teardown(ctx); err != nil {
		s.drop(err)
		return fmt.Errorf("tearing down course: %w", err)
	}
	s.obstacles.Clear()
	s.player = nil

	if err := s.build(ctx, layout); err != nil {
		s.drop(err)
		return err
	}
	s.player.HoldJump(heldJump)

	s.mu.Lock()
	s.layout = layout
	listeners := make([]func(*course.Layout), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	event := s.logger.Info().Int("segments", layout.TotalLength())
	if layout.Seed != nil {
		event = event.Uint64("seed", *layout.Seed)
	}
	event.Msg("course generated")

	for _, fn := range listeners {
		fn(layout)
	}
	return nil
}

// drop забывает трассу, тела которой уже частично удалены.
// Кадры прерываются с ErrNotStarted до следующей успешной генерации.
func (s *Session) drop(err error) {
	s.obstacles.Clear()
	s.player = nil
	s.mu.Lock()
	s.layout = nil
	listeners := make([]func(*course.Layout), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.logger.Error().Err(err).Msg("course lost, waiting for regenerate")
	for _, fn := range listeners {
		fn(nil)
	}
}

func (s *Session) build(ctx context.Context, layout *course.Layout) error {
	if _, err := s.builder.BuildBounds(ctx, layout.Bounds); err != nil {
		return err
	}

	for _, seg := range layout.Segments {
		h, err := s.builder.BuildSegment(ctx, seg)
		if err != nil {
			return err
		}
		if h != 0 {
			s.obstacles.Track(seg, h)
		}
	}

	h, spawn, err := s.builder.BuildPlayer(ctx)
	if err != nil {
		return err
	}
	s.player = player.NewController(s.engine, h, spawn, s.opts.Player, s.logger)
	return nil
}

// RequestRegenerate ставит перегенерацию в очередь. Более новый запрос
// заменяет еще не примененный.
func (s *Session) RequestRegenerate(seed *uint64) {
	for {
		select {
		case s.regen <- seed:
			return
		default:
		}
		select {
		case <-s.regen:
		default:
		}
	}
}

// ApplyPending выполняет отложенную перегенерацию, если она есть
func (s *Session) ApplyPending(ctx context.Context) (bool, error) {
	select {
	case seed := <-s.regen:
		return true, s.Regenerate(ctx, seed)
	default:
		return false, nil
	}
}

// Layout возвращает текущую трассу
func (s *Session) Layout() *course.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// OnLayout регистрирует обработчик новой трассы.
// Обработчик получает nil, если перестроение не удалось.
func (s *Session) OnLayout(fn func(*course.Layout)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Obstacles контроллер препятствий текущей трассы
func (s *Session) Obstacles() *obstacle.Controller {
	return s.obstacles
}

// Player контроллер игрока или nil до Start
func (s *Session) Player() *player.Controller {
	return s.player
}

var _ coursemanagement.CoursePort = (*Session)(nil)
