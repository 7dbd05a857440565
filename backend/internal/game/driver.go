package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/domain/service"
	"x-course/backend/internal/core/port/out/physics"
	"x-course/backend/internal/world"
)

// ErrFrameAborted кадр прерван ошибкой движка, состояние предыдущего кадра сохранено
var ErrFrameAborted = errors.New("frame aborted")

// Стадии кадра в порядке выполнения
const (
	StageRegenerate = "regenerate"
	StagePlayer     = "player"
	StageObstacles  = "obstacles"
	StagePhysics    = "physics"
	StageSync       = "sync"
)

// Driver выполняет один кадр симуляции: игрок, препятствия, шаг движка,
// синхронизация поз для рендера. Вызывается из одного потока.
type Driver struct {
	engine  physics.Engine
	session *service.Session
	world   *world.Manager
	metrics *Metrics
	logger  zerolog.Logger

	frames  uint64
	aborted uint64
}

func NewDriver(engine physics.Engine, session *service.Session, manager *world.Manager, metrics *Metrics, logger zerolog.Logger) *Driver {
	return &Driver{
		engine:  engine,
		session: session,
		world:   manager,
		metrics: metrics,
		logger:  logger,
	}
}

// Step выполняет кадр. elapsed монотонное время симуляции в секундах,
// dt длительность кадра. Кадры с dt <= 0 пропускаются.
func (d *Driver) Step(ctx context.Context, snap input.Snapshot, elapsed, dt float64) error {
	if _, err := d.session.ApplyPending(ctx); err != nil {
		return d.abort(ctx, StageRegenerate, err)
	}
	if dt <= 0 {
		return nil
	}

	p := d.session.Player()
	if p == nil {
		return d.abort(ctx, StagePlayer, service.ErrNotStarted)
	}

	if err := p.Update(ctx, snap, dt); err != nil {
		return d.abort(ctx, StagePlayer, err)
	}

	// кинематические цели до шага движка
	if err := d.session.Obstacles().Advance(ctx, elapsed); err != nil {
		return d.abort(ctx, StageObstacles, err)
	}

	if err := d.engine.Step(ctx, dt); err != nil {
		return d.abort(ctx, StagePhysics, err)
	}

	for _, obj := range d.world.MovingObjects() {
		tr, err := d.engine.Transform(ctx, obj.Handle)
		if err != nil {
			return d.abort(ctx, StageSync, fmt.Errorf("object %s: %w", obj.ID, err))
		}
		d.world.UpdateObjectState(obj.ID, tr.Translation, tr.Rotation)
		if obj.Role == world.RolePlayer {
			p.Observe(tr.Translation)
		}
	}

	d.frames++
	d.metrics.recordFrame(ctx)
	return nil
}

func (d *Driver) abort(ctx context.Context, stage string, err error) error {
	d.aborted++
	d.metrics.recordAbort(ctx, stage)
	return fmt.Errorf("%w at %s: %w", ErrFrameAborted, stage, err)
}

// Frames число успешно выполненных кадров
func (d *Driver) Frames() uint64 {
	return d.frames
}

// Aborted число прерванных кадров
func (d *Driver) Aborted() uint64 {
	return d.aborted
}
