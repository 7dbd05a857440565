package world

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/port/out/physics"
)

// ID объектов трассы
const (
	PlayerID    = "player"
	GoalID      = "goal"
	BoundsID    = "bounds"
	WallRightID = "wall-right"
	WallLeftID  = "wall-left"
	WallEndID   = "wall-end"
)

func TileID(index int) string     { return fmt.Sprintf("tile-%02d", index) }
func ObstacleID(index int) string { return fmt.Sprintf("obstacle-%02d", index) }

// Factory создает тела трассы в движке и регистрирует объекты в Manager
type Factory struct {
	manager *Manager
	engine  physics.Engine
	logger  zerolog.Logger

	handles []physics.Handle
}

// NewFactory создает новый экземпляр Factory
func NewFactory(manager *Manager, engine physics.Engine, logger zerolog.Logger) *Factory {
	return &Factory{
		manager: manager,
		engine:  engine,
		logger:  logger,
	}
}

func (f *Factory) createBody(ctx context.Context, desc physics.BodyDesc) (physics.Handle, error) {
	h, err := f.engine.CreateBody(ctx, desc)
	if err != nil {
		return 0, err
	}
	f.handles = append(f.handles, h)
	return h, nil
}

// BuildBounds создает одно статическое тело со стенками и коллайдером пола
func (f *Factory) BuildBounds(ctx context.Context, b course.Bounds) (physics.Handle, error) {
	cfg := GetWorldConfig()
	wall := physics.Material{Restitution: cfg.WallRestitution, Friction: cfg.WallFriction}
	floor := physics.Material{Restitution: cfg.FloorRestitution, Friction: cfg.FloorFriction}

	desc := physics.BodyDesc{
		Type:     physics.BodyFixed,
		Rotation: mgl64.QuatIdent(),
		Colliders: []physics.Collider{
			physics.Cuboid(b.RightWall.HalfExtents, b.RightWall.Center, wall),
			physics.Cuboid(b.LeftWall.HalfExtents, b.LeftWall.Center, wall),
			physics.Cuboid(b.EndWall.HalfExtents, b.EndWall.Center, wall),
			physics.Cuboid(b.Floor.HalfExtents, b.Floor.Center, floor),
		},
	}

	h, err := f.createBody(ctx, desc)
	if err != nil {
		return 0, fmt.Errorf("creating bounds: %w", err)
	}

	walls := []struct {
		id  string
		box course.Box
	}{
		{WallRightID, b.RightWall},
		{WallLeftID, b.LeftWall},
		{WallEndID, b.EndWall},
	}
	for _, w := range walls {
		f.manager.AddObject(Object{
			ID:       w.id,
			Role:     RoleWall,
			Handle:   h,
			BodyType: physics.BodyFixed,
			Position: w.box.Center,
			Rotation: mgl64.QuatIdent(),
			Shape:    boxShape(w.box, ColorWall),
		})
	}

	f.logger.Debug().Int("length", b.Length).Uint64("handle", uint64(h)).Msg("bounds created")
	return h, nil
}

// BuildSegment создает визуальную плитку сегмента и его тела.
// Возвращает handle кинематического препятствия или 0.
func (f *Factory) BuildSegment(ctx context.Context, seg course.Segment) (physics.Handle, error) {
	entry, ok := course.Lookup(seg.Kind)
	if !ok {
		return 0, fmt.Errorf("segment %d: %w: %s", seg.Index, course.ErrUnknownKind, seg.Kind)
	}
	cfg := GetWorldConfig()

	color := ColorFloor
	if seg.Kind.IsTerminal() {
		color = ColorStartFloor
	}
	f.manager.AddObject(Object{
		ID:       TileID(seg.Index),
		Role:     RoleFloorTile,
		Kind:     seg.Kind,
		Segment:  seg.Index,
		Position: seg.Position.Add(entry.Floor.Center),
		Rotation: mgl64.QuatIdent(),
		Shape:    boxShape(entry.Floor, color),
	})

	if entry.Goal != nil {
		material := physics.Material{Restitution: cfg.GoalRestitution, Friction: cfg.GoalFriction}
		pos := seg.Position.Add(entry.Goal.Center)
		h, err := f.createBody(ctx, physics.BodyDesc{
			Type:        physics.BodyFixed,
			Translation: pos,
			Rotation:    mgl64.QuatIdent(),
			Colliders:   []physics.Collider{physics.Cuboid(entry.Goal.HalfExtents, mgl64.Vec3{}, material)},
		})
		if err != nil {
			return 0, fmt.Errorf("creating goal: %w", err)
		}
		f.manager.AddObject(Object{
			ID:       GoalID,
			Role:     RoleGoal,
			Kind:     seg.Kind,
			Segment:  seg.Index,
			Handle:   h,
			BodyType: physics.BodyFixed,
			Position: pos,
			Rotation: mgl64.QuatIdent(),
			Shape:    boxShape(course.Box{HalfExtents: entry.Goal.HalfExtents}, ColorObstacle),
			Asset:    entry.Asset,
		})
	}

	if entry.Obstacle == nil {
		return 0, nil
	}

	material := physics.Material{Restitution: cfg.ObstacleRestitution, Friction: cfg.ObstacleFriction}
	pos := seg.Position.Add(entry.Obstacle.Center)
	h, err := f.createBody(ctx, physics.BodyDesc{
		Type:        physics.BodyKinematic,
		Translation: pos,
		Rotation:    mgl64.QuatIdent(),
		Colliders:   []physics.Collider{physics.Cuboid(entry.Obstacle.HalfExtents, mgl64.Vec3{}, material)},
	})
	if err != nil {
		return 0, fmt.Errorf("creating %s obstacle %d: %w", seg.Kind, seg.Index, err)
	}

	f.manager.AddObject(Object{
		ID:       ObstacleID(seg.Index),
		Role:     RoleObstacle,
		Kind:     seg.Kind,
		Segment:  seg.Index,
		Handle:   h,
		BodyType: physics.BodyKinematic,
		Position: pos,
		Rotation: mgl64.QuatIdent(),
		Shape:    boxShape(course.Box{HalfExtents: entry.Obstacle.HalfExtents}, ColorObstacle),
	})

	return h, nil
}

// BuildPlayer создает динамический шар игрока в точке появления
func (f *Factory) BuildPlayer(ctx context.Context) (physics.Handle, mgl64.Vec3, error) {
	cfg := GetPlayerConfig()
	spawn := cfg.Spawn()

	density := cfg.Density
	if density <= 0 {
		density = 1
	}
	collider := physics.Sphere(cfg.Radius, physics.Material{Restitution: cfg.Restitution, Friction: cfg.Friction})
	collider.Density = density

	h, err := f.createBody(ctx, physics.BodyDesc{
		Type:           physics.BodyDynamic,
		Translation:    spawn,
		Rotation:       mgl64.QuatIdent(),
		LinearDamping:  cfg.LinearDamping,
		AngularDamping: cfg.AngularDamping,
		Colliders:      []physics.Collider{collider},
	})
	if err != nil {
		return 0, mgl64.Vec3{}, fmt.Errorf("creating player: %w", err)
	}

	mass := density * 4.0 / 3.0 * math.Pi * cfg.Radius * cfg.Radius * cfg.Radius
	f.manager.AddObject(Object{
		ID:       PlayerID,
		Role:     RolePlayer,
		Handle:   h,
		BodyType: physics.BodyDynamic,
		Position: spawn,
		Rotation: mgl64.QuatIdent(),
		Shape: &ShapeDescriptor{
			Type:   SPHERE,
			Sphere: &SphereData{Radius: cfg.Radius, Mass: mass, Color: ColorPlayer},
		},
	})

	f.logger.Debug().Uint64("handle", uint64(h)).Floats64("spawn", spawn[:]).Msg("player created")
	return h, spawn, nil
}

// Teardown удаляет все созданные тела и очищает Manager.
// Продолжает удаление после ошибок и возвращает их вместе.
func (f *Factory) Teardown(ctx context.Context) error {
	var errs []error
	for _, h := range f.handles {
		if err := f.engine.RemoveBody(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("removing body %d: %w", h, err))
		}
	}
	f.handles = nil
	f.manager.Clear()
	return errors.Join(errs...)
}

// Bodies число созданных тел
func (f *Factory) Bodies() int {
	return len(f.handles)
}
