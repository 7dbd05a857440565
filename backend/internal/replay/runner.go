package replay

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/player"
	"x-course/backend/internal/core/domain/service"
	"x-course/backend/internal/core/port/out/physics"
	"x-course/backend/internal/game"
	"x-course/backend/internal/world"
)

// Result итог прогона
type Result struct {
	Frames  int            `yaml:"frames"`
	Elapsed float64        `yaml:"elapsed"`
	Seed    *uint64        `yaml:"seed,omitempty"`
	Jumps   uint64         `yaml:"jumps"`
	Player  mgl64.Vec3     `yaml:"player"`
	Objects []ObjectResult `yaml:"objects"`
}

// ObjectResult поза движущегося объекта в конце прогона
type ObjectResult struct {
	ID       string     `yaml:"id"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation [4]float64 `yaml:"rotation"`
}

// Run строит трассу сценария на движке и выполняет все кадры.
// Ошибка любого кадра прерывает прогон.
func Run(ctx context.Context, script *Script, engine physics.Engine, controls player.Config, logger zerolog.Logger) (*Result, error) {
	kinds, err := script.ParsedKinds()
	if err != nil {
		return nil, err
	}

	manager := world.NewManager()
	factory := world.NewFactory(manager, engine, logger)
	session := service.NewSession(engine, factory, service.Options{
		SegmentCount: script.Segments,
		Kinds:        kinds,
		Seed:         script.Seed,
		Player:       controls,
	}, logger)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	driver := game.NewDriver(engine, session, manager, nil, logger)

	var (
		elapsed float64
		frames  int
	)
	for _, f := range script.Frames {
		if f.Regenerate != nil {
			session.RequestRegenerate(f.Regenerate.Seed)
		}
		dt := script.FrameDt(f)
		for i := 0; i < max(f.Repeat, 1); i++ {
			if dt > 0 {
				elapsed += dt
			}
			if err := driver.Step(ctx, f.Keys, elapsed, dt); err != nil {
				return nil, fmt.Errorf("frame %d: %w", frames, err)
			}
			frames++
		}
	}

	p := session.Player()
	result := &Result{
		Frames:  frames,
		Elapsed: elapsed,
		Seed:    session.Layout().Seed,
		Jumps:   p.Jumps(),
		Player:  p.State().LastTranslation,
	}
	for _, obj := range manager.MovingObjects() {
		q := obj.Rotation
		result.Objects = append(result.Objects, ObjectResult{
			ID:       obj.ID,
			Position: obj.Position,
			Rotation: [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
		})
	}

	logger.Info().
		Int("frames", frames).
		Float64("elapsed", elapsed).
		Uint64("jumps", result.Jumps).
		Msg("replay finished")

	return result, nil
}
