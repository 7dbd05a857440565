package obstacle

import (
	"context"
	"fmt"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/port/out/physics"
)

// Advance вычисляет целевую позу препятствия сегмента в момент t.
// Возвращает false для сегментов без движения.
func Advance(seg course.Segment, t float64) (course.Pose, bool) {
	entry, ok := course.Lookup(seg.Kind)
	if !ok || entry.Motion == nil || seg.Motion == nil {
		return course.Pose{}, false
	}
	return entry.Motion(seg.Position, *seg.Motion, t), true
}

// Body кинематическое тело препятствия
type Body struct {
	Segment course.Segment
	Handle  physics.Handle
}

// Controller выставляет кинематические цели всем препятствиям трассы.
// Вызывается до шага движка в каждом кадре.
type Controller struct {
	engine physics.Engine
	bodies []Body
}

func NewController(engine physics.Engine) *Controller {
	return &Controller{engine: engine}
}

// Track добавляет тело препятствия
func (c *Controller) Track(seg course.Segment, h physics.Handle) {
	c.bodies = append(c.bodies, Body{Segment: seg, Handle: h})
}

// Bodies возвращает отслеживаемые тела
func (c *Controller) Bodies() []Body {
	out := make([]Body, len(c.bodies))
	copy(out, c.bodies)
	return out
}

// Clear забывает все тела, например перед перегенерацией трассы
func (c *Controller) Clear() {
	c.bodies = nil
}

// Advance отправляет в движок позы всех препятствий для момента t
func (c *Controller) Advance(ctx context.Context, t float64) error {
	for _, body := range c.bodies {
		pose, ok := Advance(body.Segment, t)
		if !ok {
			continue
		}

		if pose.DrivesRotation {
			if err := c.engine.SetNextKinematicRotation(ctx, body.Handle, pose.Rotation); err != nil {
				return fmt.Errorf("obstacle %s #%d rotation: %w", body.Segment.Kind, body.Segment.Index, err)
			}
		}
		if pose.DrivesTranslation {
			if err := c.engine.SetNextKinematicTranslation(ctx, body.Handle, pose.Translation); err != nil {
				return fmt.Errorf("obstacle %s #%d translation: %w", body.Segment.Kind, body.Segment.Index, err)
			}
		}
	}
	return nil
}
