package ws

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/world"
)

// Константы для WebSocket сообщений
const (
	// От клиента
	MessageTypeInput      = "input"      // Нажатие или отпускание одного действия
	MessageTypeKeys       = "keys"       // Полный снимок клавиш
	MessageTypeRegenerate = "regenerate" // Запрос новой трассы
	MessageTypePing       = "ping"       // Пинг для измерения задержки

	// От сервера
	MessageTypeInfo        = "info"         // Информационное сообщение
	MessageTypeCourse      = "course"       // Трасса и ее объекты
	MessageTypeBatchUpdate = "batch_update" // Позы движущихся объектов
	MessageTypePong        = "pong"         // Ответ на пинг
	MessageTypeAck         = "cmd_ack"      // Подтверждение команды
	MessageTypeError       = "error"        // Ошибка обработки команды
)

// ClientMessage входящее сообщение клиента
type ClientMessage struct {
	Type       string          `json:"type"`
	Action     string          `json:"action,omitempty"`
	Pressed    bool            `json:"pressed,omitempty"`
	Keys       map[string]bool `json:"keys,omitempty"`
	Seed       *uint64         `json:"seed,omitempty"`
	ClientTime float64         `json:"client_time,omitempty"`
}

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// safeValue проверяет значения на NaN и заменяет их на 0
func safeValue(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func toVec3(v mgl64.Vec3) Vec3 {
	return Vec3{X: safeValue(v.X()), Y: safeValue(v.Y()), Z: safeValue(v.Z())}
}

func toQuat(q mgl64.Quat) Quat {
	if math.IsNaN(q.W) || math.IsNaN(q.V.Len()) {
		return Quat{W: 1}
	}
	return Quat{X: q.V.X(), Y: q.V.Y(), Z: q.V.Z(), W: q.W}
}

// ObjectView описание объекта для рендера
type ObjectView struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Kind     string `json:"kind,omitempty"`
	Segment  int    `json:"segment"`
	Shape    string `json:"object_type"`
	Color    string `json:"color,omitempty"`
	Asset    string `json:"asset,omitempty"`
	Position Vec3   `json:"position"`
	Rotation Quat   `json:"rotation"`

	Radius float64 `json:"radius,omitempty"`
	Mass   float64 `json:"mass,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
}

func newObjectView(obj world.Object) ObjectView {
	view := ObjectView{
		ID:       obj.ID,
		Role:     string(obj.Role),
		Segment:  obj.Segment,
		Asset:    obj.Asset,
		Position: toVec3(obj.Position),
		Rotation: toQuat(obj.Rotation),
	}
	if obj.Role != world.RoleWall && obj.Role != world.RolePlayer {
		view.Kind = obj.Kind.String()
	}

	if obj.Shape == nil {
		return view
	}
	view.Shape = obj.Shape.Type.String()
	switch obj.Shape.Type {
	case world.SPHERE:
		if s := obj.Shape.Sphere; s != nil {
			view.Radius = safeValue(s.Radius)
			view.Mass = safeValue(s.Mass)
			view.Color = s.Color
		}
	case world.BOX:
		if b := obj.Shape.Box; b != nil {
			view.Width = safeValue(b.Width)
			view.Height = safeValue(b.Height)
			view.Depth = safeValue(b.Depth)
			view.Color = b.Color
		}
	}
	return view
}

// SegmentView сегмент трассы
type SegmentView struct {
	Kind     string  `json:"kind"`
	Index    int     `json:"index"`
	Position Vec3    `json:"position"`
	Phase    float64 `json:"phase,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// CourseMessage трасса целиком, отправляется при подключении и после перегенерации
type CourseMessage struct {
	Type       string        `json:"type"`
	Seed       *uint64       `json:"seed,omitempty"`
	Length     int           `json:"length"`
	Segments   []SegmentView `json:"segments"`
	Objects    []ObjectView  `json:"objects"`
	ServerTime int64         `json:"server_time"`
}

// NewCourseMessage создает сообщение с трассой
func NewCourseMessage(layout *course.Layout, objects []world.Object) CourseMessage {
	msg := CourseMessage{
		Type:       MessageTypeCourse,
		Segments:   []SegmentView{},
		Objects:    make([]ObjectView, 0, len(objects)),
		ServerTime: GetCurrentServerTime(),
	}
	if layout != nil {
		msg.Seed = layout.Seed
		msg.Length = layout.TotalLength()
		for _, seg := range layout.Segments {
			view := SegmentView{Kind: seg.Kind.String(), Index: seg.Index, Position: toVec3(seg.Position)}
			if seg.Motion != nil {
				view.Phase = seg.Motion.Phase
				view.Speed = seg.Motion.Speed
			}
			msg.Segments = append(msg.Segments, view)
		}
	}
	for _, obj := range objects {
		msg.Objects = append(msg.Objects, newObjectView(obj))
	}
	return msg
}

// TransformUpdate поза одного объекта
type TransformUpdate struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// BatchUpdateMessage позы движущихся объектов за тик
type BatchUpdateMessage struct {
	Type       string                     `json:"type"`
	Tick       uint64                     `json:"tick"`
	ServerTime int64                      `json:"server_time"`
	Updates    map[string]TransformUpdate `json:"updates"`
}

// NewBatchUpdateMessage создает сообщение с позами объектов
func NewBatchUpdateMessage(objects []world.Object, tick uint64) BatchUpdateMessage {
	updates := make(map[string]TransformUpdate, len(objects))
	for _, obj := range objects {
		updates[obj.ID] = TransformUpdate{Position: toVec3(obj.Position), Rotation: toQuat(obj.Rotation)}
	}
	return BatchUpdateMessage{
		Type:       MessageTypeBatchUpdate,
		Tick:       tick,
		ServerTime: GetCurrentServerTime(),
		Updates:    updates,
	}
}

// NewPongMessage создает новое сообщение-ответ на пинг
func NewPongMessage(clientTime float64) map[string]interface{} {
	return map[string]interface{}{
		"type":        MessageTypePong,
		"client_time": clientTime,
		"server_time": GetCurrentServerTime(),
	}
}

// NewAckMessage создает новое сообщение-подтверждение команды
func NewAckMessage(cmd string, clientTime float64) map[string]interface{} {
	return map[string]interface{}{
		"type":        MessageTypeAck,
		"cmd":         cmd,
		"client_time": clientTime,
		"server_time": GetCurrentServerTime(),
	}
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    MessageTypeInfo,
		"message": message,
	}
}

// NewErrorMessage сообщает клиенту об отклоненной команде
func NewErrorMessage(cmd string, err error) map[string]interface{} {
	return map[string]interface{}{
		"type":  MessageTypeError,
		"cmd":   cmd,
		"error": err.Error(),
	}
}
