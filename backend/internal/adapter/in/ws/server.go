package ws

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/port/in/coursemanagement"
	"x-course/backend/internal/world"
)

// Controls принимает ввод от сетевых обработчиков
type Controls interface {
	Set(a input.Action, pressed bool) bool
	Apply(snap input.Snapshot)
	Release()
}

// ObjectSource реестр объектов трассы. Сервер читает только копии
// из реестра и никогда не обращается к движку физики.
type ObjectSource interface {
	GetAllObjects() []world.Object
}

type handlerFunc func(client *SafeWriter, msg ClientMessage) error

// Server WebSocket адаптер трассы
type Server struct {
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	course   coursemanagement.CoursePort
	controls Controls
	objects  ObjectSource
	logger   zerolog.Logger

	pingInterval time.Duration

	clients   map[string]*SafeWriter
	clientsMu sync.RWMutex
}

// NewServer создает адаптер и подписывает его на смену трассы
func NewServer(coursePort coursemanagement.CoursePort, controls Controls, objects ObjectSource, pingInterval time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		course:       coursePort,
		controls:     controls,
		objects:      objects,
		logger:       logger,
		pingInterval: pingInterval,
		clients:      make(map[string]*SafeWriter),
	}
	s.registerHandlers()
	coursePort.OnLayout(s.broadcastCourse)
	return s
}

// Handler возвращает HTTP обработчик с маршрутом /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	return mux
}

func (s *Server) registerHandlers() {
	s.handlers = map[string]handlerFunc{
		MessageTypeInput:      s.handleInput,
		MessageTypeKeys:       s.handleKeys,
		MessageTypeRegenerate: s.handleRegenerate,
		MessageTypePing:       s.handlePing,
	}
}

func (s *Server) handleInput(client *SafeWriter, msg ClientMessage) error {
	action, ok := input.ParseAction(msg.Action)
	if !ok {
		return fmt.Errorf("unknown action %q", msg.Action)
	}
	s.controls.Set(action, msg.Pressed)
	return client.WriteJSON(NewAckMessage(MessageTypeInput, msg.ClientTime))
}

func (s *Server) handleKeys(client *SafeWriter, msg ClientMessage) error {
	var snap input.Snapshot
	for name, pressed := range msg.Keys {
		action, ok := input.ParseAction(name)
		if !ok {
			return fmt.Errorf("unknown key %q", name)
		}
		if pressed {
			snap.Set(action, true)
		}
	}
	s.controls.Apply(snap)
	return client.WriteJSON(NewAckMessage(MessageTypeKeys, msg.ClientTime))
}

func (s *Server) handleRegenerate(client *SafeWriter, msg ClientMessage) error {
	// новая трасса придет сообщением course после применения между кадрами
	s.course.RequestRegenerate(msg.Seed)
	return client.WriteJSON(NewAckMessage(MessageTypeRegenerate, msg.ClientTime))
}

func (s *Server) handlePing(client *SafeWriter, msg ClientMessage) error {
	return client.WriteJSON(NewPongMessage(msg.ClientTime))
}

// HandleWS обрабатывает WebSocket соединения
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	client := NewSafeWriter(conn)
	logger := s.logger.With().Str("client", id).Logger()

	s.clientsMu.Lock()
	s.clients[id] = client
	s.clientsMu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		s.disconnect(id, client)
		logger.Info().Msg("client disconnected")
	}()

	logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	if err := client.WriteJSON(NewInfoMessage("connected " + id)); err != nil {
		logger.Error().Err(err).Msg("failed to send info")
		return
	}
	if err := client.WriteJSON(NewCourseMessage(s.course.Layout(), s.objects.GetAllObjects())); err != nil {
		logger.Error().Err(err).Msg("failed to send course")
		return
	}

	if s.pingInterval > 0 {
		s.keepAlive(conn, client, done, logger)
	}

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("read failed")
			}
			return
		}

		handler, ok := s.handlers[msg.Type]
		if !ok {
			logger.Warn().Str("type", msg.Type).Msg("no handler for message type")
			continue
		}

		if err := handler(client, msg); err != nil {
			logger.Warn().Err(err).Str("type", msg.Type).Msg("message rejected")
			if werr := client.WriteJSON(NewErrorMessage(msg.Type, err)); werr != nil {
				return
			}
		}
	}
}

// keepAlive шлет ping кадры и продлевает срок чтения по pong
func (s *Server) keepAlive(conn *websocket.Conn, client *SafeWriter, done <-chan struct{}, logger zerolog.Logger) {
	wait := 2 * s.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.WritePing(s.pingInterval); err != nil {
					logger.Debug().Err(err).Msg("ping failed")
					return
				}
			}
		}
	}()
}

func (s *Server) disconnect(id string, client *SafeWriter) {
	s.clientsMu.Lock()
	delete(s.clients, id)
	remaining := len(s.clients)
	s.clientsMu.Unlock()

	_ = client.Close()

	// без клиентов некому отпустить клавиши
	if remaining == 0 {
		s.controls.Release()
	}
}

func (s *Server) snapshotClients() map[string]*SafeWriter {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	out := make(map[string]*SafeWriter, len(s.clients))
	for id, c := range s.clients {
		out[id] = c
	}
	return out
}

func (s *Server) broadcast(v interface{}) error {
	var errs []error
	for id, client := range s.snapshotClients() {
		if err := client.WriteJSON(v); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Server) broadcastCourse(layout *course.Layout) {
	msg := NewCourseMessage(layout, s.objects.GetAllObjects())
	if err := s.broadcast(msg); err != nil {
		s.logger.Warn().Err(err).Msg("failed to broadcast course")
	}
}

// BroadcastTransforms отправляет позы движущихся объектов всем клиентам.
// Ошибки отдельных клиентов только логируются.
func (s *Server) BroadcastTransforms(objects []world.Object, tick uint64) error {
	if s.ClientCount() == 0 {
		return nil
	}
	if err := s.broadcast(NewBatchUpdateMessage(objects, tick)); err != nil {
		s.logger.Debug().Err(err).Uint64("tick", tick).Msg("batch update not delivered")
	}
	return nil
}

// ClientCount число подключенных клиентов
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Close закрывает все соединения
func (s *Server) Close() error {
	var errs []error
	for _, client := range s.snapshotClients() {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
