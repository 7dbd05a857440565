package ws

import (
	"context"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-course/backend/internal/core/domain/course"
	"x-course/backend/internal/core/domain/input"
	"x-course/backend/internal/core/domain/player"
	"x-course/backend/internal/core/domain/service"
	"x-course/backend/internal/core/port/out/physics/physicstest"
	"x-course/backend/internal/world"
)

type wsFixture struct {
	session *service.Session
	manager *world.Manager
	state   *input.State
	server  *Server
	http    *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	engine := physicstest.New()
	manager := world.NewManager()
	seed := uint64(42)
	session := service.NewSession(engine, world.NewFactory(manager, engine, zerolog.Nop()), service.Options{
		SegmentCount: 3,
		Kinds:        course.DefaultKinds(),
		Seed:         &seed,
		Player:       player.DefaultConfig(),
	}, zerolog.Nop())
	require.NoError(t, session.Start(context.Background()))

	state := input.NewState()
	server := NewServer(session, state, manager, 0, zerolog.Nop())
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	return &wsFixture{session: session, manager: manager, state: state, server: server, http: httpServer}
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// connect подключается и пропускает приветствие
func (f *wsFixture) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	conn := f.dial(t)
	assert.Equal(t, MessageTypeInfo, readMessage(t, conn)["type"])
	assert.Equal(t, MessageTypeCourse, readMessage(t, conn)["type"])
	return conn
}

func TestServer_SendsCourseOnConnect(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	info := readMessage(t, conn)
	assert.Equal(t, MessageTypeInfo, info["type"])

	var msg CourseMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, MessageTypeCourse, msg.Type)
	assert.Equal(t, 5, msg.Length)
	require.Len(t, msg.Segments, 5)
	assert.Equal(t, "start", msg.Segments[0].Kind)
	assert.Equal(t, "end", msg.Segments[4].Kind)
	require.NotNil(t, msg.Seed)
	assert.Equal(t, uint64(42), *msg.Seed)
	assert.Len(t, msg.Objects, f.manager.Count())

	byID := make(map[string]ObjectView)
	for _, obj := range msg.Objects {
		byID[obj.ID] = obj
	}
	require.Contains(t, byID, world.PlayerID)
	assert.Equal(t, "sphere", byID[world.PlayerID].Shape)
	assert.InDelta(t, 0.3, byID[world.PlayerID].Radius, 1e-12)
	require.Contains(t, byID, world.GoalID)
	assert.Equal(t, course.GoalAsset, byID[world.GoalID].Asset)
	assert.Equal(t, "end", byID[world.GoalID].Kind)
}

func TestServer_InputUpdatesControls(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeInput, Action: "up", Pressed: true, ClientTime: 12.5}))
	ack := readMessage(t, conn)
	assert.Equal(t, MessageTypeAck, ack["type"])
	assert.Equal(t, MessageTypeInput, ack["cmd"])
	assert.Equal(t, 12.5, ack["client_time"])
	assert.True(t, f.state.Snapshot().Forward)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeKeys, Keys: map[string]bool{"left": true, "space": true}}))
	assert.Equal(t, MessageTypeAck, readMessage(t, conn)["type"])
	assert.Equal(t, input.Snapshot{Left: true, Jump: true}, f.state.Snapshot())
}

func TestServer_RejectsUnknownAction(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeInput, Action: "fly", Pressed: true}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg["type"])
	assert.Equal(t, input.Snapshot{}, f.state.Snapshot())
}

func TestServer_PingPong(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypePing, ClientTime: 1000}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypePong, msg["type"])
	assert.Equal(t, 1000.0, msg["client_time"])
	assert.Contains(t, msg, "server_time")
}

func TestServer_RegenerateBroadcastsNewCourse(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)

	seed := uint64(7)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeRegenerate, Seed: &seed}))
	ack := readMessage(t, conn)
	assert.Equal(t, MessageTypeRegenerate, ack["cmd"])

	// запрос применяется между кадрами
	applied, err := f.session.ApplyPending(context.Background())
	require.NoError(t, err)
	require.True(t, applied)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeCourse, msg["type"])
	assert.Equal(t, 7.0, msg["seed"])
}

func TestServer_BroadcastTransforms(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)
	require.Equal(t, 1, f.server.ClientCount())

	require.NoError(t, f.server.BroadcastTransforms(f.manager.MovingObjects(), 17))

	var msg BatchUpdateMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, MessageTypeBatchUpdate, msg.Type)
	assert.Equal(t, uint64(17), msg.Tick)
	require.Contains(t, msg.Updates, world.PlayerID)
	assert.Equal(t, 1.0, msg.Updates[world.PlayerID].Position.Y)
	assert.Equal(t, 1.0, msg.Updates[world.PlayerID].Rotation.W)
	assert.NotContains(t, msg.Updates, world.GoalID)
}

func TestServer_DisconnectReleasesControls(t *testing.T) {
	f := newWSFixture(t)
	conn := f.connect(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeInput, Action: "forward", Pressed: true}))
	readMessage(t, conn)
	require.True(t, f.state.Snapshot().Forward)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return f.server.ClientCount() == 0 && !f.state.Snapshot().Forward
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewBatchUpdateMessage_SanitizesNaN(t *testing.T) {
	objects := []world.Object{{ID: "x", Rotation: mgl64.QuatIdent()}}
	objects[0].Position[1] = math.NaN()

	msg := NewBatchUpdateMessage(objects, 1)
	assert.Equal(t, 0.0, msg.Updates["x"].Position.Y)
	assert.Equal(t, 1.0, msg.Updates["x"].Rotation.W)
}
