package ws

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chat-relay/classifier"
	"chat-relay/domain"
	"chat-relay/runtime"
)

// testFrame is a loose superset of every server-to-client frame shape.
type testFrame struct {
	Type      string   `json:"type"`
	Success   bool     `json:"success"`
	Username  string   `json:"username"`
	Sender    string   `json:"sender"`
	Recipient string   `json:"recipient"`
	Message   string   `json:"message"`
	Mood      string   `json:"mood"`
	Users     []string `json:"users"`
	Timestamp int64    `json:"timestamp"`
}

type testServer struct {
	httpServer *httptest.Server
	registry   *runtime.Registry
	appends    chan domain.Append
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	req := require.New(t)

	lexicon, err := classifier.NewLexicon()
	req.NoError(err)

	registry := runtime.NewRegistry()
	presence := runtime.NewPresence(slog.Default(), registry)
	appends := make(chan domain.Append, 64)
	router := runtime.NewRouter(slog.Default(), registry,
		runtime.NewDirectory(map[string][]string{"#team": {"alice", "bob", "carol"}}),
		lexicon, nil, appends, 5000)

	server := httptest.NewServer(NewServer(slog.Default(), registry, presence, router, 5*time.Second))
	t.Cleanup(server.Close)

	return &testServer{httpServer: server, registry: registry, appends: appends}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *testServer) connect(t *testing.T, username string) *websocket.Conn {
	t.Helper()
	req := require.New(t)
	conn := s.dial(t)
	req.NoError(conn.WriteJSON(domain.ConnectFrame{Type: domain.FrameConnect, Username: username}))

	response := readFrame(t, conn)
	req.Equal(domain.FrameConnectResponse, response.Type)
	req.True(response.Success)
	req.Equal(username, response.Username)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame testFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// readUntil skips interleaved frames (presence updates mostly) until one
// of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) testFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		frame := readFrame(t, conn)
		if frame.Type == frameType {
			return frame
		}
	}
	t.Fatalf("no %s frame received", frameType)
	return testFrame{}
}

func TestHandshake_Connect_Then_Presence(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	alice := server.connect(t, "alice")

	// The connecting session appears in the presence snapshot
	update := readUntil(t, alice, domain.FrameUpdateUsers)
	req.Equal([]string{"alice"}, update.Users)

	// And in every subsequent one
	server.connect(t, "bob")
	update = readUntil(t, alice, domain.FrameUpdateUsers)
	req.Equal([]string{"alice", "bob"}, update.Users)
}

func TestScenario_Direct_Message_With_Mood(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := server.connect(t, "alice")
	bob := server.connect(t, "bob")

	req.NoError(alice.WriteJSON(domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "bob", Message: "I love this!",
	}))

	delivered := readUntil(t, bob, domain.FrameMessage)
	req.Equal("alice", delivered.Sender)
	req.Equal("I love this!", delivered.Message)
	req.Equal(string(domain.MoodHappy), delivered.Mood)
	req.NotZero(delivered.Timestamp)
}

func TestScenario_Duplicate_Username_Rejected(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := server.connect(t, "alice")
	readUntil(t, alice, domain.FrameUpdateUsers)

	// When carol claims alice's username
	carol := server.dial(t)
	req.NoError(carol.WriteJSON(domain.ConnectFrame{Type: domain.FrameConnect, Username: "alice"}))

	failure := readFrame(t, carol)
	req.Equal(domain.FrameError, failure.Type)
	req.Equal("Username already taken", failure.Message)

	// Then carol's connection is closed by the server
	req.NoError(carol.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := carol.ReadMessage()
	req.Error(err)

	// And alice's session still receives presence updates
	server.connect(t, "bob")
	update := readUntil(t, alice, domain.FrameUpdateUsers)
	req.Equal([]string{"alice", "bob"}, update.Users)
}

func TestScenario_Message_Before_Connect(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	conn := server.dial(t)
	req.NoError(conn.WriteJSON(domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "bob", Message: "sneaky",
	}))

	failure := readFrame(t, conn)
	req.Equal(domain.FrameError, failure.Type)
	req.Equal("Not authenticated", failure.Message)

	// No registry change happened and the connection is still usable
	req.Zero(server.registry.Len())
	req.NoError(conn.WriteJSON(domain.ConnectFrame{Type: domain.FrameConnect, Username: "alice"}))
	response := readFrame(t, conn)
	req.Equal(domain.FrameConnectResponse, response.Type)
	req.True(response.Success)
}

func TestHandshake_Empty_Username_Closes_Connection(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	conn := server.dial(t)
	req.NoError(conn.WriteJSON(domain.ConnectFrame{Type: domain.FrameConnect}))

	failure := readFrame(t, conn)
	req.Equal(domain.FrameError, failure.Type)
	req.Equal("Valid username required", failure.Message)

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
	req.Zero(server.registry.Len())
}

func TestProtocol_Error_Keeps_Connection_Open(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	conn := server.dial(t)
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	failure := readFrame(t, conn)
	req.Equal(domain.FrameError, failure.Type)

	// The connection survived the protocol error
	req.NoError(conn.WriteJSON(domain.ConnectFrame{Type: domain.FrameConnect, Username: "alice"}))
	response := readFrame(t, conn)
	req.True(response.Success)
}

func TestGroup_Message_Fans_Out_To_Online_Members(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := server.connect(t, "alice")
	bob := server.connect(t, "bob")
	carol := server.connect(t, "carol")

	req.NoError(alice.WriteJSON(domain.MessageFrame{
		Type: domain.FrameMessage, Recipient: "#team", Message: "standup in five",
	}))

	for _, member := range []*websocket.Conn{bob, carol} {
		delivered := readUntil(t, member, domain.FrameMessage)
		req.Equal("alice", delivered.Sender)
		req.Equal("standup in five", delivered.Message)
	}

	// The sender gets presence traffic only, never the group echo
	req.NoError(alice.WriteJSON(domain.TypingFrame{Type: domain.FrameTyping, Recipient: "bob"}))
	typing := readUntil(t, bob, domain.FrameTyping)
	req.Equal("alice", typing.Sender)
}

func TestDisconnect_Triggers_Presence_Update(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := server.connect(t, "alice")
	bob := server.connect(t, "bob")

	// Drain alice's own presence snapshot
	readUntil(t, alice, domain.FrameUpdateUsers)

	req.NoError(bob.Close())

	// Eventually alice sees a snapshot without bob
	deadline := time.Now().Add(2 * time.Second)
	for {
		update := readUntil(t, alice, domain.FrameUpdateUsers)
		if len(update.Users) == 1 {
			req.Equal([]string{"alice"}, update.Users)
			return
		}
		if time.Now().After(deadline) {
			req.Fail("presence never dropped bob")
		}
	}
}
