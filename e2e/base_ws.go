package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-relay/domain"
)

// frame is the loose decode target for every server-to-client frame kind.
type frame struct {
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

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end scenarios")
	}
}

// Step prints a colorized header so long scenario logs stay readable
func (s *BaseWsSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Client is one logged-in relay connection driven by the scenario.
type Client struct {
	suite *BaseWsSuite
	conn  *websocket.Conn
	Name  string
}

// Connect dials the relay and completes the handshake under the given username
func (s *BaseWsSuite) Connect(username string) *Client {
	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to connect to relay at "+url)

	client := &Client{suite: s, conn: conn, Name: username}
	client.Send(domain.ConnectFrame{Type: domain.FrameConnect, Username: username})

	response := client.Read()
	s.Require().Equal(domain.FrameConnectResponse, response.Type)
	s.Require().True(response.Success, "Handshake rejected for "+username)
	return client
}

func (c *Client) Send(payload any) {
	if c.suite.Config.DebugJSON {
		body, _ := json.MarshalIndent(payload, "", "  ")
		c.suite.T().Logf("%s SEND:\n%s", c.Name, body)
	}
	c.suite.Require().NoError(c.conn.WriteJSON(payload))
}

func (c *Client) Read() frame {
	c.suite.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(10 * time.Second)))
	var f frame
	c.suite.Require().NoError(c.conn.ReadJSON(&f))
	if c.suite.Config.DebugJSON {
		body, _ := json.MarshalIndent(f, "", "  ")
		c.suite.T().Logf("%s RECV:\n%s", c.Name, body)
	}
	return f
}

// ReadUntil answers ping probes and skips other frames until one of the
// wanted type arrives. Probes must be answered or the liveness monitor
// evicts the client mid-scenario.
func (c *Client) ReadUntil(frameType string) frame {
	for i := 0; i < 20; i++ {
		f := c.Read()
		if f.Type == domain.FramePing {
			c.Send(domain.PongFrame{Type: domain.FramePong})
			continue
		}
		if f.Type == frameType {
			return f
		}
	}
	c.suite.Require().FailNowf("no frame received", "wanted type %s", frameType)
	return frame{}
}

func (c *Client) Close() {
	_ = c.conn.Close()
}

// dialRaw opens a connection without performing the handshake, for
// scenarios probing the unauthenticated states.
func dialRaw(addr string) (*websocket.Conn, *http.Response, error) {
	return websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", addr), nil)
}
