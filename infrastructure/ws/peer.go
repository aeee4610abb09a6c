package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// peer wraps one websocket connection as a contract.Peer. Writes are
// serialized behind the mutex: the connection handler, the presence
// broadcaster, and the liveness monitor all write concurrently.
type peer struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

func newPeer(conn *websocket.Conn, writeTimeout time.Duration) *peer {
	return &peer{conn: conn, writeTimeout: writeTimeout}
}

func (p *peer) Send(frame any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
		return err
	}
	return p.conn.WriteJSON(frame)
}

func (p *peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.conn.Close()
	})
	return err
}

func (p *peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}
