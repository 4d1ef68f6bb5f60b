package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Pencil strokes carry full
	// point lists, so this is roomier than a chat protocol would need.
	maxMessageSize = 65536
)

// Client is a single authenticated websocket connection.
type Client struct {
	ID     string
	UserID string
	relay  *Relay
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[int64]struct{} // guarded by the registry mutex
}

// NewClient creates a client for a verified user identity.
func NewClient(relay *Relay, conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		relay:  relay,
		conn:   conn,
		send:   make(chan []byte, 256),
		rooms:  make(map[int64]struct{}),
	}
}

// ReadPump reads frames from the socket and hands them to the relay's
// dispatch loop. On socket close the connection is unregistered, but
// messages already handed off still complete their persistence and
// broadcast.
func (c *Client) ReadPump() {
	defer func() {
		c.relay.registry.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.relay.Dispatch(c, message)
	}
}

// WritePump pumps broadcasts from the registry to the websocket
// connection, coalescing queued frames and keeping the peer alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Registry closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
