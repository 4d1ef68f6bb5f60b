package canvas

import (
	"context"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// Session is a client connection to the relay for one room. It sends shape
// mutations and feeds relay broadcasts back into a Canvas. Session
// implements ShapeSender.
type Session struct {
	conn   *websocket.Conn
	roomID int64

	mu sync.Mutex // serializes socket writes
}

// Dial connects to the relay, authenticating with the token, and joins the
// room. rawURL is the websocket endpoint, e.g. "ws://host:8080/ws".
func Dial(ctx context.Context, rawURL, token string, roomID int64) (*Session, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	s := &Session{conn: conn, roomID: roomID}
	if err := s.send(domain.Inbound{Type: domain.MessageTypeJoinRoom, RoomID: roomID}); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) send(msg domain.Inbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// SendCreate submits a newly drawn shape. The shape carries no id; the
// relay's broadcast will.
func (s *Session) SendCreate(shape domain.Shape) error {
	data, err := domain.EncodeShape(shape)
	if err != nil {
		return err
	}
	return s.send(domain.Inbound{
		Type:   domain.MessageTypeChat,
		RoomID: s.roomID,
		Shape:  data,
	})
}

// SendUpdate commits moved geometry for a persisted shape.
func (s *Session) SendUpdate(shape domain.Shape) error {
	data, err := domain.EncodeShape(shape)
	if err != nil {
		return err
	}
	return s.send(domain.Inbound{
		Type:    domain.MessageTypeUpdate,
		RoomID:  s.roomID,
		Shape:   data,
		ShapeID: shape.Base().ID,
	})
}

// SendDelete removes a persisted shape.
func (s *Session) SendDelete(shapeID int64) error {
	return s.send(domain.Inbound{
		Type:    domain.MessageTypeDelete,
		RoomID:  s.roomID,
		ShapeID: shapeID,
	})
}

// Leave gives up the room membership without closing the connection.
func (s *Session) Leave() error {
	return s.send(domain.Inbound{Type: domain.MessageTypeLeaveRoom, RoomID: s.roomID})
}

// Listen reads relay broadcasts and applies them to the canvas until the
// connection closes or ctx is canceled. A broadcast the canvas rejects is
// logged and skipped; it fails that message only.
func (s *Session) Listen(ctx context.Context, c *Canvas) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := c.ApplyMessage(data); err != nil {
			log.Printf("apply broadcast: %v", err)
		}
	}
}

func (s *Session) Close() error {
	return s.conn.Close()
}
