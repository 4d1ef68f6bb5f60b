package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// ShapeStore is the persistence contract the relay drives. The id returned
// by CreateShape is the shape's durable identity; clients never fabricate
// their own.
type ShapeStore interface {
	CreateShape(ctx context.Context, roomID int64, userID string, shape []byte) (int64, error)
	UpdateShape(ctx context.Context, roomID, shapeID int64, shape []byte) error
	DeleteShape(ctx context.Context, roomID, shapeID int64) error
}

type inbound struct {
	client *Client
	data   []byte
}

// Relay brokers drawing mutations between connections: it validates each
// inbound message, persists mutations before acknowledging them, and fans
// committed mutations out to every connection in the room (sender
// included, so the sender converges on the server-assigned id).
type Relay struct {
	registry *Registry
	store    ShapeStore
	inbound  chan inbound
}

func New(registry *Registry, store ShapeStore) *Relay {
	return &Relay{
		registry: registry,
		store:    store,
		inbound:  make(chan inbound, 256),
	}
}

// Registry returns the connection registry this relay broadcasts through.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Dispatch queues a raw frame from a connection for handling.
func (r *Relay) Dispatch(c *Client, data []byte) {
	r.inbound <- inbound{client: c, data: data}
}

// Run is the relay's dispatch loop. Messages are handled one at a time, so
// writes for a room cannot race past each other and broadcast order equals
// commit order.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-r.inbound:
			r.handle(ctx, in.client, in.data)
		}
	}
}

// handle processes a single inbound message. Malformed messages and store
// failures are logged and fail that message only; the connection and every
// other room member are unaffected.
func (r *Relay) handle(ctx context.Context, c *Client, data []byte) {
	msg, err := domain.ParseInbound(data)
	if err != nil {
		log.Printf("drop message from user %s: %v", c.UserID, err)
		return
	}

	switch msg.Type {
	case domain.MessageTypeJoinRoom:
		r.registry.JoinRoom(c, msg.RoomID)

	case domain.MessageTypeLeaveRoom:
		r.registry.LeaveRoom(c, msg.RoomID)

	case domain.MessageTypeChat:
		r.handleChat(ctx, c, msg)

	case domain.MessageTypeUpdate:
		r.handleUpdate(ctx, c, msg)

	case domain.MessageTypeDelete:
		r.handleDelete(ctx, c, msg)
	}
}

// handleChat persists a new shape, attaches the store-assigned id and
// broadcasts the committed shape to the room. A failed write is logged and
// produces no broadcast; the relay never reports a write it did not make.
func (r *Relay) handleChat(ctx context.Context, c *Client, msg *domain.Inbound) {
	shape, err := domain.DecodeShape(msg.Shape)
	if err != nil {
		log.Printf("drop chat from user %s: %v", c.UserID, err)
		return
	}
	shape.Base().ID = 0 // identity is assigned here, never by the client

	data, err := domain.EncodeShape(shape)
	if err != nil {
		log.Printf("encode shape for user %s: %v", c.UserID, err)
		return
	}

	id, err := r.store.CreateShape(ctx, msg.RoomID, c.UserID, data)
	if err != nil {
		log.Printf("persist shape in room %d: %v", msg.RoomID, err)
		return
	}

	shape.Base().ID = id
	committed, err := domain.EncodeShape(shape)
	if err != nil {
		log.Printf("encode committed shape %d: %v", id, err)
		return
	}

	r.broadcast(msg.RoomID, domain.Outbound{
		Type:    domain.MessageTypeChat,
		Shape:   committed,
		ShapeID: id,
		RoomID:  msg.RoomID,
	})
}

// handleUpdate persists replacement geometry for an existing shape and
// broadcasts it. Updating a shape the store does not know is logged and
// dropped, mirroring delete.
func (r *Relay) handleUpdate(ctx context.Context, c *Client, msg *domain.Inbound) {
	shape, err := domain.DecodeShape(msg.Shape)
	if err != nil {
		log.Printf("drop update from user %s: %v", c.UserID, err)
		return
	}
	shape.Base().ID = msg.ShapeID

	data, err := domain.EncodeShape(shape)
	if err != nil {
		log.Printf("encode shape %d: %v", msg.ShapeID, err)
		return
	}

	if err := r.store.UpdateShape(ctx, msg.RoomID, msg.ShapeID, data); err != nil {
		log.Printf("update shape %d in room %d: %v", msg.ShapeID, msg.RoomID, err)
		return
	}

	r.broadcast(msg.RoomID, domain.Outbound{
		Type:    domain.MessageTypeUpdate,
		Shape:   data,
		ShapeID: msg.ShapeID,
		RoomID:  msg.RoomID,
	})
}

// handleDelete removes a shape from the store and broadcasts the deletion.
// A missing shape produces no broadcast: callers must not assume delivery
// confirmation for deletes that fail server-side.
func (r *Relay) handleDelete(ctx context.Context, c *Client, msg *domain.Inbound) {
	if err := r.store.DeleteShape(ctx, msg.RoomID, msg.ShapeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Printf("delete shape %d in room %d: not found", msg.ShapeID, msg.RoomID)
		} else {
			log.Printf("delete shape %d in room %d: %v", msg.ShapeID, msg.RoomID, err)
		}
		return
	}

	r.broadcast(msg.RoomID, domain.Outbound{
		Type:    domain.MessageTypeDelete,
		ShapeID: msg.ShapeID,
	})
}

func (r *Relay) broadcast(roomID int64, out domain.Outbound) {
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("encode broadcast for room %d: %v", roomID, err)
		return
	}
	r.registry.Broadcast(roomID, data)
}
