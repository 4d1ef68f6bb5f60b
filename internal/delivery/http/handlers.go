package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Resham8/SketchFlow/internal/auth"
	"github.com/Resham8/SketchFlow/internal/relay"
	"github.com/Resham8/SketchFlow/internal/store"
)

// ShapeLister serves the history a client loads at canvas mount.
type ShapeLister interface {
	ListShapes(ctx context.Context, roomID int64, userID string) ([]store.StoredShape, error)
}

type Handler struct {
	relay    *relay.Relay
	verifier *auth.Verifier
	shapes   ShapeLister
	upgrader websocket.Upgrader
}

func NewHandler(r *relay.Relay, verifier *auth.Verifier, shapes ShapeLister, allowedOrigins []string) *Handler {
	return &Handler{
		relay:    r,
		verifier: verifier,
		shapes:   shapes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return isOriginAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
	}
}

// isOriginAllowed checks if the origin is in the allowed list.
// Empty origin is allowed (non-browser clients and same-origin requests).
func isOriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(origin, a) {
			return true
		}
	}
	return false
}

// HandleWebSocket authenticates the handshake token and upgrades the
// connection. The token is verified before the connection is registered;
// a bad or missing token is refused outright.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := relay.NewClient(h.relay, conn, userID)
	h.relay.Registry().Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleListShapes returns the caller's shapes for a room, newest first.
// Each entry is the shape's flat JSON with the durable id attached.
func (h *Handler) HandleListShapes(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	roomID, err := strconv.ParseInt(r.PathValue("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		http.Error(w, "Invalid room id", http.StatusBadRequest)
		return
	}

	rows, err := h.shapes.ListShapes(r.Context(), roomID, userID)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	shapes := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		withID, err := attachID(row.Data, row.ID)
		if err != nil {
			// A corrupt row should not hide the rest of the history
			continue
		}
		shapes = append(shapes, withID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]json.RawMessage{
		"shapes": shapes,
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return header
}

// attachID injects the row id into a stored shape's JSON.
func attachID(data []byte, id int64) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["id"] = json.RawMessage(strconv.FormatInt(id, 10))
	return json.Marshal(fields)
}
