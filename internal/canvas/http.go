package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// FetchShapes loads a room's existing shapes over HTTP, used once at
// canvas mount to seed the local collection. Entries that fail to decode
// are skipped so one corrupt row cannot hide the rest of the history.
func FetchShapes(ctx context.Context, baseURL, token string, roomID int64) ([]domain.Shape, error) {
	url := fmt.Sprintf("%s/rooms/%d/shapes", baseURL, roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch shapes: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Shapes []json.RawMessage `json:"shapes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch shapes: %w", err)
	}

	shapes := make([]domain.Shape, 0, len(body.Shapes))
	for _, raw := range body.Shapes {
		shape, err := domain.DecodeShape(raw)
		if err != nil {
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}
