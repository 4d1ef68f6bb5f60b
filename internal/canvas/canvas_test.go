package canvas

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// recorder captures draw calls so tests can inspect a frame.
type recorder struct {
	ops []string
}

func (r *recorder) op(format string, args ...any) {
	r.ops = append(r.ops, fmt.Sprintf(format, args...))
}

func (r *recorder) Clear(background string)  { r.op("clear %s", background) }
func (r *recorder) Translate(dx, dy float64) { r.op("translate %g %g", dx, dy) }
func (r *recorder) SetStroke(color string, width float64, dash []float64) {
	r.op("stroke %s %g %v", color, width, dash)
}
func (r *recorder) StrokeRect(x, y, w, h float64) { r.op("strokeRect %g %g %g %g", x, y, w, h) }
func (r *recorder) FillRect(x, y, w, h float64, fill Fill) {
	r.op("fillRect %g %g %g %g %s/%s", x, y, w, h, fill.Color, fill.Pattern)
}
func (r *recorder) StrokeCircle(cx, cy, rad float64) { r.op("strokeCircle %g %g %g", cx, cy, rad) }
func (r *recorder) FillCircle(cx, cy, rad float64, fill Fill) {
	r.op("fillCircle %g %g %g %s/%s", cx, cy, rad, fill.Color, fill.Pattern)
}
func (r *recorder) Polyline(points []domain.Point) { r.op("polyline %v", points) }

func (r *recorder) reset() { r.ops = nil }

// fakeSender records outgoing mutations.
type fakeSender struct {
	created []domain.Shape
	updated []domain.Shape
	deleted []int64
}

func (f *fakeSender) SendCreate(shape domain.Shape) error {
	f.created = append(f.created, shape)
	return nil
}

func (f *fakeSender) SendUpdate(shape domain.Shape) error {
	f.updated = append(f.updated, shape)
	return nil
}

func (f *fakeSender) SendDelete(shapeID int64) error {
	f.deleted = append(f.deleted, shapeID)
	return nil
}

func newTestCanvas() (*Canvas, *recorder, *fakeSender) {
	r := &recorder{}
	s := &fakeSender{}
	return New(r, s), r, s
}

func chatBroadcast(t *testing.T, shape domain.Shape, id int64, roomID int64) []byte {
	t.Helper()
	shape.Base().ID = id
	data, err := domain.EncodeShape(shape)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := json.Marshal(domain.Outbound{
		Type: domain.MessageTypeChat, Shape: data, ShapeID: id, RoomID: roomID,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return out
}

func TestDrawRectSendsCreateWithoutLocalAdd(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.SetTool(ToolRect)

	c.PointerDown(PointerEvent{X: 10, Y: 10})
	c.PointerMove(PointerEvent{X: 40, Y: 25})
	c.PointerUp(PointerEvent{X: 60, Y: 30})

	if len(sender.created) != 1 {
		t.Fatalf("Expected 1 create mutation, got %d", len(sender.created))
	}
	rect, ok := sender.created[0].(*domain.Rect)
	if !ok {
		t.Fatalf("Expected *Rect, got %T", sender.created[0])
	}
	assert.Equal(t, 10.0, rect.X)
	assert.Equal(t, 10.0, rect.Y)
	assert.Equal(t, 50.0, rect.Width)
	assert.Equal(t, 20.0, rect.Height)
	assert.Equal(t, int64(0), rect.ID)

	// The shape joins the collection only via the relay broadcast
	assert.Equal(t, 0, len(c.Shapes()))
	assert.Equal(t, StateIdle, c.State())
}

func TestDrawRectNegativeExtents(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.SetTool(ToolRect)

	c.PointerDown(PointerEvent{X: 100, Y: 100})
	c.PointerUp(PointerEvent{X: 60, Y: 70})

	rect := sender.created[0].(*domain.Rect)
	assert.Equal(t, -40.0, rect.Width)
	assert.Equal(t, -30.0, rect.Height)
}

func TestDrawCircleGeometryFromDragBox(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.SetTool(ToolCircle)

	c.PointerDown(PointerEvent{X: 10, Y: 20})
	c.PointerUp(PointerEvent{X: 50, Y: 40})

	circle := sender.created[0].(*domain.Circle)
	assert.Equal(t, 30.0, circle.CenterX)
	assert.Equal(t, 30.0, circle.CenterY)
	// radius = max(|dx|, |dy|) / 2
	assert.Equal(t, 20.0, circle.Radius)
}

func TestDrawPencilAccumulatesPath(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.SetTool(ToolPencil)

	c.PointerDown(PointerEvent{X: 0, Y: 0})
	c.PointerMove(PointerEvent{X: 1, Y: 1})
	c.PointerMove(PointerEvent{X: 2, Y: 4})
	c.PointerMove(PointerEvent{X: 3, Y: 9})
	c.PointerUp(PointerEvent{X: 3, Y: 9})

	pencil := sender.created[0].(*domain.Pencil)
	want := []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}, {X: 3, Y: 9}}
	assert.Equal(t, want, pencil.Points)
}

func TestPencilBroadcastRendersIdenticalPolyline(t *testing.T) {
	// Client B renders the exact 4-point polyline client A drew
	a, _, senderA := newTestCanvas()
	a.SetTool(ToolPencil)
	a.PointerDown(PointerEvent{X: 0, Y: 0})
	a.PointerMove(PointerEvent{X: 10, Y: 5})
	a.PointerMove(PointerEvent{X: 20, Y: 0})
	a.PointerMove(PointerEvent{X: 30, Y: 5})
	a.PointerUp(PointerEvent{X: 30, Y: 5})

	drawn := senderA.created[0].(*domain.Pencil)

	b, rec, _ := newTestCanvas()
	if err := b.ApplyMessage(chatBroadcast(t, drawn, 7, 1)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(b.Shapes()) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(b.Shapes()))
	}
	got := b.Shapes()[0].(*domain.Pencil)
	assert.Equal(t, drawn.Points, got.Points)

	found := false
	for _, op := range rec.ops {
		if op == fmt.Sprintf("polyline %v", drawn.Points) {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected polyline draw of broadcast points, ops: %v", rec.ops)
	}
}

func TestApplyChatBackfillsStyleDefaults(t *testing.T) {
	c, _, _ := newTestCanvas()

	raw := []byte(`{"type":"chat","roomId":1,"shapeId":5,"shape":{"type":"rect","id":5,"x":1,"y":1,"width":5,"height":5}}`)
	if err := c.ApplyMessage(raw); err != nil {
		t.Fatalf("apply: %v", err)
	}

	st := c.Shapes()[0].Base().Style
	assert.Equal(t, "#e4e4e4", st.StrokeColor)
	assert.Equal(t, 1.25, st.StrokeWidth)
	assert.Equal(t, domain.LineSolid, st.StrokeStyle)
	assert.Equal(t, domain.BackgroundTransparent, st.BackgroundColor)
	assert.Equal(t, domain.FillHachure, st.FillStyle)
}

func TestApplyDeleteRemovesShape(t *testing.T) {
	c, _, _ := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 1}, X: 0, Y: 0, Width: 5, Height: 5},
		&domain.Rect{Common: domain.Common{ID: 2}, X: 10, Y: 10, Width: 5, Height: 5},
	})

	if err := c.ApplyMessage([]byte(`{"type":"delete","shapeId":1}`)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(c.Shapes()) != 1 {
		t.Fatalf("Expected 1 shape after delete, got %d", len(c.Shapes()))
	}
	assert.Equal(t, int64(2), c.Shapes()[0].Base().ID)

	// Deleting an id nobody has leaves the collection unchanged
	if err := c.ApplyMessage([]byte(`{"type":"delete","shapeId":99}`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	assert.Equal(t, 1, len(c.Shapes()))
}

func TestApplyUpdateReplacesGeometry(t *testing.T) {
	c, _, _ := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Circle{Common: domain.Common{ID: 3}, CenterX: 10, CenterY: 10, Radius: 5},
	})

	raw := []byte(`{"type":"update","shapeId":3,"roomId":1,"shape":{"type":"circle","id":3,"centerX":40,"centerY":50,"radius":5}}`)
	if err := c.ApplyMessage(raw); err != nil {
		t.Fatalf("apply: %v", err)
	}

	circle := c.Shapes()[0].(*domain.Circle)
	assert.Equal(t, 40.0, circle.CenterX)
	assert.Equal(t, 50.0, circle.CenterY)
}

func TestEraserDeletesDurableShape(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Circle{Common: domain.Common{ID: 9}, CenterX: 100, CenterY: 100, Radius: 20},
	})
	c.SetTool(ToolEraser)

	// distance 15 < 20: hit, removed locally, delete sent
	c.PointerDown(PointerEvent{X: 115, Y: 100})
	assert.Equal(t, 0, len(c.Shapes()))
	assert.Equal(t, []int64{9}, sender.deleted)
}

func TestEraserMissesOutsideRadius(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Circle{Common: domain.Common{ID: 9}, CenterX: 100, CenterY: 100, Radius: 20},
	})
	c.SetTool(ToolEraser)

	// distance 25 > 20: nothing happens
	c.PointerDown(PointerEvent{X: 125, Y: 100})
	assert.Equal(t, 1, len(c.Shapes()))
	assert.Equal(t, 0, len(sender.deleted))
}

func TestEraserSkipsPendingShapesAndContinuesBelow(t *testing.T) {
	c, _, sender := newTestCanvas()
	// Durable shape underneath, pending (id-less) shape on top
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 4}, X: 0, Y: 0, Width: 50, Height: 50},
		&domain.Rect{X: 0, Y: 0, Width: 50, Height: 50},
	})
	c.SetTool(ToolEraser)

	c.PointerDown(PointerEvent{X: 25, Y: 25})

	assert.Equal(t, []int64{4}, sender.deleted)
	// The pending shape stays; only the durable one was removed
	assert.Equal(t, 1, len(c.Shapes()))
	assert.Equal(t, int64(0), c.Shapes()[0].Base().ID)
}

func TestSelectAndDragSendsUpdateOnRelease(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 5}, X: 10, Y: 10, Width: 30, Height: 30},
	})
	c.SetTool(ToolSelect)

	c.PointerDown(PointerEvent{X: 20, Y: 20})
	assert.Equal(t, StateDraggingSelection, c.State())
	assert.Equal(t, true, c.Shapes()[0].Base().Selected)

	c.PointerMove(PointerEvent{X: 35, Y: 25})
	rect := c.Shapes()[0].(*domain.Rect)
	assert.Equal(t, 25.0, rect.X)
	assert.Equal(t, 15.0, rect.Y)

	c.PointerUp(PointerEvent{X: 35, Y: 25})
	assert.Equal(t, StateIdle, c.State())
	if len(sender.updated) != 1 {
		t.Fatalf("Expected drag end to send an update, got %d", len(sender.updated))
	}
	moved := sender.updated[0].(*domain.Rect)
	assert.Equal(t, 25.0, moved.X)
}

func TestSelectClickWithoutDragSendsNoUpdate(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 5}, X: 10, Y: 10, Width: 30, Height: 30},
	})
	c.SetTool(ToolSelect)

	c.PointerDown(PointerEvent{X: 20, Y: 20})
	c.PointerUp(PointerEvent{X: 20, Y: 20})

	assert.Equal(t, 0, len(sender.updated))
}

func TestSelectEmptySpaceClearsSelection(t *testing.T) {
	c, _, _ := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 5}, X: 10, Y: 10, Width: 30, Height: 30},
	})
	c.SetTool(ToolSelect)

	c.PointerDown(PointerEvent{X: 20, Y: 20})
	c.PointerUp(PointerEvent{X: 20, Y: 20})
	assert.Equal(t, true, c.Shapes()[0].Base().Selected)

	c.PointerDown(PointerEvent{X: 500, Y: 500})
	assert.Equal(t, false, c.Shapes()[0].Base().Selected)
}

func TestWheelPansCamera(t *testing.T) {
	c, _, _ := newTestCanvas()

	c.Wheel(WheelEvent{DeltaX: 10, DeltaY: -5})

	cam := c.Camera()
	assert.Equal(t, -10.0, cam.OffsetX)
	assert.Equal(t, 5.0, cam.OffsetY)

	// screen (sx, sy) maps to world (sx - offsetX, sy - offsetY)
	world := c.ScreenToWorld(100, 100)
	assert.Equal(t, 110.0, world.X)
	assert.Equal(t, 95.0, world.Y)
}

func TestWheelWithModifierIsReservedForZoom(t *testing.T) {
	c, _, _ := newTestCanvas()

	c.Wheel(WheelEvent{DeltaX: 10, DeltaY: 10, CtrlOrMeta: true})

	assert.Equal(t, Camera{}, c.Camera())
}

func TestHitTestingAccountsForCameraOffset(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Circle{Common: domain.Common{ID: 9}, CenterX: 100, CenterY: 100, Radius: 20},
	})
	c.SetTool(ToolEraser)

	c.Wheel(WheelEvent{DeltaX: 10, DeltaY: -5}) // offset (-10, 5)

	// Screen (90, 105) is world (100, 100): dead center
	c.PointerDown(PointerEvent{X: 90, Y: 105})
	assert.Equal(t, []int64{9}, sender.deleted)
}

func TestMiddleButtonDragPans(t *testing.T) {
	c, _, _ := newTestCanvas()

	c.PointerDown(PointerEvent{X: 50, Y: 50, Button: ButtonMiddle})
	assert.Equal(t, StatePanning, c.State())

	c.PointerMove(PointerEvent{X: 80, Y: 40})
	cam := c.Camera()
	assert.Equal(t, 30.0, cam.OffsetX)
	assert.Equal(t, -10.0, cam.OffsetY)

	c.PointerUp(PointerEvent{X: 80, Y: 40})
	assert.Equal(t, StateIdle, c.State())
}

func TestBroadcastMidDragKeepsDragConsistent(t *testing.T) {
	c, _, sender := newTestCanvas()
	c.Load([]domain.Shape{
		&domain.Rect{Common: domain.Common{ID: 5}, X: 10, Y: 10, Width: 30, Height: 30},
	})
	c.SetTool(ToolSelect)

	c.PointerDown(PointerEvent{X: 20, Y: 20})
	c.PointerMove(PointerEvent{X: 30, Y: 20})

	// A remote update for the dragged shape lands mid-drag
	raw := []byte(`{"type":"update","shapeId":5,"roomId":1,"shape":{"type":"rect","id":5,"x":200,"y":200,"width":30,"height":30}}`)
	if err := c.ApplyMessage(raw); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// The replacement stays selected, so the drag keeps operating on it
	c.PointerMove(PointerEvent{X: 40, Y: 20})
	c.PointerUp(PointerEvent{X: 40, Y: 20})

	if len(sender.updated) != 1 {
		t.Fatalf("Expected drag end to commit, got %d updates", len(sender.updated))
	}
	moved := sender.updated[0].(*domain.Rect)
	assert.Equal(t, 210.0, moved.X)
}

func TestLoadFailureFallsBackToEmptyScene(t *testing.T) {
	c, rec, _ := newTestCanvas()
	c.Load(nil)

	assert.Equal(t, 0, len(c.Shapes()))
	// The empty scene still paints
	assert.Equal(t, "clear "+canvasBackground, rec.ops[0])
}
