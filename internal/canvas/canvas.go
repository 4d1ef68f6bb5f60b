package canvas

import (
	"encoding/json"
	"log"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolEraser Tool = "eraser"
	ToolPencil Tool = "pencil"
	ToolRect   Tool = "rect"
	ToolCircle Tool = "circle"
)

// State is the pointer interaction state.
type State string

const (
	StateIdle              State = "idle"
	StateDrawing           State = "drawing"
	StatePanning           State = "panning"
	StateDraggingSelection State = "dragging-selection"
)

// Button identifies the pointer button, matching DOM button numbering.
type Button int

const (
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
)

// PointerEvent is a pointer position in screen coordinates.
type PointerEvent struct {
	X      float64
	Y      float64
	Button Button
}

// WheelEvent is a scroll delta. CtrlOrMeta marks a modifier scroll, which
// is reserved for zoom and left unhandled.
type WheelEvent struct {
	DeltaX     float64
	DeltaY     float64
	CtrlOrMeta bool
}

// Camera is the client-local pixel translation applied to world
// coordinates before rendering. Never transmitted, never persisted.
type Camera struct {
	OffsetX float64
	OffsetY float64
}

// ShapeSender carries committed mutations to the relay. Session implements
// it over a websocket.
type ShapeSender interface {
	SendCreate(shape domain.Shape) error
	SendUpdate(shape domain.Shape) error
	SendDelete(shapeID int64) error
}

// StyleOptions is the user-facing styling state of the toolbar.
type StyleOptions struct {
	StrokeColor     string
	BackgroundColor string
	FillStyle       domain.FillStyle
	StrokeWidth     domain.WidthClass
	StrokeStyle     domain.LineStyle
}

// Canvas is the client-resident drawing state machine. It turns pointer
// input into shape mutations sent through a ShapeSender, reconciles its
// local shape collection with relay broadcasts, and renders the scene
// through a Renderer.
//
// Everything runs on the caller's event loop; handlers interleave only at
// call boundaries, so no locking is needed, but a broadcast arriving
// mid-drag must not corrupt drag state (ApplyMessage preserves selection).
type Canvas struct {
	renderer Renderer
	sender   ShapeSender

	shapes   []domain.Shape
	tool     Tool
	state    State
	defaults domain.Style
	camera   Camera

	// drag origin and last position, world coordinates
	startX, startY float64
	lastX, lastY   float64
	dragMoved      bool

	// pan origin, screen coordinates, and the camera at pan start
	panStartX, panStartY float64
	panCamera            Camera

	// accumulated pencil points for the in-progress stroke
	path []domain.Point
}

func New(renderer Renderer, sender ShapeSender) *Canvas {
	return &Canvas{
		renderer: renderer,
		sender:   sender,
		tool:     ToolCircle,
		state:    StateIdle,
		defaults: domain.Style{
			StrokeColor:     "#e4e4e4",
			StrokeWidth:     domain.WidthThin.Pixels(),
			StrokeStyle:     domain.LineSolid,
			BackgroundColor: domain.BackgroundTransparent,
			FillStyle:       domain.FillHachure,
		},
	}
}

// SetTool selects the active tool.
func (c *Canvas) SetTool(tool Tool) {
	c.tool = tool
}

// SetStyle updates the styles applied to newly drawn shapes and used to
// back-fill partially-specified incoming shapes.
func (c *Canvas) SetStyle(opts StyleOptions) {
	c.defaults = domain.Style{
		StrokeColor:     opts.StrokeColor,
		StrokeWidth:     opts.StrokeWidth.Pixels(),
		StrokeStyle:     opts.StrokeStyle,
		BackgroundColor: opts.BackgroundColor,
		FillStyle:       opts.FillStyle,
	}
}

// Tool returns the active tool.
func (c *Canvas) Tool() Tool { return c.tool }

// State returns the current interaction state.
func (c *Canvas) State() State { return c.state }

// Camera returns the current pan offset.
func (c *Canvas) Camera() Camera { return c.camera }

// Shapes returns the reconciled local shape collection in insertion order.
func (c *Canvas) Shapes() []domain.Shape { return c.shapes }

// Load seeds the local collection with previously persisted shapes, as
// fetched at canvas mount. Pass nil when the fetch failed: the scene
// starts empty rather than blocking. Missing style fields are back-filled
// with the current defaults.
func (c *Canvas) Load(shapes []domain.Shape) {
	c.shapes = c.shapes[:0]
	for _, s := range shapes {
		if s == nil {
			continue
		}
		s.Base().Selected = false
		domain.ResolveStyle(s, c.defaults)
		c.shapes = append(c.shapes, s)
	}
	c.Redraw()
}

// ApplyMessage reconciles one relay broadcast with the local collection.
// The relay is the single source of truth for shape identity: shapes enter
// the collection only here, carrying their server-assigned id.
func (c *Canvas) ApplyMessage(data []byte) error {
	var msg domain.Outbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return &domain.ValidationError{Reason: "invalid broadcast: " + err.Error()}
	}

	switch msg.Type {
	case domain.MessageTypeChat:
		shape, err := domain.DecodeShape(msg.Shape)
		if err != nil {
			return err
		}
		domain.ResolveStyle(shape, c.defaults)
		c.shapes = append(c.shapes, shape)

	case domain.MessageTypeUpdate:
		shape, err := domain.DecodeShape(msg.Shape)
		if err != nil {
			return err
		}
		domain.ResolveStyle(shape, c.defaults)
		for i, s := range c.shapes {
			if s.Base().ID == msg.ShapeID {
				// Keep the selection flag so an in-progress drag of this
				// shape survives the replacement
				shape.Base().Selected = s.Base().Selected
				c.shapes[i] = shape
				break
			}
		}

	case domain.MessageTypeDelete:
		kept := c.shapes[:0]
		for _, s := range c.shapes {
			if s.Base().ID != msg.ShapeID {
				kept = append(kept, s)
			}
		}
		c.shapes = kept

	default:
		return &domain.ValidationError{Reason: "unknown broadcast type " + string(msg.Type)}
	}

	c.Redraw()
	return nil
}

// ScreenToWorld converts a screen position to room coordinates by undoing
// the camera translation.
func (c *Canvas) ScreenToWorld(x, y float64) domain.Point {
	return domain.Point{X: x - c.camera.OffsetX, Y: y - c.camera.OffsetY}
}

// PointerDown starts a pan, a drag, an erase or a new shape depending on
// the button and the active tool.
func (c *Canvas) PointerDown(e PointerEvent) {
	if e.Button == ButtonMiddle {
		c.state = StatePanning
		c.panStartX, c.panStartY = e.X, e.Y
		c.panCamera = c.camera
		return
	}

	world := c.ScreenToWorld(e.X, e.Y)
	c.startX, c.startY = world.X, world.Y

	if c.tool != ToolSelect {
		c.clearSelection()
	}

	switch c.tool {
	case ToolEraser:
		c.eraseAt(world.X, world.Y)
		c.Redraw()

	case ToolSelect:
		if shape := c.shapeAt(world.X, world.Y); shape != nil {
			c.clearSelection()
			shape.Base().Selected = true
			c.state = StateDraggingSelection
			c.lastX, c.lastY = world.X, world.Y
			c.dragMoved = false
		} else {
			c.clearSelection()
		}
		c.Redraw()

	case ToolPencil:
		c.path = append(c.path[:0], world)
		c.state = StateDrawing

	case ToolRect, ToolCircle:
		c.state = StateDrawing
	}
}

// PointerMove pans the camera, drags the selected shape, or extends the
// live preview of the shape being drawn.
func (c *Canvas) PointerMove(e PointerEvent) {
	switch c.state {
	case StatePanning:
		c.camera.OffsetX = c.panCamera.OffsetX + (e.X - c.panStartX)
		c.camera.OffsetY = c.panCamera.OffsetY + (e.Y - c.panStartY)
		c.Redraw()

	case StateDraggingSelection:
		world := c.ScreenToWorld(e.X, e.Y)
		if shape := c.selectedShape(); shape != nil {
			domain.Translate(shape, world.X-c.lastX, world.Y-c.lastY)
			c.dragMoved = true
		}
		c.lastX, c.lastY = world.X, world.Y
		c.Redraw()

	case StateDrawing:
		world := c.ScreenToWorld(e.X, e.Y)
		if c.tool == ToolPencil {
			c.path = append(c.path, world)
		}
		c.repaint(func() {
			c.drawPreview(world)
		})
	}
}

// PointerUp finalizes the current interaction. Finishing a drawing sends a
// create mutation without touching the local collection: the shape appears
// when the relay broadcast comes back with its durable id. Finishing a
// drag of a persisted shape commits the move with an update mutation.
func (c *Canvas) PointerUp(e PointerEvent) {
	switch c.state {
	case StatePanning:
		c.state = StateIdle

	case StateDraggingSelection:
		if c.dragMoved {
			if shape := c.selectedShape(); shape != nil && shape.Base().ID != 0 {
				if err := c.sender.SendUpdate(shape); err != nil {
					log.Printf("send update: %v", err)
				}
			}
		}
		c.dragMoved = false
		c.state = StateIdle

	case StateDrawing:
		world := c.ScreenToWorld(e.X, e.Y)
		if shape := c.finalizeShape(world); shape != nil {
			if err := c.sender.SendCreate(shape); err != nil {
				log.Printf("send create: %v", err)
			}
		}
		c.path = nil
		c.state = StateIdle
		c.Redraw()

	default:
		c.state = StateIdle
	}
}

// Wheel pans the camera. Modifier scrolls are reserved for zoom.
func (c *Canvas) Wheel(e WheelEvent) {
	if e.CtrlOrMeta {
		return
	}
	c.camera.OffsetX -= e.DeltaX
	c.camera.OffsetY -= e.DeltaY
	c.Redraw()
}

// finalizeShape builds the durable shape for the drag from the start point
// to end, styled with the current defaults.
func (c *Canvas) finalizeShape(end domain.Point) domain.Shape {
	width := end.X - c.startX
	height := end.Y - c.startY

	var shape domain.Shape
	switch c.tool {
	case ToolRect:
		shape = &domain.Rect{
			X:      c.startX,
			Y:      c.startY,
			Width:  width,
			Height: height,
		}
	case ToolCircle:
		shape = &domain.Circle{
			CenterX: c.startX + width/2,
			CenterY: c.startY + height/2,
			Radius:  max(abs(width), abs(height)) / 2,
		}
	case ToolPencil:
		points := make([]domain.Point, len(c.path))
		copy(points, c.path)
		shape = &domain.Pencil{Points: points}
	default:
		return nil
	}

	domain.ResolveStyle(shape, c.defaults)
	return shape
}

// eraseAt removes the topmost durable shape under the point and sends the
// delete mutation. Shapes the store has not yet named cannot be deleted
// server-side and are skipped, so erasing continues underneath them.
func (c *Canvas) eraseAt(x, y float64) {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		shape := c.shapes[i]
		if !hitShape(shape, x, y) {
			continue
		}
		if shape.Base().ID == 0 {
			continue
		}
		c.shapes = append(c.shapes[:i], c.shapes[i+1:]...)
		if err := c.sender.SendDelete(shape.Base().ID); err != nil {
			log.Printf("send delete: %v", err)
		}
		return
	}
}

// shapeAt returns the topmost shape under the point, iterating in reverse
// insertion order.
func (c *Canvas) shapeAt(x, y float64) domain.Shape {
	for i := len(c.shapes) - 1; i >= 0; i-- {
		if hitShape(c.shapes[i], x, y) {
			return c.shapes[i]
		}
	}
	return nil
}

func (c *Canvas) selectedShape() domain.Shape {
	for _, s := range c.shapes {
		if s.Base().Selected {
			return s
		}
	}
	return nil
}

func (c *Canvas) clearSelection() {
	for _, s := range c.shapes {
		s.Base().Selected = false
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
