package canvas

import (
	"github.com/Resham8/SketchFlow/internal/domain"
)

// canvasBackground is the clear color painted before every frame.
const canvasBackground = "#121212"

// selection outline styling
const (
	selectionColor   = "#1E90FF"
	selectionPadding = 4
)

// Fill describes how a closed shape's interior is painted. Pattern names a
// procedural tile (hachure or cross-hatch) in the fill color; FillSolid
// paints the color flat.
type Fill struct {
	Color   string
	Pattern domain.FillStyle
}

// Renderer is the drawing surface the canvas paints through. Implemented
// by a real 2D context in a UI and by a recorder in tests. Rect extents
// may be negative; implementations must handle both drag directions.
type Renderer interface {
	Clear(background string)
	Translate(dx, dy float64)
	SetStroke(color string, width float64, dash []float64)
	StrokeRect(x, y, w, h float64)
	FillRect(x, y, w, h float64, fill Fill)
	StrokeCircle(cx, cy, r float64)
	FillCircle(cx, cy, r float64, fill Fill)
	Polyline(points []domain.Point)
}

// dashPattern maps a stroke line style to its dash segments.
func dashPattern(style domain.LineStyle) []float64 {
	switch style {
	case domain.LineDashed:
		return []float64{5, 5}
	case domain.LineDotted:
		return []float64{2, 5}
	default:
		return nil
	}
}

// fillable reports whether a style calls for an interior fill. The
// transparent sentinel means "no fill".
func fillable(st domain.Style) bool {
	return st.FillStyle != "" &&
		st.BackgroundColor != "" &&
		st.BackgroundColor != domain.BackgroundTransparent
}

// Redraw paints the full scene: background, camera translation, every
// shape in insertion order with its own styling, and selection outlines.
func (c *Canvas) Redraw() {
	c.repaint(nil)
}

// repaint runs one draw pass. The camera translation is applied once for
// the whole pass; preview, when set, draws the in-progress shape on top in
// the same world space.
func (c *Canvas) repaint(preview func()) {
	r := c.renderer
	r.Clear(canvasBackground)
	r.Translate(c.camera.OffsetX, c.camera.OffsetY)

	for _, s := range c.shapes {
		c.drawShape(s)
		if c.tool == ToolSelect && s.Base().Selected {
			c.drawSelectionOutline(s)
		}
	}

	if preview != nil {
		preview()
	}

	r.Translate(-c.camera.OffsetX, -c.camera.OffsetY)
}

// drawShape strokes (and, for closed shapes, fills) one shape using the
// shape's own style, never the toolbar's current style.
func (c *Canvas) drawShape(s domain.Shape) {
	r := c.renderer
	st := s.Base().Style
	r.SetStroke(st.StrokeColor, st.StrokeWidth, dashPattern(st.StrokeStyle))

	switch v := s.(type) {
	case *domain.Rect:
		if fillable(st) {
			r.FillRect(v.X, v.Y, v.Width, v.Height, Fill{Color: st.BackgroundColor, Pattern: st.FillStyle})
		}
		r.StrokeRect(v.X, v.Y, v.Width, v.Height)
	case *domain.Circle:
		if fillable(st) {
			r.FillCircle(v.CenterX, v.CenterY, v.Radius, Fill{Color: st.BackgroundColor, Pattern: st.FillStyle})
		}
		r.StrokeCircle(v.CenterX, v.CenterY, v.Radius)
	case *domain.Pencil:
		if len(v.Points) >= 2 {
			r.Polyline(v.Points)
		}
	}
}

// drawSelectionOutline draws a padded dashed bounding box around a
// selected shape.
func (c *Canvas) drawSelectionOutline(s domain.Shape) {
	min, max := domain.Bounds(s)
	min.X -= selectionPadding
	min.Y -= selectionPadding
	max.X += selectionPadding
	max.Y += selectionPadding

	r := c.renderer
	r.SetStroke(selectionColor, 1, []float64{5, 5})
	r.StrokeRect(min.X, min.Y, max.X-min.X, max.Y-min.Y)
}

// drawPreview paints the in-progress shape from the drag origin to the
// current pointer position using the toolbar's current styles.
func (c *Canvas) drawPreview(pos domain.Point) {
	r := c.renderer
	st := c.defaults
	r.SetStroke(st.StrokeColor, st.StrokeWidth, dashPattern(st.StrokeStyle))

	width := pos.X - c.startX
	height := pos.Y - c.startY

	switch c.tool {
	case ToolRect:
		if fillable(st) {
			r.FillRect(c.startX, c.startY, width, height, Fill{Color: st.BackgroundColor, Pattern: st.FillStyle})
		}
		r.StrokeRect(c.startX, c.startY, width, height)
	case ToolCircle:
		cx := c.startX + width/2
		cy := c.startY + height/2
		radius := max(abs(width), abs(height)) / 2
		if fillable(st) {
			r.FillCircle(cx, cy, radius, Fill{Color: st.BackgroundColor, Pattern: st.FillStyle})
		}
		r.StrokeCircle(cx, cy, radius)
	case ToolPencil:
		if len(c.path) >= 2 {
			r.Polyline(c.path)
		}
	}
}
