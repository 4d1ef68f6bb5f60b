package domain

import (
	"encoding/json"
	"fmt"
)

// ShapeKind discriminates the shape union on the wire and in storage.
type ShapeKind string

const (
	ShapeRect   ShapeKind = "rect"
	ShapeCircle ShapeKind = "circle"
	ShapePencil ShapeKind = "pencil"
)

// LineStyle is the stroke dash pattern of a shape outline.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dashed"
	LineDotted LineStyle = "dotted"
)

// FillStyle is how a closed shape's background is painted.
type FillStyle string

const (
	FillHachure FillStyle = "hachure"
	FillCross   FillStyle = "cross"
	FillSolid   FillStyle = "solid"
)

// WidthClass is the user-facing stroke width setting.
type WidthClass string

const (
	WidthThin   WidthClass = "thin"
	WidthMedium WidthClass = "medium"
	WidthThick  WidthClass = "thick"
)

// Pixels maps a width class to its stroke width in pixels.
// Unknown or empty classes fall back to thin.
func (w WidthClass) Pixels() float64 {
	switch w {
	case WidthMedium:
		return 2.5
	case WidthThick:
		return 3.75
	default:
		return 1.25
	}
}

// BackgroundTransparent is the sentinel background meaning "no fill".
const BackgroundTransparent = "transparent"

// Point is a position in room (world) coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style holds the per-shape stroke and fill attributes. BackgroundColor and
// FillStyle apply to closed shapes only; pencil strokes carry neither.
type Style struct {
	StrokeColor     string    `json:"strokeColor,omitempty"`
	StrokeWidth     float64   `json:"strokeWidth,omitempty"`
	StrokeStyle     LineStyle `json:"strokeStyle,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	FillStyle       FillStyle `json:"fillStyle,omitempty"`
}

// Common is the shared part of every shape variant. ID is zero until the
// store assigns one; Selected is client-local and never serialized.
type Common struct {
	ID       int64
	Selected bool
	Style    Style
}

// Base returns the shared fields. Promoted through embedding so every
// variant satisfies Shape.
func (c *Common) Base() *Common { return c }

// Shape is the tagged union over rect, circle and pencil. The set of
// variants is closed; consumers switch exhaustively on the concrete type.
type Shape interface {
	Kind() ShapeKind
	Base() *Common
}

// Rect is an axis-aligned rectangle. Width and height may be negative when
// the shape was dragged out toward the negative axes.
type Rect struct {
	Common
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (*Rect) Kind() ShapeKind { return ShapeRect }

// Circle is a center + radius disc. Radius is always >= 0.
type Circle struct {
	Common
	CenterX float64
	CenterY float64
	Radius  float64
}

func (*Circle) Kind() ShapeKind { return ShapeCircle }

// Pencil is a freehand polyline of world-coordinate points.
type Pencil struct {
	Common
	Points []Point
}

func (*Pencil) Kind() ShapeKind { return ShapePencil }

// Translate moves a shape's geometry by (dx, dy).
func Translate(s Shape, dx, dy float64) {
	switch v := s.(type) {
	case *Rect:
		v.X += dx
		v.Y += dy
	case *Circle:
		v.CenterX += dx
		v.CenterY += dy
	case *Pencil:
		for i := range v.Points {
			v.Points[i].X += dx
			v.Points[i].Y += dy
		}
	}
}

// Bounds returns the axis-aligned bounding box of a shape in world
// coordinates, normalized so min <= max even for negative extents.
func Bounds(s Shape) (min, max Point) {
	switch v := s.(type) {
	case *Rect:
		min = Point{X: v.X, Y: v.Y}
		max = Point{X: v.X + v.Width, Y: v.Y + v.Height}
		if min.X > max.X {
			min.X, max.X = max.X, min.X
		}
		if min.Y > max.Y {
			min.Y, max.Y = max.Y, min.Y
		}
	case *Circle:
		min = Point{X: v.CenterX - v.Radius, Y: v.CenterY - v.Radius}
		max = Point{X: v.CenterX + v.Radius, Y: v.CenterY + v.Radius}
	case *Pencil:
		if len(v.Points) == 0 {
			return Point{}, Point{}
		}
		min, max = v.Points[0], v.Points[0]
		for _, p := range v.Points[1:] {
			if p.X < min.X {
				min.X = p.X
			}
			if p.Y < min.Y {
				min.Y = p.Y
			}
			if p.X > max.X {
				max.X = p.X
			}
			if p.Y > max.Y {
				max.Y = p.Y
			}
		}
	}
	return min, max
}

// ResolveStyle back-fills any missing style field from the given defaults.
// Applied at every ingestion boundary (initial load, broadcast receive,
// local construction) so partially-specified shapes still render. Pencil
// shapes never carry a background or fill.
func ResolveStyle(s Shape, defaults Style) {
	st := &s.Base().Style
	if st.StrokeColor == "" {
		st.StrokeColor = defaults.StrokeColor
	}
	if st.StrokeWidth == 0 {
		st.StrokeWidth = defaults.StrokeWidth
	}
	if st.StrokeStyle == "" {
		st.StrokeStyle = defaults.StrokeStyle
	}
	if s.Kind() == ShapePencil {
		st.BackgroundColor = ""
		st.FillStyle = ""
		return
	}
	if st.BackgroundColor == "" {
		st.BackgroundColor = defaults.BackgroundColor
	}
	if st.FillStyle == "" {
		st.FillStyle = defaults.FillStyle
	}
}

// shapeJSON is the flat wire/storage form of every variant.
type shapeJSON struct {
	Type    ShapeKind `json:"type"`
	ID      int64     `json:"id,omitempty"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Width   float64   `json:"width,omitempty"`
	Height  float64   `json:"height,omitempty"`
	CenterX float64   `json:"centerX,omitempty"`
	CenterY float64   `json:"centerY,omitempty"`
	Radius  float64   `json:"radius,omitempty"`
	Points  []Point   `json:"points,omitempty"`
	Style
}

// EncodeShape serializes a shape to its flat JSON form. A zero ID is
// omitted so pending shapes never leak a fabricated id.
func EncodeShape(s Shape) ([]byte, error) {
	out := shapeJSON{Type: s.Kind(), ID: s.Base().ID, Style: s.Base().Style}
	switch v := s.(type) {
	case *Rect:
		out.X, out.Y, out.Width, out.Height = v.X, v.Y, v.Width, v.Height
	case *Circle:
		out.CenterX, out.CenterY, out.Radius = v.CenterX, v.CenterY, v.Radius
	case *Pencil:
		out.Points = v.Points
	default:
		return nil, fmt.Errorf("unknown shape kind %q", s.Kind())
	}
	return json.Marshal(out)
}

// DecodeShape parses the flat JSON form back into a shape variant.
func DecodeShape(data []byte) (Shape, error) {
	var raw shapeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "invalid shape payload: " + err.Error()}
	}
	common := Common{ID: raw.ID, Style: raw.Style}
	switch raw.Type {
	case ShapeRect:
		return &Rect{Common: common, X: raw.X, Y: raw.Y, Width: raw.Width, Height: raw.Height}, nil
	case ShapeCircle:
		if raw.Radius < 0 {
			return nil, &ValidationError{Reason: "circle radius must be >= 0"}
		}
		return &Circle{Common: common, CenterX: raw.CenterX, CenterY: raw.CenterY, Radius: raw.Radius}, nil
	case ShapePencil:
		return &Pencil{Common: common, Points: raw.Points}, nil
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown shape type %q", raw.Type)}
	}
}
