package canvas

import (
	"math"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// pencilHitTolerance is how close (in world pixels) a point must be to a
// polyline vertex to count as a hit. Vertex proximity is an approximation,
// not exact stroke-distance testing.
const pencilHitTolerance = 5.0

// hitShape reports whether the world point lies on the shape. Rectangle
// bounds are normalized first so shapes dragged toward the negative axes
// still test correctly; a point exactly on the border is a hit.
func hitShape(s domain.Shape, x, y float64) bool {
	switch v := s.(type) {
	case *domain.Rect:
		min, max := domain.Bounds(v)
		return x >= min.X && x <= max.X && y >= min.Y && y <= max.Y
	case *domain.Circle:
		dx := x - v.CenterX
		dy := y - v.CenterY
		return math.Hypot(dx, dy) <= v.Radius
	case *domain.Pencil:
		for _, p := range v.Points {
			if math.Hypot(x-p.X, y-p.Y) <= pencilHitTolerance {
				return true
			}
		}
		return false
	default:
		return false
	}
}
