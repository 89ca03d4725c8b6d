package layout

import (
	"fmt"
	"math"

	"erd/core"
	"erd/diagram"
	"erd/geometry"
)

// DefaultRelationName is used when a relation has no name.
const DefaultRelationName = "Relation"

// Quadrant of the rhombus an attribute leaves through.
type Quadrant int

const (
	NorthEast Quadrant = iota
	NorthWest
	SouthWest
	SouthEast
)

func (q Quadrant) String() string {
	switch q {
	case NorthEast:
		return "NE"
	case NorthWest:
		return "NW"
	case SouthWest:
		return "SW"
	case SouthEast:
		return "SE"
	}
	return fmt.Sprintf("Quadrant(%d)", int(q))
}

// quadrantAngles are the fan centres for the four attribute groups of a
// relation, in the order SplitQuadrants fills them.
var quadrantAngles = [4]float64{
	math.Pi + math.Pi/6,
	math.Pi - math.Pi/6,
	math.Pi / 6,
	2*math.Pi - math.Pi/6,
}

// RhombusPerimeter intersects a ray at angle with a rhombus whose half
// diagonals are hw and hh. The result is centre-relative, y downward.
func RhombusPerimeter(hw, hh, angle float64) (geometry.Vec2, Quadrant) {
	a := geometry.FullTurn(angle)
	var t float64
	var q Quadrant
	switch {
	case a < math.Pi/2:
		t, q = math.Tan(a), NorthEast
	case a < math.Pi:
		t, q = math.Tan(math.Pi-a), NorthWest
	case a < 3*math.Pi/2:
		t, q = math.Tan(a-math.Pi), SouthWest
	default:
		t, q = math.Tan(2*math.Pi-a), SouthEast
	}
	x := hw * hh / (hh + hw*t)
	y := hw * hh * t / (hh + hw*t)
	switch q {
	case NorthEast:
		return geometry.V(x, -y), q
	case NorthWest:
		return geometry.V(-x, -y), q
	case SouthWest:
		return geometry.V(-x, y), q
	default:
		return geometry.V(x, y), q
	}
}

// Relation lays out a rhombus with two cardinality connectors and the
// relation's attributes spread over its four quadrants.
func (e *Engine) Relation(rel *core.Relation) (diagram.Group, error) {
	if rel == nil {
		return nil, fmt.Errorf("%w: nil relation", ErrInvalidDescription)
	}
	style := rel.Style
	if len(style) == 0 {
		style = core.DefaultConnectors()
	}
	if err := checkConnectors(style); err != nil {
		return nil, err
	}
	if err := checkAttributes(rel.Attributes); err != nil {
		return nil, err
	}

	name := rel.Name
	if name == "" {
		name = DefaultRelationName
	}
	dx, dy := e.dims.rhombusX, e.dims.rhombusY

	var drawable []diagram.Primitive
	for _, c := range style {
		drawable = append(drawable, e.connector(c, dx, dy)...)
	}

	for i, quad := range SplitQuadrants(rel.Attributes) {
		n := len(quad)
		angles := Fan(n, quadrantAngles[i], RelationSpacing(n))
		mid := n / 2
		if n%2 == 1 {
			drawable = append(drawable, e.relationAttribute(quad[mid].Name, angles[mid], dx, dy)...)
		}
		for j := 0; j < mid; j++ {
			lo := mid - j - 1
			hi := mid + j + n%2
			before := e.relationAttribute(quad[lo].Name, angles[lo], dx, dy)
			drawable = append(append(before, drawable...), e.relationAttribute(quad[hi].Name, angles[hi], dx, dy)...)
		}
	}

	rhombus := diagram.Rhombus{Name: name, X: -dx / 2, Y: -dy / 2, W: dx, H: dy}
	prims := append([]diagram.Primitive{rhombus}, drawable...)
	return diagram.NewGroup(prims, dx/2, dy/2), nil
}

func checkConnectors(style []core.Connector) error {
	if len(style) != 2 {
		return fmt.Errorf("%w: relation needs exactly two connectors, got %d", ErrInvalidDescription, len(style))
	}
	if style[0].Direction == style[1].Direction {
		return fmt.Errorf("%w: both connectors point %s", ErrInvalidDescription, style[0].Direction)
	}
	for _, c := range style {
		if !c.Cardinality.Valid() {
			return fmt.Errorf("%w: cardinality %q", ErrInvalidDescription, c.Cardinality)
		}
		if _, err := core.ParseDirection(c.Direction.Letter()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDescription, err)
		}
	}
	return nil
}

// connector draws the cardinality line leaving the rhombus vertex in the
// connector's direction, label first.
func (e *Engine) connector(c core.Connector, dx, dy float64) []diagram.Primitive {
	var start geometry.Vec2
	switch c.Direction {
	case core.East:
		start = geometry.V(dx/2, 0)
	case core.North:
		start = geometry.V(0, -dy/2)
	case core.West:
		start = geometry.V(-dx/2, 0)
	default:
		start = geometry.V(0, dy/2)
	}
	end := start.Add(start.Unit().Scale(e.dims.relationLen))

	text := c.Cardinality.Label()
	var x, y float64
	switch c.Direction {
	case core.East:
		x, y = start.X+5, start.Y-20
	case core.North:
		x, y = start.X+1, start.Y-20
	case core.West:
		x, y = start.X-7-e.textWidth(text), start.Y-20
	default:
		x, y = start.X+1, start.Y-1
	}
	return []diagram.Primitive{
		e.label(text, x, y),
		diagram.Line{Start: start, End: end},
	}
}

func (e *Engine) relationAttribute(text string, angle, dx, dy float64) []diagram.Primitive {
	start, q := RhombusPerimeter(dx/2, dy/2, angle)
	end := start.Add(start.Unit().Scale(e.dims.attributeLen))
	tw := e.textWidth(text)

	var x, y float64
	switch q {
	case NorthEast:
		x, y = end.X+3, end.Y-13
	case NorthWest:
		x, y = end.X-tw-7, end.Y-13
	case SouthWest:
		x, y = end.X-tw-7, end.Y-8
	default:
		x, y = end.X+3, end.Y-8
	}
	return []diagram.Primitive{
		e.label(text, x, y),
		diagram.Line{Start: start, End: end, StartCap: diagram.CapHollow},
	}
}
