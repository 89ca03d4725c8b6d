package layout

import (
	"fmt"
	"math"

	"erd/core"
	"erd/diagram"
	"erd/geometry"
)

// DefaultEntityName is used when an entity has no name.
const DefaultEntityName = "Entity"

// sideTolerance widens the East and West sectors slightly so an attribute
// landing exactly on a corner projects onto the vertical edge.
const sideTolerance = 0.001

// EntitySide reports which rectangle edge a ray at angle crosses, for a
// rectangle whose corner angle is theta.
func EntitySide(theta, angle float64) core.Direction {
	a := geometry.FullTurn(angle)
	switch {
	case a <= theta+sideTolerance || a >= 2*math.Pi-theta-sideTolerance:
		return core.East
	case a < math.Pi-theta-sideTolerance:
		return core.North
	case a <= math.Pi+theta+sideTolerance:
		return core.West
	default:
		return core.South
	}
}

// EntitySidePoint intersects a ray from the centre of a w×h rectangle with
// the given edge. The result is in centre-relative coordinates with y
// growing downward.
func EntitySidePoint(side core.Direction, w, h, angle float64) geometry.Vec2 {
	t := math.Tan(angle)
	switch side {
	case core.East:
		return geometry.V(w/2, -(w/2)*t)
	case core.North:
		return geometry.V(h/(2*t), -h/2)
	case core.West:
		return geometry.V(-w/2, (w/2)*t)
	default:
		return geometry.V(-h/(2*t), h/2)
	}
}

// EntityPerimeter returns where a ray at angle leaves the rectangle and the
// edge it crosses.
func EntityPerimeter(w, h, angle float64) (geometry.Vec2, core.Direction) {
	side := EntitySide(math.Atan(h/w), angle)
	return EntitySidePoint(side, w, h, angle), side
}

// Entity lays out a rectangle named after the entity with one connector and
// label per attribute.
func (e *Engine) Entity(ent *core.Entity) (diagram.Group, error) {
	if ent == nil {
		return nil, fmt.Errorf("%w: nil entity", ErrInvalidDescription)
	}
	alphas, ok := StartAngles(ent.Style)
	if !ok {
		return nil, fmt.Errorf("%w: entity style %q", ErrUnsupportedStyle, ent.Style)
	}
	if err := checkAttributes(ent.Attributes); err != nil {
		return nil, err
	}

	name := ent.Name
	if name == "" {
		name = DefaultEntityName
	}
	attrs := ent.Attributes
	nkeys := ent.KeyCount()
	if nkeys > 1 {
		attrs = PartitionKeys(attrs)
	}

	w := math.Max(e.dims.rectW, e.textWidth(name+"pp"))
	h := e.dims.rectH
	theta := math.Atan(h / w)

	var drawable []diagram.Primitive
	for i, side := range SplitSides(attrs, len(alphas)) {
		angles := Fan(len(side), alphas[i], EntitySpacing(len(side)))
		for j, a := range side {
			filled := a.IsKey && nkeys == 1
			drawable = append(drawable, e.entityAttribute(a.Name, Remap(theta, angles[j]), filled, w, h)...)
		}
	}
	if nkeys > 1 {
		if line, ok := e.compositeKey(drawable, nkeys); ok {
			drawable = append(drawable, line)
		}
	}

	rect := diagram.Rect{Name: name, X: -w / 2, Y: -h / 2, W: w, H: h}
	prims := append([]diagram.Primitive{rect}, drawable...)
	return diagram.NewGroup(prims, w/2, h/2), nil
}

func (e *Engine) entityAttribute(text string, angle float64, filled bool, w, h float64) []diagram.Primitive {
	start, side := EntityPerimeter(w, h, angle)
	end := start.Add(start.Unit().Scale(e.dims.attributeLen))
	tw := e.textWidth(text)

	var x, y float64
	switch side {
	case core.East:
		x, y = end.X+5, end.Y-10
	case core.North:
		x, y = end.X-tw/2-2, end.Y-23
	case core.West:
		x, y = end.X-7-tw, end.Y-10
	default:
		x, y = end.X-tw/2-2, end.Y+3
	}
	return []diagram.Primitive{
		diagram.Line{Start: start, End: end, StartCap: diagram.CapFor(filled)},
		e.label(text, x, y),
	}
}

// compositeKey joins the midpoints of the first nkeys attribute connectors
// with a single filled-cap line, overshooting both ends a little.
func (e *Engine) compositeKey(drawable []diagram.Primitive, nkeys int) (diagram.Line, bool) {
	mids := make([]geometry.Vec2, 0, nkeys)
	for _, p := range drawable {
		if len(mids) == nkeys {
			break
		}
		if l, ok := p.(diagram.Line); ok {
			mids = append(mids, l.Midpoint())
		}
	}
	k := len(mids)
	if k < 2 {
		return diagram.Line{}, false
	}

	extra := e.dims.multiKeyExtra
	start := extend(mids[k-1], mids[k-2], extra/2)
	end := extend(mids[0], mids[1], extra)

	var through []geometry.Vec2
	for i := k - 2; i >= 1; i-- {
		through = append(through, mids[i])
	}
	return diagram.Line{Start: start, End: end, StartCap: diagram.CapFilled, MidPoints: through}, true
}

// extend moves p by length away from toward.
func extend(p, from geometry.Vec2, length float64) geometry.Vec2 {
	d := p.Sub(from)
	if d.Length() == 0 {
		return p
	}
	return p.Add(d.Unit().Scale(length))
}
