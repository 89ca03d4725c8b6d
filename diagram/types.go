// Package diagram defines the drawable primitives produced by the layout
// engine and consumed by renderers.
package diagram

import (
	"encoding/json"

	"erd/geometry"
)

// Kind tags a primitive variant.
type Kind string

const (
	KindFrame   Kind = "frame"
	KindRect    Kind = "rect"
	KindRhombus Kind = "rhombus"
	KindLine    Kind = "line"
	KindText    Kind = "text"
)

// Primitive is one positioned drawable. Implementations are value types;
// Translate returns a moved copy.
type Primitive interface {
	Kind() Kind
	Bounds() geometry.Rect
	Translate(dx, dy float64) Primitive
}

// Frame is the invisible reference shape heading a Group. A host moves the
// group by moving its frame.
type Frame struct {
	X, Y, W, H float64
}

func (f Frame) Kind() Kind { return KindFrame }
func (f Frame) Bounds() geometry.Rect { return geometry.Rect{X: f.X, Y: f.Y, W: f.W, H: f.H} }
func (f Frame) Translate(dx, dy float64) Primitive {
	f.X += dx
	f.Y += dy
	return f
}

// Rect is a labeled rectangle given by its top-left corner and size.
type Rect struct {
	Name       string
	X, Y, W, H float64
}

func (r Rect) Kind() Kind { return KindRect }
func (r Rect) Bounds() geometry.Rect { return geometry.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }
func (r Rect) Translate(dx, dy float64) Primitive {
	r.X += dx
	r.Y += dy
	return r
}

// Center returns the middle of the rectangle.
func (r Rect) Center() geometry.Vec2 {
	return geometry.V(r.X+r.W/2, r.Y+r.H/2)
}

// Rhombus is a labeled rhombus inscribed in the box X, Y, W, H.
type Rhombus struct {
	Name       string
	X, Y, W, H float64
}

func (r Rhombus) Kind() Kind { return KindRhombus }
func (r Rhombus) Bounds() geometry.Rect { return geometry.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }
func (r Rhombus) Translate(dx, dy float64) Primitive {
	r.X += dx
	r.Y += dy
	return r
}

// Vertices returns the four corners clockwise from the top.
func (r Rhombus) Vertices() [4]geometry.Vec2 {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	return [4]geometry.Vec2{
		geometry.V(cx, r.Y),
		geometry.V(r.X+r.W, cy),
		geometry.V(cx, r.Y+r.H),
		geometry.V(r.X, cy),
	}
}

// Cap is the marker drawn at the start of a line.
type Cap int

const (
	// CapNone draws no marker. Relation connectors use it.
	CapNone Cap = iota
	// CapHollow draws an empty circle.
	CapHollow
	// CapFilled draws a filled circle; marks a sole primary key.
	CapFilled
)

// CapFor maps a key flag to a marker.
func CapFor(filled bool) Cap {
	if filled {
		return CapFilled
	}
	return CapHollow
}

// MarshalJSON encodes the cap the way hosts expect startCapFilled: null,
// false or true.
func (c Cap) MarshalJSON() ([]byte, error) {
	switch c {
	case CapHollow:
		return []byte("false"), nil
	case CapFilled:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cap) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*c = CapNone
	case *v:
		*c = CapFilled
	default:
		*c = CapHollow
	}
	return nil
}

// Line is a polyline from Start through MidPoints to End.
type Line struct {
	Start     geometry.Vec2
	End       geometry.Vec2
	StartCap  Cap
	MidPoints []geometry.Vec2
}

func (l Line) Kind() Kind { return KindLine }

func (l Line) Bounds() geometry.Rect {
	return geometry.BoundsOf(l.Points()...)
}

func (l Line) Translate(dx, dy float64) Primitive {
	d := geometry.V(dx, dy)
	out := Line{Start: l.Start.Add(d), End: l.End.Add(d), StartCap: l.StartCap}
	if len(l.MidPoints) > 0 {
		out.MidPoints = make([]geometry.Vec2, len(l.MidPoints))
		for i, p := range l.MidPoints {
			out.MidPoints[i] = p.Add(d)
		}
	}
	return out
}

// Points returns every vertex of the polyline in drawing order.
func (l Line) Points() []geometry.Vec2 {
	pts := make([]geometry.Vec2, 0, len(l.MidPoints)+2)
	pts = append(pts, l.Start)
	pts = append(pts, l.MidPoints...)
	return append(pts, l.End)
}

// Midpoint returns the point halfway between Start and End.
func (l Line) Midpoint() geometry.Vec2 {
	return l.Start.Midpoint(l.End)
}

// Text is a single-line label with its top-left corner at X, Y.
type Text struct {
	Content       string
	X, Y          float64
	Width, Height float64
}

func (t Text) Kind() Kind { return KindText }
func (t Text) Bounds() geometry.Rect { return geometry.Rect{X: t.X, Y: t.Y, W: t.Width, H: t.Height} }
func (t Text) Translate(dx, dy float64) Primitive {
	t.X += dx
	t.Y += dy
	return t
}
