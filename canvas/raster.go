package canvas

import (
	"errors"
	"math"

	"github.com/mattn/go-runewidth"

	"erd/diagram"
	"erd/geometry"
)

var ErrNothingToDraw = errors.New("nothing to draw")

// tan(22.5°): segments flatter than this draw as straight runs.
const straightSlope = 0.41421356

// Rasterizer maps model coordinates onto cells of CellWidth × CellHeight
// with Origin at cell (0, 0).
type Rasterizer struct {
	CellWidth  float64
	CellHeight float64
	Origin     geometry.Vec2
	Style      Style
}

// Cell returns the cell containing model point p.
func (r *Rasterizer) Cell(p geometry.Vec2) Point {
	return Point{
		X: int(math.Floor((p.X - r.Origin.X) / r.CellWidth)),
		Y: int(math.Floor((p.Y - r.Origin.Y) / r.CellHeight)),
	}
}

// Render draws prims onto a canvas just large enough to hold them.
func Render(prims []diagram.Primitive, cellWidth, cellHeight float64, style Style) (*MatrixCanvas, error) {
	if len(prims) == 0 {
		return nil, ErrNothingToDraw
	}
	b := prims[0].Bounds()
	for _, p := range prims[1:] {
		b = b.Union(p.Bounds())
	}
	r := &Rasterizer{CellWidth: cellWidth, CellHeight: cellHeight, Origin: geometry.V(b.X, b.Y), Style: style}
	last := r.Cell(b.Max())
	c, err := NewMatrixCanvas(last.X+1, last.Y+1)
	if err != nil {
		return nil, err
	}
	r.Draw(c, prims)
	return c, nil
}

// Draw paints shapes, then lines and their caps, then every piece of text,
// so labels stay readable where they cross lines.
func (r *Rasterizer) Draw(c *MatrixCanvas, prims []diagram.Primitive) {
	for _, p := range prims {
		switch v := p.(type) {
		case diagram.Rect:
			r.drawRect(c, v)
		case diagram.Rhombus:
			r.drawRhombus(c, v)
		}
	}
	for _, p := range prims {
		if l, ok := p.(diagram.Line); ok {
			r.drawLine(c, l)
		}
	}
	for _, p := range prims {
		if l, ok := p.(diagram.Line); ok {
			switch l.StartCap {
			case diagram.CapFilled:
				c.Put(r.Cell(l.Start), r.Style.FilledCap)
			case diagram.CapHollow:
				c.Put(r.Cell(l.Start), r.Style.HollowCap)
			}
		}
	}
	for _, p := range prims {
		switch v := p.(type) {
		case diagram.Rect:
			r.drawName(c, v.Name, v.Bounds())
		case diagram.Rhombus:
			r.drawName(c, v.Name, v.Bounds())
		case diagram.Text:
			at := r.Cell(geometry.V(v.X, v.Y+v.Height/2))
			c.DrawText(at.X, at.Y, v.Content)
		}
	}
}

func (r *Rasterizer) drawRect(c *MatrixCanvas, rect diagram.Rect) {
	tl := r.Cell(geometry.V(rect.X, rect.Y))
	br := r.Cell(geometry.V(rect.X+rect.W, rect.Y+rect.H))
	s := r.Style

	c.DrawHorizontalLine(tl.X, tl.Y, br.X, s.Horizontal)
	if br.Y == tl.Y {
		return
	}
	c.DrawHorizontalLine(tl.X, br.Y, br.X, s.Horizontal)
	c.DrawVerticalLine(tl.X, tl.Y, br.Y, s.Vertical)
	c.DrawVerticalLine(br.X, tl.Y, br.Y, s.Vertical)
	c.Put(tl, s.TopLeft)
	c.Put(Point{br.X, tl.Y}, s.TopRight)
	c.Put(Point{tl.X, br.Y}, s.BottomLeft)
	c.Put(br, s.BottomRight)
}

func (r *Rasterizer) drawRhombus(c *MatrixCanvas, rh diagram.Rhombus) {
	v := rh.Vertices()
	for i := range v {
		r.drawSegment(c, v[i], v[(i+1)%len(v)])
	}
}

func (r *Rasterizer) drawLine(c *MatrixCanvas, l diagram.Line) {
	pts := l.Points()
	for i := 0; i+1 < len(pts); i++ {
		r.drawSegment(c, pts[i], pts[i+1])
	}
}

func (r *Rasterizer) drawSegment(c *MatrixCanvas, a, b geometry.Vec2) {
	c.DrawLine(r.Cell(a), r.Cell(b), r.segmentChar(b.Sub(a)))
}

// segmentChar picks the character closest to the direction of d.
func (r *Rasterizer) segmentChar(d geometry.Vec2) rune {
	dx, dy := math.Abs(d.X), math.Abs(d.Y)
	switch {
	case dy <= dx*straightSlope:
		return r.Style.Horizontal
	case dx <= dy*straightSlope:
		return r.Style.Vertical
	case (d.X > 0) == (d.Y > 0):
		return r.Style.Falling
	default:
		return r.Style.Rising
	}
}

// drawName centres name inside box, truncating it to the inner width.
func (r *Rasterizer) drawName(c *MatrixCanvas, name string, box geometry.Rect) {
	if name == "" {
		return
	}
	tl := r.Cell(geometry.V(box.X, box.Y))
	br := r.Cell(box.Max())
	inner := br.X - tl.X - 1
	if inner <= 0 {
		return
	}
	name = runewidth.Truncate(name, inner, "…")
	x := tl.X + 1 + (inner-runewidth.StringWidth(name))/2
	c.DrawText(x, (tl.Y+br.Y)/2, name)
}
