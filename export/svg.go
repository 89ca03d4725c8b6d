package export

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"

	"erd/diagram"
	"erd/document"
	"erd/geometry"
)

// svgUnits is the number of viewBox units per model unit. svgo takes
// integer coordinates, so the view box is subdivided to keep precision.
const svgUnits = 10

// capRadius is the radius of a connector cap in model units.
const capRadius = 4.0

// SVGExporter exports the document as an SVG image, one <g> per placement
type SVGExporter struct {
	opts Options
}

// NewSVGExporter creates a new SVG exporter
func NewSVGExporter(opts Options) *SVGExporter {
	return &SVGExporter{opts: opts.withDefaults()}
}

type svgWriter struct {
	canvas *svg.SVG
	origin geometry.Vec2
	font   float64
}

func (w *svgWriter) unit(v float64) int {
	return int(math.Round(v * svgUnits))
}

func (w *svgWriter) pt(p geometry.Vec2) (int, int) {
	return w.unit(p.X - w.origin.X), w.unit(p.Y - w.origin.Y)
}

// Export converts the document to SVG
func (e *SVGExporter) Export(doc *document.Document) ([]byte, error) {
	ps, err := placed(doc)
	if err != nil {
		return nil, err
	}
	b := boundsOf(ps)
	pad := e.opts.Padding
	vw, vh := b.W+2*pad, b.H+2*pad

	var buf bytes.Buffer
	w := &svgWriter{
		canvas: svg.New(&buf),
		origin: geometry.V(b.X-pad, b.Y-pad),
		font:   e.opts.FontSize,
	}
	w.canvas.Startview(
		int(math.Ceil(vw*e.opts.Scale)), int(math.Ceil(vh*e.opts.Scale)),
		0, 0, w.unit(vw), w.unit(vh),
	)
	w.canvas.Rect(0, 0, w.unit(vw), w.unit(vh), "fill:white")
	for _, p := range ps {
		w.canvas.Gid(p.ID)
		if p.Title != "" {
			w.canvas.Title(p.Title)
		}
		for _, prim := range p.Primitives().Members() {
			w.primitive(prim)
		}
		w.canvas.Gend()
	}
	w.canvas.End()
	return buf.Bytes(), nil
}

func (w *svgWriter) stroke() string {
	return fmt.Sprintf("fill:none;stroke:black;stroke-width:%d", svgUnits)
}

func (w *svgWriter) textStyle(anchor string) string {
	return fmt.Sprintf("font-family:Arial,Helvetica,sans-serif;font-size:%d;dominant-baseline:middle;text-anchor:%s",
		w.unit(w.font), anchor)
}

func (w *svgWriter) primitive(p diagram.Primitive) {
	switch v := p.(type) {
	case diagram.Rect:
		x, y := w.pt(geometry.V(v.X, v.Y))
		w.canvas.Rect(x, y, w.unit(v.W), w.unit(v.H), w.stroke())
		cx, cy := w.pt(v.Center())
		w.canvas.Text(cx, cy, v.Name, w.textStyle("middle"))
	case diagram.Rhombus:
		var xs, ys []int
		for _, vert := range v.Vertices() {
			x, y := w.pt(vert)
			xs, ys = append(xs, x), append(ys, y)
		}
		w.canvas.Polygon(xs, ys, w.stroke())
		cx, cy := w.pt(geometry.V(v.X+v.W/2, v.Y+v.H/2))
		w.canvas.Text(cx, cy, v.Name, w.textStyle("middle"))
	case diagram.Line:
		var xs, ys []int
		for _, pt := range v.Points() {
			x, y := w.pt(pt)
			xs, ys = append(xs, x), append(ys, y)
		}
		w.canvas.Polyline(xs, ys, w.stroke())
		if v.StartCap != diagram.CapNone {
			fill := "white"
			if v.StartCap == diagram.CapFilled {
				fill = "black"
			}
			x, y := w.pt(v.Start)
			w.canvas.Circle(x, y, w.unit(capRadius), fmt.Sprintf("fill:%s;stroke:black;stroke-width:%d", fill, svgUnits))
		}
	case diagram.Text:
		x, y := w.pt(geometry.V(v.X, v.Y+v.Height/2))
		w.canvas.Text(x, y, v.Content, w.textStyle("start"))
	}
}

// GetFileExtension returns the file extension for SVG
func (e *SVGExporter) GetFileExtension() string {
	return ".svg"
}

// GetFormatName returns the format name
func (e *SVGExporter) GetFormatName() string {
	return "SVG"
}

func (e *SVGExporter) ContentType() string {
	return "image/svg+xml"
}
