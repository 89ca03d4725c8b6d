package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"erd/diagram"
	"erd/document"
	"erd/geometry"
)

// supersample is how many times larger the image is drawn before being
// scaled down.
const supersample = 2

// PNGExporter rasterizes the document into a PNG image
type PNGExporter struct {
	opts Options
}

// NewPNGExporter creates a new PNG exporter
func NewPNGExporter(opts Options) *PNGExporter {
	return &PNGExporter{opts: opts.withDefaults()}
}

// painter holds the rendering state for one export.
type painter struct {
	img    *image.RGBA
	origin geometry.Vec2
	k      float64 // pixels per model unit
	stroke float64 // line width in pixels
	face   font.Face
}

// Export converts the document to PNG
func (e *PNGExporter) Export(doc *document.Document) ([]byte, error) {
	ps, err := placed(doc)
	if err != nil {
		return nil, err
	}
	b := boundsOf(ps)
	pad := e.opts.Padding
	k := e.opts.Scale * supersample

	outW := int(math.Ceil((b.W + 2*pad) * e.opts.Scale))
	outH := int(math.Ceil((b.H + 2*pad) * e.opts.Scale))
	large := image.NewRGBA(image.Rect(0, 0, outW*supersample, outH*supersample))
	draw.Draw(large, large.Bounds(), image.White, image.Point{}, draw.Src)

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    e.opts.FontSize * k,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	p := &painter{img: large, origin: geometry.V(b.X-pad, b.Y-pad), k: k, stroke: k, face: face}
	for _, prim := range flatten(ps) {
		p.primitive(prim)
	}

	final := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *painter) px(v geometry.Vec2) geometry.Vec2 {
	return v.Sub(p.origin).Scale(p.k)
}

func (p *painter) primitive(prim diagram.Primitive) {
	switch v := prim.(type) {
	case diagram.Rect:
		tl, br := geometry.V(v.X, v.Y), geometry.V(v.X+v.W, v.Y+v.H)
		p.polyline([]geometry.Vec2{tl, geometry.V(br.X, tl.Y), br, geometry.V(tl.X, br.Y), tl})
		p.centred(v.Name, v.Center())
	case diagram.Rhombus:
		vs := v.Vertices()
		p.polyline([]geometry.Vec2{vs[0], vs[1], vs[2], vs[3], vs[0]})
		p.centred(v.Name, geometry.V(v.X+v.W/2, v.Y+v.H/2))
	case diagram.Line:
		p.polyline(v.Points())
		switch v.StartCap {
		case diagram.CapFilled:
			p.disc(v.Start, capRadius*p.k, color.Black)
		case diagram.CapHollow:
			p.disc(v.Start, capRadius*p.k, color.Black)
			p.disc(v.Start, capRadius*p.k-p.stroke, color.White)
		}
	case diagram.Text:
		p.text(v.Content, p.px(geometry.V(v.X, v.Y+v.Height/2)))
	}
}

// polyline strokes each segment as a filled quad.
func (p *painter) polyline(pts []geometry.Vec2) {
	bounds := p.img.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	half := p.stroke / 2
	for i := 0; i+1 < len(pts); i++ {
		a, b := p.px(pts[i]), p.px(pts[i+1])
		d := b.Sub(a)
		if d.Length() == 0 {
			continue
		}
		n := geometry.V(-d.Y, d.X).Unit().Scale(half)
		ext := d.Unit().Scale(half)
		a, b = a.Sub(ext), b.Add(ext)
		z.MoveTo(float32(a.X+n.X), float32(a.Y+n.Y))
		z.LineTo(float32(b.X+n.X), float32(b.Y+n.Y))
		z.LineTo(float32(b.X-n.X), float32(b.Y-n.Y))
		z.LineTo(float32(a.X-n.X), float32(a.Y-n.Y))
		z.ClosePath()
	}
	z.Draw(p.img, bounds, image.Black, image.Point{})
}

// disc fills a circle of radius r pixels around model point c.
func (p *painter) disc(c geometry.Vec2, r float64, col color.Color) {
	if r <= 0 {
		return
	}
	bounds := p.img.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	centre := p.px(c)
	const steps = 24
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		x := float32(centre.X + r*math.Cos(a))
		y := float32(centre.Y + r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	z.Draw(p.img, bounds, image.NewUniform(col), image.Point{})
}

// text draws s with its left edge at at.X and vertically centred on at.Y.
func (p *painter) text(s string, at geometry.Vec2) {
	m := p.face.Metrics()
	baseline := at.Y + float64(m.Ascent-m.Descent)/64/2
	d := &font.Drawer{
		Dst:  p.img,
		Src:  image.Black,
		Face: p.face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(at.X * 64), Y: fixed.Int26_6(baseline * 64)},
	}
	d.DrawString(s)
}

func (p *painter) centred(s string, c geometry.Vec2) {
	if s == "" {
		return
	}
	w := float64(font.MeasureString(p.face, s)) / 64
	at := p.px(c)
	p.text(s, geometry.V(at.X-w/2, at.Y))
}

// GetFileExtension returns the file extension for PNG
func (e *PNGExporter) GetFileExtension() string {
	return ".png"
}

// GetFormatName returns the format name
func (e *PNGExporter) GetFormatName() string {
	return "PNG"
}

func (e *PNGExporter) ContentType() string {
	return "image/png"
}
