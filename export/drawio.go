package export

import (
	"encoding/xml"
	"strconv"

	"erd/diagram"
	"erd/document"
	"erd/geometry"
)

// DrawIOExporter writes an mxGraph model. Each placement becomes a group
// cell whose children keep the coordinates the layout engine produced.
type DrawIOExporter struct{}

// NewDrawIOExporter creates a new draw.io exporter
func NewDrawIOExporter() *DrawIOExporter {
	return &DrawIOExporter{}
}

type mxFile struct {
	XMLName xml.Name  `xml:"mxfile"`
	Host    string    `xml:"host,attr"`
	Diagram mxDiagram `xml:"diagram"`
}

type mxDiagram struct {
	ID    string       `xml:"id,attr"`
	Name  string       `xml:"name,attr"`
	Model mxGraphModel `xml:"mxGraphModel"`
}

type mxGraphModel struct {
	GridSize float64 `xml:"gridSize,attr"`
	Root     mxRoot  `xml:"root"`
}

type mxRoot struct {
	Cells []mxCell `xml:"mxCell"`
}

type mxCell struct {
	ID          string      `xml:"id,attr"`
	Value       string      `xml:"value,attr,omitempty"`
	Style       string      `xml:"style,attr,omitempty"`
	Parent      string      `xml:"parent,attr,omitempty"`
	Vertex      string      `xml:"vertex,attr,omitempty"`
	Edge        string      `xml:"edge,attr,omitempty"`
	Connectable string      `xml:"connectable,attr,omitempty"`
	Geometry    *mxGeometry `xml:"mxGeometry"`
}

type mxGeometry struct {
	X        float64   `xml:"x,attr,omitempty"`
	Y        float64   `xml:"y,attr,omitempty"`
	Width    float64   `xml:"width,attr,omitempty"`
	Height   float64   `xml:"height,attr,omitempty"`
	Relative string    `xml:"relative,attr,omitempty"`
	As       string    `xml:"as,attr"`
	Points   []mxPoint `xml:"mxPoint"`
	Array    *mxArray  `xml:"Array"`
}

type mxPoint struct {
	X  float64 `xml:"x,attr"`
	Y  float64 `xml:"y,attr"`
	As string  `xml:"as,attr,omitempty"`
}

type mxArray struct {
	As     string    `xml:"as,attr"`
	Points []mxPoint `xml:"mxPoint"`
}

const (
	styleGroup   = "group;"
	styleRect    = "rounded=0;whiteSpace=wrap;html=1;"
	styleRhombus = "rhombus;whiteSpace=wrap;html=1;"
	styleText    = "text;html=1;align=left;verticalAlign=middle;resizable=0;points=[];"
	styleLine    = "endArrow=none;html=1;"
)

// Export converts the document to mxGraph XML
func (e *DrawIOExporter) Export(doc *document.Document) ([]byte, error) {
	ps, err := placed(doc)
	if err != nil {
		return nil, err
	}

	cells := []mxCell{{ID: "0"}, {ID: "1", Parent: "0"}}
	for _, p := range ps {
		frame := p.Group.Frame()
		cells = append(cells, mxCell{
			ID:          p.ID,
			Style:       styleGroup,
			Parent:      "1",
			Vertex:      "1",
			Connectable: "0",
			Geometry:    &mxGeometry{X: p.Offset.X, Y: p.Offset.Y, Width: frame.W, Height: frame.H, As: "geometry"},
		})
		for i, prim := range p.Group.Members() {
			if c, ok := cellFor(prim); ok {
				c.ID = p.ID + "-" + strconv.Itoa(i)
				c.Parent = p.ID
				cells = append(cells, c)
			}
		}
	}

	f := mxFile{
		Host: "erd",
		Diagram: mxDiagram{
			ID:    ps[0].ID,
			Name:  "Page-1",
			Model: mxGraphModel{GridSize: doc.GridSize(), Root: mxRoot{Cells: cells}},
		},
	}
	out, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func cellFor(p diagram.Primitive) (mxCell, bool) {
	switch v := p.(type) {
	case diagram.Rect:
		return vertex(v.Name, styleRect, v.Bounds()), true
	case diagram.Rhombus:
		return vertex(v.Name, styleRhombus, v.Bounds()), true
	case diagram.Text:
		return vertex(v.Content, styleText, v.Bounds()), true
	case diagram.Line:
		style := styleLine
		switch v.StartCap {
		case diagram.CapFilled:
			style += "startArrow=oval;startFill=1;"
		case diagram.CapHollow:
			style += "startArrow=oval;startFill=0;"
		default:
			style += "startArrow=none;"
		}
		g := &mxGeometry{
			Relative: "1",
			As:       "geometry",
			Points: []mxPoint{
				{X: v.Start.X, Y: v.Start.Y, As: "sourcePoint"},
				{X: v.End.X, Y: v.End.Y, As: "targetPoint"},
			},
		}
		if len(v.MidPoints) > 0 {
			arr := &mxArray{As: "points"}
			for _, m := range v.MidPoints {
				arr.Points = append(arr.Points, mxPoint{X: m.X, Y: m.Y})
			}
			g.Array = arr
		}
		return mxCell{Style: style, Edge: "1", Geometry: g}, true
	}
	return mxCell{}, false
}

func vertex(value, style string, r geometry.Rect) mxCell {
	return mxCell{
		Value:    value,
		Style:    style,
		Vertex:   "1",
		Geometry: &mxGeometry{X: r.X, Y: r.Y, Width: r.W, Height: r.H, As: "geometry"},
	}
}

// GetFileExtension returns the file extension for draw.io files
func (e *DrawIOExporter) GetFileExtension() string {
	return ".drawio"
}

// GetFormatName returns the format name
func (e *DrawIOExporter) GetFormatName() string {
	return "draw.io (mxGraph XML)"
}

func (e *DrawIOExporter) ContentType() string {
	return "application/xml"
}
