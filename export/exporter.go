// Package export writes a document's placed primitives to various formats.
package export

import (
	"errors"
	"fmt"

	"erd/canvas"
	"erd/diagram"
	"erd/document"
	"erd/geometry"
)

// Format represents an export format
type Format string

const (
	// FormatASCII renders onto a character grid
	FormatASCII Format = "ascii"
	// FormatJSON dumps the document state
	FormatJSON Format = "json"
	// FormatSVG writes a vector image
	FormatSVG Format = "svg"
	// FormatDrawIO writes an mxGraph model that draw.io can open
	FormatDrawIO Format = "drawio"
	// FormatPNG writes a raster image
	FormatPNG Format = "png"
)

var (
	ErrNilDocument   = errors.New("document is nil")
	ErrEmptyDocument = errors.New("document has no placements")
)

// Exporter interface for different export formats
type Exporter interface {
	// Export converts a document to the target format
	Export(doc *document.Document) ([]byte, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
	// ContentType returns the MIME type of the output
	ContentType() string
}

// Options tune the raster and vector exporters.
type Options struct {
	// CellWidth and CellHeight are the model units covered by one character.
	CellWidth  float64
	CellHeight float64
	Style      canvas.Style
	// Scale is output pixels per model unit for svg and png.
	Scale    float64
	Padding  float64
	FontSize float64
}

// DefaultOptions returns 6×12 cells, box-drawing characters, unit scale
// and 12px text.
func DefaultOptions() Options {
	return Options{
		CellWidth:  6,
		CellHeight: 12,
		Style:      canvas.UnicodeStyle,
		Scale:      1,
		Padding:    10,
		FontSize:   12,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CellWidth <= 0 {
		o.CellWidth = def.CellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = def.CellHeight
	}
	if o.Style == (canvas.Style{}) {
		o.Style = def.Style
	}
	if o.Scale <= 0 {
		o.Scale = def.Scale
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	return o
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	return NewExporterWithOptions(format, DefaultOptions())
}

// NewExporterWithOptions creates an exporter with explicit options. Zero
// fields take their defaults.
func NewExporterWithOptions(format Format, opts Options) (Exporter, error) {
	opts = opts.withDefaults()
	switch format {
	case FormatASCII:
		return NewASCIIExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatSVG:
		return NewSVGExporter(opts), nil
	case FormatDrawIO:
		return NewDrawIOExporter(), nil
	case FormatPNG:
		return NewPNGExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "ascii", "text", "txt":
		return FormatASCII, nil
	case "json":
		return FormatJSON, nil
	case "svg":
		return FormatSVG, nil
	case "drawio", "mxgraph", "xml":
		return FormatDrawIO, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// AvailableFormats returns a list of all available export formats
func AvailableFormats() []Format {
	return []Format{
		FormatASCII,
		FormatJSON,
		FormatSVG,
		FormatDrawIO,
		FormatPNG,
	}
}

// FormatDescriptions returns human-readable descriptions of all formats
func FormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatASCII:  "Character-grid art",
		FormatJSON:   "Document state with every placed primitive",
		FormatSVG:    "Scalable vector image",
		FormatDrawIO: "mxGraph XML for draw.io",
		FormatPNG:    "Raster image",
	}
}

// placed returns the document's placements, failing on an empty document.
func placed(doc *document.Document) ([]document.Placement, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	ps := doc.Placements()
	if len(ps) == 0 {
		return nil, ErrEmptyDocument
	}
	return ps, nil
}

// flatten returns every primitive of every placement in model coordinates.
func flatten(ps []document.Placement) []diagram.Primitive {
	var out []diagram.Primitive
	for _, p := range ps {
		out = append(out, p.Primitives()...)
	}
	return out
}

func boundsOf(ps []document.Placement) geometry.Rect {
	b := ps[0].Bounds()
	for _, p := range ps[1:] {
		b = b.Union(p.Bounds())
	}
	return b
}
