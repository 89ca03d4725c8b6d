// Package layout computes positioned primitives for an entity or relation
// description. Every function here is pure: the same description and
// measurer always yield the same coordinates.
package layout

import (
	"errors"
	"fmt"

	"erd/core"
	"erd/diagram"
)

var (
	// ErrUnsupportedStyle is returned for entity styles with no defined fan.
	ErrUnsupportedStyle = errors.New("unsupported style")
	// ErrInvalidDescription is returned for descriptions the parser would
	// never produce.
	ErrInvalidDescription = errors.New("invalid description")
)

// LabelHeight is the fixed height of every text label.
const LabelHeight = 20.0

// Measurer returns the rendered width of text at a font size.
type Measurer interface {
	Width(text string, size float64) float64
}

// Config holds the tunable base unit and label font size. Every shape
// dimension is a fixed multiple of Scale.
type Config struct {
	Scale    float64
	FontSize float64
}

// DefaultConfig returns a 50 unit scale with 12px labels.
func DefaultConfig() Config {
	return Config{Scale: 50, FontSize: 12}
}

// dimensions are derived from Config.Scale.
type dimensions struct {
	rectW, rectH       float64
	rhombusX, rhombusY float64
	attributeLen       float64
	relationLen        float64
	multiKeyExtra      float64
}

func dimensionsFor(scale float64) dimensions {
	return dimensions{
		rectW:         2 * scale,
		rectH:         1 * scale,
		rhombusX:      2 * scale,
		rhombusY:      1 * scale,
		attributeLen:  0.5 * scale,
		relationLen:   1.5 * scale,
		multiKeyExtra: 0.25 * scale,
	}
}

// Engine lays out descriptions. It holds no mutable state and may be shared.
type Engine struct {
	cfg     Config
	dims    dimensions
	measure Measurer
}

// New creates an engine. Zero config fields fall back to DefaultConfig.
func New(m Measurer, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = def.FontSize
	}
	return &Engine{cfg: cfg, dims: dimensionsFor(cfg.Scale), measure: m}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Layout dispatches on the description kind.
func (e *Engine) Layout(d core.Description) (diagram.Group, error) {
	switch v := d.(type) {
	case *core.Entity:
		return e.Entity(v)
	case *core.Relation:
		return e.Relation(v)
	default:
		return nil, fmt.Errorf("%w: unexpected description %T", ErrInvalidDescription, d)
	}
}

func (e *Engine) textWidth(text string) float64 {
	return e.measure.Width(text, e.cfg.FontSize)
}

// label builds a text primitive sized by the measurer.
func (e *Engine) label(text string, x, y float64) diagram.Text {
	return diagram.Text{Content: text, X: x, Y: y, Width: e.textWidth(text), Height: LabelHeight}
}

func checkAttributes(attrs []core.Attribute) error {
	for i, a := range attrs {
		if a.Name == "" {
			return fmt.Errorf("%w: attribute %d has no name", ErrInvalidDescription, i)
		}
	}
	return nil
}
