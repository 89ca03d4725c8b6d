package export

import (
	"fmt"

	"erd/canvas"
	"erd/document"
)

// ASCIIExporter rasterizes every placement onto one character grid
type ASCIIExporter struct {
	opts Options
}

// NewASCIIExporter creates a new ASCII exporter
func NewASCIIExporter(opts Options) *ASCIIExporter {
	return &ASCIIExporter{opts: opts.withDefaults()}
}

// Export draws the document as text
func (e *ASCIIExporter) Export(doc *document.Document) ([]byte, error) {
	ps, err := placed(doc)
	if err != nil {
		return nil, err
	}
	c, err := canvas.Render(flatten(ps), e.opts.CellWidth, e.opts.CellHeight, e.opts.Style)
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return []byte(c.String() + "\n"), nil
}

// GetFileExtension returns the recommended file extension
func (e *ASCIIExporter) GetFileExtension() string {
	return ".txt"
}

// GetFormatName returns the format name
func (e *ASCIIExporter) GetFormatName() string {
	return "ASCII/Unicode Art"
}

func (e *ASCIIExporter) ContentType() string {
	return "text/plain; charset=utf-8"
}
