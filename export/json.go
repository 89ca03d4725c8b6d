package export

import (
	"encoding/json"

	"erd/document"
)

// JSONExporter exports the document snapshot to JSON
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a document to JSON. An empty document is valid.
func (e *JSONExporter) Export(doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	data, err := json.MarshalIndent(doc.Snapshot(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetFileExtension returns the file extension for JSON
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

// GetFormatName returns the format name
func (e *JSONExporter) GetFormatName() string {
	return "JSON"
}

func (e *JSONExporter) ContentType() string {
	return "application/json"
}
