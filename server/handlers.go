package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"erd/config"
	"erd/core"
	"erd/document"
	"erd/export"
	"erd/layout"
	"erd/parser"
	"erd/validation"
)

type handlers struct {
	cfg  *config.Config
	deps Deps
}

// textRequest carries one description in the mini-language.
type textRequest struct {
	Text string `json:"text" binding:"required"`
}

// scriptRequest carries a script, JSON descriptions or both. Script entries
// are drawn first.
type scriptRequest struct {
	Text         string            `json:"text"`
	Descriptions []json.RawMessage `json:"descriptions"`
}

var errBadDescription = errors.New("invalid description")

type placementIssues struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	Issues []validation.Issue `json:"issues"`
}

type layoutResponse struct {
	Document document.Snapshot `json:"document"`
	Issues   []placementIssues `json:"issues"`
}

type formatInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	ContentType string `json:"contentType"`
}

// errorStatus maps an error to a response code and body.
func errorStatus(err error) (int, gin.H) {
	body := gin.H{"error": err.Error()}
	var se *parser.SyntaxError
	switch {
	case errors.Is(err, errBadDescription):
		return http.StatusBadRequest, body
	case errors.As(err, &se):
		body["rule"] = string(se.Rule)
		return http.StatusBadRequest, body
	case errors.Is(err, layout.ErrInvalidDescription), errors.Is(err, layout.ErrUnsupportedStyle):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, document.ErrEmptyGroup), errors.Is(err, export.ErrEmptyDocument):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.deps.Logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}

func bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return "", false
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return "", false
	}
	return req.Text, true
}

func bindScript(c *gin.Context) (scriptRequest, bool) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Descriptions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or descriptions is required"})
		return req, false
	}
	return req, true
}

// build draws the script and then each JSON description into a new document.
func (h *handlers) build(req scriptRequest) (*document.Document, error) {
	doc := document.New(h.cfg.DocumentOptions()...)
	if strings.TrimSpace(req.Text) != "" {
		if _, err := document.ReadScript(strings.NewReader(req.Text), doc, h.deps.Layouter); err != nil {
			return nil, err
		}
	}
	for i, raw := range req.Descriptions {
		desc, err := core.UnmarshalDescription(raw)
		if err != nil {
			return nil, fmt.Errorf("descriptions[%d]: %w: %w", i, errBadDescription, err)
		}
		if _, err := document.Draw(doc, h.deps.Layouter, desc); err != nil {
			return nil, fmt.Errorf("descriptions[%d]: %w", i, err)
		}
	}
	return doc, nil
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) parse(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	desc, err := parser.Parse(text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (h *handlers) layout(c *gin.Context) {
	req, ok := bindScript(c)
	if !ok {
		return
	}
	doc, err := h.build(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	snap := doc.Snapshot()
	resp := layoutResponse{Document: snap, Issues: []placementIssues{}}
	for _, p := range snap.Placements {
		if issues := validation.Check(p.Group); len(issues) > 0 {
			resp.Issues = append(resp.Issues, placementIssues{ID: p.ID, Title: p.Title, Issues: issues})
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) render(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", h.cfg.Export.Format))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, ok := bindScript(c)
	if !ok {
		return
	}
	doc, err := h.build(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	exp, err := export.NewExporterWithOptions(format, h.cfg.ExportOptions())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := exp.Export(doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, exp.ContentType(), out)
}

func (h *handlers) formats(c *gin.Context) {
	descs := export.FormatDescriptions()
	out := make([]formatInfo, 0, len(descs))
	for _, f := range export.AvailableFormats() {
		exp, err := export.NewExporter(f)
		if err != nil {
			continue
		}
		out = append(out, formatInfo{
			Name:        string(f),
			Description: descs[f],
			Extension:   exp.GetFileExtension(),
			ContentType: exp.ContentType(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) fonts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fonts": h.deps.Fonts.Fonts(), "default": h.cfg.Metrics.Font})
}
