// Package prompts provides the interactive form and styled output used by
// the command line.
package prompts

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"erd/export"
	"erd/parser"
)

// SampleDescription pre-fills the entry form.
const SampleDescription = "entity Employee(id pk, firstName, lastName, email, hireDate, salary)W"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#27ca3f"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#bababa"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f56")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#bababa")).Italic(true)
)

// Theme returns the huh theme shared by the forms.
func Theme() *huh.Theme {
	theme := huh.ThemeBase16()
	theme.FieldSeparator = lipgloss.NewStyle().SetString("\n").MarginBottom(1)
	theme.Form = theme.Form.MarginTop(1)
	theme.Focused.Title = theme.Focused.Title.Foreground(lipgloss.Color("#f9ca24"))
	theme.Blurred.Title = theme.Blurred.Title.Foreground(lipgloss.Color("#bababa"))
	return theme
}

// DrawForm builds the form asking for a description and an output format.
// Both pointers are read as initial values and filled on submit.
func DrawForm(text, format *string) *huh.Form {
	options := make([]huh.Option[string], 0, len(export.AvailableFormats()))
	descs := export.FormatDescriptions()
	for _, f := range export.AvailableFormats() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s - %s", f, descs[f]), string(f)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Description").
				Description("entity Name(attr pk, attr, ...)NE  or  relation Name(attr, ...)[N 1N, S MN]").
				CharLimit(1000).
				Lines(3).
				Value(text).
				Validate(descriptionValidator),
			huh.NewSelect[string]().
				Title("Output format").
				Options(options...).
				Value(format),
		),
	).WithTheme(Theme())
}

// RunDrawForm runs DrawForm until the user submits or aborts.
func RunDrawForm(text, format *string) error {
	if *text == "" {
		*text = SampleDescription
	}
	if *format == "" {
		*format = string(export.FormatASCII)
	}
	return DrawForm(text, format).Run()
}

// descriptionValidator shows the parser's message under the field.
func descriptionValidator(s string) error {
	if _, err := parser.Parse(s); err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			return errors.New(se.Msg)
		}
		return err
	}
	return nil
}

// ResultField is a label-value pair for PrintResult.
type ResultField struct {
	Label string
	Value string
}

// PrintResult prints a styled summary with green checkmarks and gray labels.
func PrintResult(w io.Writer, fields []ResultField, successMsg string) {
	check := successStyle.Render("✓")

	fmt.Fprintln(w)
	for _, f := range fields {
		fmt.Fprintf(w, "%s %s %s\n", check, labelStyle.Render(f.Label+":"), f.Value)
	}

	if successMsg != "" {
		fmt.Fprintln(w, successStyle.Render("\n"+successMsg))
	}
}

// PrintError prints err in red, followed by the violated rule for syntax
// errors.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("error:"), err)
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		fmt.Fprintln(w, hintStyle.Render("rule: "+string(se.Rule)))
	}
}
