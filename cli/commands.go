package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"erd/canvas"
	"erd/core"
	"erd/document"
	"erd/export"
	"erd/markdown"
	"erd/metrics"
	"erd/parser"
	"erd/prompts"
	"erd/server"
	"erd/terminal"
	"erd/validation"
)

type parseOptions struct {
	output string // text, json, yaml
}

// parsed is the yaml/json shape of a parse result.
type parsed struct {
	Kind        string           `json:"kind" yaml:"kind"`
	Description core.Description `json:"description" yaml:"description"`
}

func registerParseCmd(parent *cobra.Command, a *app) {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [DESCRIPTION]",
		Short: "Parse a single description and print its structure",
		Example: `  erd parse "entity Employee(id pk, name)NE"
  echo "relation Works_On(Hours)[N 1N, S MN]" | erd parse -o yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(b)
			}
			desc, err := parser.Parse(text)
			if err != nil {
				return err
			}
			a.logger.Debug("parsed", "title", desc.Title(), "entity", desc.IsEntity())
			return printDescription(cmd.OutOrStdout(), desc, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json, yaml)")
	parent.AddCommand(cmd)
}

func printDescription(w io.Writer, desc core.Description, format string) error {
	kind := "relation"
	if desc.IsEntity() {
		kind = "entity"
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(parsed{Kind: kind, Description: desc}); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		switch d := desc.(type) {
		case *core.Entity:
			fmt.Fprintf(w, "entity %s (style %s)\n", d.Name, orDefault(string(d.Style), string(core.StyleEast)))
			for _, attr := range d.Attributes {
				if attr.IsKey {
					fmt.Fprintf(w, "  %s (key)\n", attr.Name)
				} else {
					fmt.Fprintf(w, "  %s\n", attr.Name)
				}
			}
		case *core.Relation:
			fmt.Fprintf(w, "relation %s\n", d.Name)
			for _, c := range d.Style {
				fmt.Fprintf(w, "  %s %s\n", c.Direction, c.Cardinality.Label())
			}
			for _, attr := range d.Attributes {
				fmt.Fprintf(w, "  %s\n", attr.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use text, json or yaml", format)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type layoutOptions struct {
	text   string
	strict bool
}

func registerLayoutCmd(parent *cobra.Command, a *app) {
	opts := &layoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout [FILE]",
		Short: "Lay out a script of descriptions and print the document as JSON",
		Long: `Reads descriptions from FILE (or stdin), draws each below the previous one
and prints the resulting document. Each description starts on a line beginning
with a keyword and may wrap until its parentheses close. Blank lines and lines
starting with # are skipped. Crowded labels are reported as warnings on stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inlineOrInput(cmd, opts.text, args)
			if err != nil {
				return err
			}
			defer in.Close()

			doc, err := a.readScript(in)
			if err != nil {
				return err
			}
			if err := a.report(doc, opts.strict); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Descriptions to lay out instead of reading FILE")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any placement has validation warnings")
	parent.AddCommand(cmd)
}

// report logs validation issues for every placement and fails on errors,
// or on any issue when strict.
func (a *app) report(doc *document.Document, strict bool) error {
	var failed []string
	for _, p := range doc.Placements() {
		issues := validation.Check(p.Group)
		for _, issue := range issues {
			a.logger.Warn("layout issue", "placement", p.Title, "issue", issue.String())
		}
		if validation.HasErrors(issues) || (strict && len(issues) > 0) {
			failed = append(failed, p.Title)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("validation failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

type renderOptions struct {
	text    string
	format  string
	output  string
	charset string
}

func registerRenderCmd(parent *cobra.Command, a *app) {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Lay out a script of descriptions and export it",
		Example: `  erd render -t "entity Employee(id pk, name)"
  erd render schema.erd -f svg -o schema.svg
  erd render schema.erd -f drawio -o schema.drawio`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inlineOrInput(cmd, opts.text, args)
			if err != nil {
				return err
			}
			defer in.Close()

			doc, err := a.readScript(in)
			if err != nil {
				return err
			}
			return a.export(cmd, doc, opts.format, opts.charset, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Descriptions to render instead of reading FILE")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Export format (ascii, json, svg, drawio, png)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.charset, "charset", "", "Characters for ascii output (unicode, ascii)")
	parent.AddCommand(cmd)
}

// export writes doc in the given format to path, or to stdout when path is
// empty. Empty format and charset take the configured values.
func (a *app) export(cmd *cobra.Command, doc *document.Document, format, charset, path string) error {
	f, err := export.ParseFormat(orDefault(format, a.cfg.Export.Format))
	if err != nil {
		return err
	}
	opts := a.cfg.ExportOptions()
	if charset != "" {
		style, ok := canvas.ParseStyle(charset)
		if !ok {
			return fmt.Errorf("unknown charset %q: use unicode or ascii", charset)
		}
		opts.Style = style
	}

	exp, err := export.NewExporterWithOptions(f, opts)
	if err != nil {
		return err
	}
	out, err := exp.Export(doc)
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	a.logger.Debug("exported", "format", f, "bytes", len(out))

	if path == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	prompts.PrintResult(cmd.ErrOrStderr(), []prompts.ResultField{
		{Label: "Format", Value: exp.GetFormatName()},
		{Label: "Placements", Value: fmt.Sprint(doc.Len())},
		{Label: "File", Value: path},
	}, "Diagram written")
	return nil
}

func registerViewCmd(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Browse a diagram in the terminal and draw new descriptions into it",
		Long: `Opens a full-screen view. Arrow keys or hjkl pan, +/- zoom, tab cycles the
selection, x deletes it, ':' opens a prompt for a new description and q quits.
FILE, when given, is drawn first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.newDocument()
			if len(args) == 1 {
				in, err := openInput(cmd, args)
				if err != nil {
					return err
				}
				defer in.Close()
				if _, err := document.ReadScript(in, doc, a.engine); err != nil {
					return err
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to open terminal: %w", err)
			}
			style, _ := canvas.ParseStyle(a.cfg.Export.Charset)
			v := terminal.New(screen, doc, a.engine,
				terminal.WithCellSize(a.cfg.Export.CellWidth, a.cfg.Export.CellHeight),
				terminal.WithStyle(style),
				terminal.WithLogger(a.logger),
			)
			return v.Run(cmd.Context())
		},
	}
	parent.AddCommand(cmd)
}

func registerPromptCmd(parent *cobra.Command, a *app) {
	var output string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Type a description in a form and render it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var text string
			format := a.cfg.Export.Format
			if err := prompts.RunDrawForm(&text, &format); err != nil {
				return err
			}
			doc := a.newDocument()
			if _, err := document.DrawText(doc, a.engine, text); err != nil {
				return err
			}
			return a.export(cmd, doc, format, "", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	parent.AddCommand(cmd)
}

func registerServeCmd(parent *cobra.Command, a *app) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse, layout and render API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := server.New(a.cfg, server.Deps{Layouter: a.engine, Logger: a.logger})
			return server.Run(ctx, orDefault(addr, a.cfg.Server.Addr), router, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	parent.AddCommand(cmd)
}

type markdownOptions struct {
	write bool
	check bool
	list  bool
}

func registerMarkdownCmd(parent *cobra.Command, a *app) {
	opts := &markdownOptions{}

	cmd := &cobra.Command{
		Use:   "markdown FILE",
		Short: "Render the ```erd blocks of a markdown file below each block",
		Long: `Finds every ` + "```erd" + ` block in FILE and writes its text rendering right
below it, marked with a hash of the source. Up-to-date renderings are left
alone. The result goes to stdout unless --write is given.`,
		Example: `  erd markdown README.md --write
  erd markdown docs/schema.md --check`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			s := markdown.NewScanner(string(data))

			switch {
			case opts.list:
				for i, b := range s.Blocks() {
					fmt.Fprintln(cmd.OutOrStdout(), markdown.FormatBlockInfo(b, i))
				}
				return nil
			case opts.check:
				if stale := s.Stale(); len(stale) > 0 {
					return fmt.Errorf("%s: %d of %d erd blocks need rendering", args[0], len(stale), len(s.Blocks()))
				}
				return nil
			}

			n, err := s.Update(a.renderText)
			if err != nil {
				return err
			}
			a.logger.Debug("markdown updated", "file", args[0], "rendered", n)
			if !opts.write {
				_, err := io.WriteString(cmd.OutOrStdout(), s.Content())
				return err
			}
			if n == 0 {
				return nil
			}
			return os.WriteFile(args[0], []byte(s.Content()), 0o644)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "Rewrite FILE in place")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Fail if any block is missing its rendering or it is out of date")
	cmd.Flags().BoolVar(&opts.list, "list", false, "List the erd blocks and whether they are up to date")
	parent.AddCommand(cmd)
}

// renderText lays out a script and returns its text rendering.
func (a *app) renderText(src string) (string, error) {
	doc, err := a.readScript(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	exp, err := export.NewExporterWithOptions(export.FormatASCII, a.cfg.ExportOptions())
	if err != nil {
		return "", err
	}
	out, err := exp.Export(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func registerFontsCmd(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "List the fonts text can be measured with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, name := range metrics.Default().Fonts() {
				marker := " "
				if strings.EqualFold(name, a.cfg.Metrics.Font) {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\n", marker, name)
			}
			return nil
		},
	}
	parent.AddCommand(cmd)
}
