// Package cli wires the command tree together.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"erd/config"
	"erd/document"
	"erd/layout"
)

// app holds what the commands share once configuration is loaded.
type app struct {
	getenv     func(string) string
	configFile string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	engine *layout.Engine
}

// Run builds the root command and executes it with os.Args.
// It accepts OS dependencies as parameters for testability.
func Run(ctx context.Context, getenv func(string) string) error {
	return NewRootCmd(getenv).ExecuteContext(ctx)
}

// NewRootCmd returns the erd command with every subcommand registered.
func NewRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}

	rootCmd := &cobra.Command{
		Use:   "erd",
		Short: "Lay out entity-relationship diagrams from a one-line mini-language",
		Long: `erd turns descriptions such as

  entity Employee(id pk, firstName, lastName)W
  relation Works_On(Hours)[N 1N, S MN]

into positioned diagram shapes and renders them as text, SVG, PNG, JSON or
draw.io files.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./erd.yaml or ~/.config/erd/erd.yaml, or $ERD_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	registerParseCmd(rootCmd, a)
	registerLayoutCmd(rootCmd, a)
	registerRenderCmd(rootCmd, a)
	registerViewCmd(rootCmd, a)
	registerPromptCmd(rootCmd, a)
	registerServeCmd(rootCmd, a)
	registerMarkdownCmd(rootCmd, a)
	registerFontsCmd(rootCmd, a)
	registerVersionCmd(rootCmd)

	return rootCmd
}

// load reads configuration and builds the layout engine.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	path := a.configFile
	if path == "" && a.getenv != nil {
		path = a.getenv("ERD_CONFIG")
	}
	v, err := config.New(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		v.Set("log.level", a.logLevel)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	face, err := cfg.Face()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	a.engine = layout.New(face, cfg.EngineConfig())
	a.logger.Debug("config loaded", "file", v.ConfigFileUsed(), "font", face.Name(), "scale", cfg.Layout.Scale)
	return nil
}

// newDocument returns an empty document using the configured grid and view.
func (a *app) newDocument() *document.Document {
	return document.New(a.cfg.DocumentOptions()...)
}

// readScript draws every description in r into a new document.
func (a *app) readScript(r io.Reader) (*document.Document, error) {
	doc := a.newDocument()
	ids, err := document.ReadScript(r, doc, a.engine)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("script drawn", "placements", len(ids))
	return doc, nil
}

// openInput returns the named file, or stdin for "-" or no name.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// inlineOrInput prefers --text, then falls back to a file or stdin.
func inlineOrInput(cmd *cobra.Command, text string, args []string) (io.ReadCloser, error) {
	if text != "" {
		return io.NopCloser(strings.NewReader(text)), nil
	}
	return openInput(cmd, args)
}
