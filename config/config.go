// Package config loads settings from defaults, an optional erd.yaml file and
// ERD_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"erd/canvas"
	"erd/document"
	"erd/export"
	"erd/layout"
	"erd/metrics"
)

// EnvPrefix is prepended to every environment override, e.g. ERD_LAYOUT_SCALE.
const EnvPrefix = "ERD"

// Config represents the application configuration
type Config struct {
	Layout   LayoutConfig
	Metrics  MetricsConfig
	Document DocumentConfig
	Export   ExportConfig
	Server   ServerConfig
	Log      LogConfig
}

// LayoutConfig sets the base unit of every shape and the label font size
type LayoutConfig struct {
	Scale    float64
	FontSize float64
}

// MetricsConfig selects the font used to measure labels
type MetricsConfig struct {
	Font   string
	Bold   bool
	Italic bool
}

// DocumentConfig holds the initial view of a new document
type DocumentConfig struct {
	GridSize float64
	Scale    float64
}

// ExportConfig represents output settings
type ExportConfig struct {
	Format     string
	CellWidth  float64
	CellHeight float64
	Charset    string // "unicode" or "ascii"
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr string
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("layout.scale", 50)
	v.SetDefault("layout.font_size", 12)
	v.SetDefault("metrics.font", metrics.DefaultFont)
	v.SetDefault("metrics.bold", false)
	v.SetDefault("metrics.italic", false)
	v.SetDefault("document.grid_size", 10)
	v.SetDefault("document.scale", 1)
	v.SetDefault("export.format", string(export.FormatASCII))
	v.SetDefault("export.cell_width", 6)
	v.SetDefault("export.cell_height", 12)
	v.SetDefault("export.charset", "unicode")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// New returns a viper instance with defaults and environment overrides.
// A non-empty configFile must exist; otherwise erd.yaml is looked up in the
// working directory and $HOME/.config/erd and skipped when absent.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("erd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "erd"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Layout: LayoutConfig{
			Scale:    v.GetFloat64("layout.scale"),
			FontSize: v.GetFloat64("layout.font_size"),
		},
		Metrics: MetricsConfig{
			Font:   v.GetString("metrics.font"),
			Bold:   v.GetBool("metrics.bold"),
			Italic: v.GetBool("metrics.italic"),
		},
		Document: DocumentConfig{
			GridSize: v.GetFloat64("document.grid_size"),
			Scale:    v.GetFloat64("document.scale"),
		},
		Export: ExportConfig{
			Format:     v.GetString("export.format"),
			CellWidth:  v.GetFloat64("export.cell_width"),
			CellHeight: v.GetFloat64("export.cell_height"),
			Charset:    v.GetString("export.charset"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	var errs []error
	positive := func(key string, val float64) {
		if val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", key, val))
		}
	}
	positive("layout.scale", c.Layout.Scale)
	positive("layout.font_size", c.Layout.FontSize)
	positive("document.grid_size", c.Document.GridSize)
	positive("document.scale", c.Document.Scale)
	positive("export.cell_width", c.Export.CellWidth)
	positive("export.cell_height", c.Export.CellHeight)

	if !metrics.Default().Supports(c.Metrics.Font) {
		errs = append(errs, fmt.Errorf("metrics.font: %w: %q", metrics.ErrUnsupportedFont, c.Metrics.Font))
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	if _, ok := canvas.ParseStyle(c.Export.Charset); !ok {
		errs = append(errs, fmt.Errorf("export.charset: unknown charset %q", c.Export.Charset))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level as debug, info, warn or error.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Log.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// EngineConfig converts to the layout engine's configuration.
func (c *Config) EngineConfig() layout.Config {
	return layout.Config{Scale: c.Layout.Scale, FontSize: c.Layout.FontSize}
}

// Face returns the configured measuring face.
func (c *Config) Face() (*metrics.Face, error) {
	return metrics.Default().Face(c.Metrics.Font, c.Metrics.Bold, c.Metrics.Italic)
}

// DocumentOptions returns the options for a new document.
func (c *Config) DocumentOptions() []document.Option {
	return []document.Option{
		document.WithGridSize(c.Document.GridSize),
		document.WithView(document.View{Scale: c.Document.Scale}),
	}
}

// ExportOptions converts to exporter options.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.CellWidth = c.Export.CellWidth
	opts.CellHeight = c.Export.CellHeight
	opts.FontSize = c.Layout.FontSize
	if style, ok := canvas.ParseStyle(c.Export.Charset); ok {
		opts.Style = style
	}
	return opts
}
