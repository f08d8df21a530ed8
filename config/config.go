package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/digestpdf/pdf/layout"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
	ErrUnexpectedField    = errors.New("unexpected field in configuration")
)

// DefaultFontName is the font looked up when the configuration names none.
const DefaultFontName = "DejaVuSans.ttf"

// PageSizes maps the size names accepted in configuration.
var PageSizes = map[string]layout.PageSize{
	"a4":     layout.A4,
	"a5":     layout.A5,
	"letter": layout.Letter,
}

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// PageConfig selects the page geometry, either by standard name or as an
// explicit size in points.
type PageConfig struct {
	// Size is a standard page size name: a4, a5 or letter.
	Size string `yaml:"size" json:"size,omitempty"`

	// Width is a custom page width in points.
	Width float64 `yaml:"width" json:"width,omitempty"`

	// Height is a custom page height in points.
	Height float64 `yaml:"height" json:"height,omitempty"`
}

// Validate validates the page selection.
func (c *PageConfig) Validate() error {
	if c.Size != "" {
		if _, ok := PageSizes[strings.ToLower(c.Size)]; !ok {
			return NewConfigError("page.size", fmt.Sprintf("unknown page size '%s'", c.Size))
		}
		if c.Width != 0 || c.Height != 0 {
			return NewConfigError("page", "size and width/height are mutually exclusive")
		}
		return nil
	}
	if (c.Width == 0) != (c.Height == 0) {
		return NewConfigError("page", "width and height must be set together")
	}
	if c.Width < 0 || c.Height < 0 {
		return NewConfigError("page", "width and height must be positive")
	}
	return nil
}

// Resolve returns the selected page size. An empty selection means A4.
func (c *PageConfig) Resolve() layout.PageSize {
	if c.Size != "" {
		if size, ok := PageSizes[strings.ToLower(c.Size)]; ok {
			return size
		}
	}
	if c.Width > 0 && c.Height > 0 {
		return layout.PageSize{Width: c.Width, Height: c.Height}
	}
	return layout.A4
}

// MarginsConfig overrides the page margins in points. A present section is
// taken verbatim, so individual zero margins are allowed.
type MarginsConfig struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Validate validates the margins.
func (c *MarginsConfig) Validate() error {
	if c.Top < 0 || c.Right < 0 || c.Bottom < 0 || c.Left < 0 {
		return NewConfigError("margins", "margins cannot be negative")
	}
	return nil
}

// Resolve returns the margins as layout values.
func (c *MarginsConfig) Resolve() layout.Margins {
	return layout.NewMargins(c.Top, c.Right, c.Bottom, c.Left)
}

// FontConfig selects the embedded font.
type FontConfig struct {
	// Path is an explicit font file path.
	Path string `yaml:"path" json:"path,omitempty"`

	// Name is a font file name resolved against the system font
	// directories when no path is given.
	Name string `yaml:"name" json:"name,omitempty"`
}

// Validate validates the font selection.
func (c *FontConfig) Validate() error {
	if c.Path == "" && c.Name == "" {
		return NewConfigError("font", "either path or name is required")
	}
	return nil
}

// DocumentConfig describes the document a build run produces.
type DocumentConfig struct {
	// Title is the document title, recorded in the Info dictionary.
	Title string `yaml:"title" json:"title,omitempty"`

	// Page selects the page geometry.
	Page *PageConfig `yaml:"page" json:"page,omitempty"`

	// Margins overrides the page margins.
	Margins *MarginsConfig `yaml:"margins" json:"margins,omitempty"`

	// Font selects the embedded font.
	Font *FontConfig `yaml:"font" json:"font,omitempty"`
}

// SetDefaults fills absent sections with the report defaults: A4 geometry,
// 72/56/64/56 margins and the DejaVu Sans font.
func (c *DocumentConfig) SetDefaults() {
	if c.Page == nil {
		c.Page = &PageConfig{Size: "a4"}
	}
	if c.Margins == nil {
		m := layout.DefaultMargins
		c.Margins = &MarginsConfig{Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left}
	}
	if c.Font == nil {
		c.Font = &FontConfig{}
	}
	if c.Font.Path == "" && c.Font.Name == "" {
		c.Font.Name = DefaultFontName
	}
}

// Validate validates every populated section.
func (c *DocumentConfig) Validate() error {
	if c.Page != nil {
		if err := c.Page.Validate(); err != nil {
			return err
		}
	}
	if c.Margins != nil {
		if err := c.Margins.Validate(); err != nil {
			return err
		}
	}
	if c.Font != nil {
		if err := c.Font.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PageLayout resolves the configured geometry, using the report defaults
// for absent sections.
func (c *DocumentConfig) PageLayout() layout.PageLayout {
	size := layout.A4
	if c.Page != nil {
		size = c.Page.Resolve()
	}
	margins := layout.DefaultMargins
	if c.Margins != nil {
		margins = c.Margins.Resolve()
	}
	return layout.NewPageLayout(size, margins)
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level,omitempty"`

	// Format is the log format (text, json).
	Format string `yaml:"format" json:"format,omitempty"`

	// Output is the log output (stdout, stderr, or file path).
	Output string `yaml:"output" json:"output,omitempty"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// AppConfig contains the complete application configuration.
type AppConfig struct {
	// Document contains document build configuration.
	Document *DocumentConfig `yaml:"document" json:"document,omitempty"`

	// Logging contains logging configuration.
	Logging *LoggingConfig `yaml:"logging" json:"logging,omitempty"`
}

// SetDefaults fills defaults for absent sections.
func (c *AppConfig) SetDefaults() {
	if c.Document == nil {
		c.Document = &DocumentConfig{}
	}
	c.Document.SetDefaults()
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.SetDefaults()
}

// Validate validates every populated section.
func (c *AppConfig) Validate() error {
	if c.Document != nil {
		return c.Document.Validate()
	}
	return nil
}

// ParseAppConfig parses application configuration from YAML data. Unknown
// keys are rejected. An empty document yields an empty configuration.
func ParseAppConfig(data []byte) (*AppConfig, error) {
	var config AppConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		if err == io.EOF {
			return &config, nil
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedField, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigurationError, err)
	}
	return &config, nil
}

// LoadAppConfig loads the complete application configuration from a file
// and fills in defaults for absent sections.
func LoadAppConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseAppConfig(data)
	if err != nil {
		return nil, err
	}
	config.SetDefaults()
	return config, nil
}
