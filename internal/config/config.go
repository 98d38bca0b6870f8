package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Config holds the viewer settings.
//
// File shape:
//
//	{
//	  "tab_width": 4,
//	  "theme": {
//	    "text": "#dddddd",
//	    "tags": { "h1": "#ff8800" }
//	  },
//	  "formatters": { "note": "note.lua" }
//	}
type Config struct {
	// TabWidth is the display width of a tab stop.
	TabWidth int

	// TextColor is the default text color as a hex string, or "" for
	// the terminal default.
	TextColor string

	// TagColors maps container tags to hex colors.
	TagColors map[string]string

	// Formatters maps custom segment kinds to Lua formatter script
	// paths.
	Formatters map[string]string

	// Original document, preserved so Save keeps unknown keys.
	raw []byte
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TabWidth:   4,
		TagColors:  make(map[string]string),
		Formatters: make(map[string]string),
	}
}

// Parse reads configuration from JSON, applying defaults for missing
// keys.
func Parse(data []byte) (*Config, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidConfig
	}
	c := Default()
	c.raw = data

	if v := gjson.GetBytes(data, "tab_width"); v.Exists() {
		c.TabWidth = int(v.Int())
	}
	if v := gjson.GetBytes(data, "theme.text"); v.Exists() {
		c.TextColor = v.String()
	}
	gjson.GetBytes(data, "theme.tags").ForEach(func(k, v gjson.Result) bool {
		c.TagColors[k.String()] = v.String()
		return true
	})
	gjson.GetBytes(data, "formatters").ForEach(func(k, v gjson.Result) bool {
		c.Formatters[k.String()] = v.String()
		return true
	})
	return c, nil
}

// Load reads configuration from path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes the configuration to path, updating only the keys this
// package owns and leaving the rest of the original document intact.
func (c *Config) Save(path string) error {
	out := c.raw
	if len(out) == 0 {
		out = []byte("{}")
	}

	var err error
	if out, err = sjson.SetBytes(out, "tab_width", c.TabWidth); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if c.TextColor != "" {
		if out, err = sjson.SetBytes(out, "theme.text", c.TextColor); err != nil {
			return fmt.Errorf("config: encode: %w", err)
		}
	}
	for tag, color := range c.TagColors {
		if out, err = sjson.SetBytes(out, "theme.tags."+tag, color); err != nil {
			return fmt.Errorf("config: encode: %w", err)
		}
	}
	for kind, script := range c.Formatters {
		if out, err = sjson.SetBytes(out, "formatters."+kind, script); err != nil {
			return fmt.Errorf("config: encode: %w", err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
