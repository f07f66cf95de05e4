// Package config reads the bridge's YAML configuration file: log
// level/path, decoration colors and titlebar height, per-global
// max-version overrides, and the XSETTINGS values the bridge exposes
// to Xwayland.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"xwaylandbridge/internal/decoration"
	xlog "xwaylandbridge/internal/log"
)

// Decoration configures internal/decoration's palette. TitlebarHeight
// is parsed but not applied: titlebars are drawn at
// decoration.TitlebarHeight.
type Decoration struct {
	Enabled        bool   `yaml:"enabled"`
	TitlebarHeight int32  `yaml:"titlebar_height"`
	Background     string `yaml:"background"` // "#rrggbb"
	Title          string `yaml:"title"`
	CloseGlyph     string `yaml:"close_glyph"`
	CloseHover     string `yaml:"close_hover"`
}

// XSettings configures the three values exposed on _XSETTINGS_S0.
type XSettings struct {
	XftDPI                 int32 `yaml:"xft_dpi"`
	GdkWindowScalingFactor int32 `yaml:"gdk_window_scaling_factor"`
	GdkUnscaledDPI         int32 `yaml:"gdk_unscaled_dpi"`
}

// Config is the bridge's full on-disk configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`

	Decoration Decoration `yaml:"decoration"`
	XSettings  XSettings  `yaml:"xsettings"`

	// GlobalMaxVersion holds per-interface version caps read from the
	// file. It is parsed but not applied: the advertised versions come
	// from internal/clientside's BridgeMaxVersion map unchanged.
	GlobalMaxVersion map[string]uint32 `yaml:"global_max_version"`
}

// Default returns the configuration used when no file is present: the
// plain-white decoration palette and a 96 DPI XSETTINGS baseline.
func Default() Config {
	return Config{
		LogLevel: "info",
		Decoration: Decoration{
			Enabled:        true,
			TitlebarHeight: 25,
			Background:     "#ffffff",
			Title:          "#202020",
			CloseGlyph:     "#202020",
			CloseHover:     "#ffffff",
		},
		XSettings: XSettings{
			XftDPI:                 96 * 1024,
			GdkWindowScalingFactor: 1,
			GdkUnscaledDPI:         96 * 1024,
		},
	}
}

// Load reads the bridge's configuration file: resolve
// os.UserConfigDir (falling back to ~/.config), return Default() if
// the file is absent, else unmarshal it over Default() so a partial
// file only overrides what it sets.
func Load() (Config, error) {
	path, err := path()
	if err != nil {
		return Config{}, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", herr
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "xwaylandbridge.yml"), nil
}

// Logger builds the bridge's logger from the configuration, per
// internal/log's Level parsing.
func (c Config) Logger() (*xlog.Logger, error) {
	level, err := xlog.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: log_level: %w", err)
	}
	return xlog.NewFile(level, c.LogPath)
}

// Colors converts the configured hex strings into internal/decoration's
// Colors, falling back to decoration.DefaultColors per-channel on a
// parse failure rather than aborting startup over a cosmetic setting.
func (d Decoration) Colors() decoration.Colors {
	return decoration.Colors{
		Background: hexOr(d.Background, decoration.DefaultColors.Background),
		Title:      hexOr(d.Title, decoration.DefaultColors.Title),
		CloseGlyph: hexOr(d.CloseGlyph, decoration.DefaultColors.CloseGlyph),
		CloseHover: hexOr(d.CloseHover, decoration.DefaultColors.CloseHover),
	}
}

func hexOr(s string, fallback [4]byte) [4]byte {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return fallback
	}
	r, err1 := strconv.ParseUint(s[0:2], 16, 8)
	g, err2 := strconv.ParseUint(s[2:4], 16, 8)
	b, err3 := strconv.ParseUint(s[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return fallback
	}
	return [4]byte{byte(b), byte(g), byte(r), 0xff}
}
