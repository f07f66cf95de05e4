package config_test

import (
	"testing"

	"gopkg.in/yaml.v2"

	"xwaylandbridge/internal/config"
	"xwaylandbridge/internal/decoration"
)

func TestDefaultMatchesSpecDecorationPalette(t *testing.T) {
	d := config.Default()
	if !d.Decoration.Enabled {
		t.Fatal("decorations must be enabled by default")
	}
	got := d.Decoration.Colors()
	if got != decoration.DefaultColors {
		t.Fatalf("got %+v, want %+v", got, decoration.DefaultColors)
	}
}

func TestColorsParsesHex(t *testing.T) {
	d := config.Decoration{Background: "#ff0000", Title: "#00ff00", CloseGlyph: "#0000ff", CloseHover: "#abcdef"}
	c := d.Colors()
	if c.Background != [4]byte{0x00, 0x00, 0xff, 0xff} {
		t.Fatalf("red in BGRA order: got %v", c.Background)
	}
	if c.Title != [4]byte{0x00, 0xff, 0x00, 0xff} {
		t.Fatalf("green in BGRA order: got %v", c.Title)
	}
}

func TestColorsFallsBackOnBadHex(t *testing.T) {
	d := config.Decoration{Background: "not-a-color", Title: "#zz0000", CloseGlyph: "#fff", CloseHover: ""}
	c := d.Colors()
	if c.Background != decoration.DefaultColors.Background {
		t.Fatal("invalid background hex must fall back to the default")
	}
	if c.Title != decoration.DefaultColors.Title {
		t.Fatal("non-hex-digit title must fall back to the default")
	}
	if c.CloseGlyph != decoration.DefaultColors.CloseGlyph {
		t.Fatal("wrong-length (3-digit) hex must fall back to the default")
	}
	if c.CloseHover != decoration.DefaultColors.CloseHover {
		t.Fatal("empty hex must fall back to the default")
	}
}

// A partial YAML document must only override the fields it sets,
// leaving the rest at Default().
func TestPartialYAMLOverridesOnlySetFields(t *testing.T) {
	cfg := config.Default()
	raw := []byte("log_level: debug\ndecoration:\n  enabled: false\n")
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("got log_level %q, want debug", cfg.LogLevel)
	}
	if cfg.Decoration.Enabled {
		t.Fatal("decoration.enabled must be overridden to false")
	}
	if cfg.Decoration.TitlebarHeight != 25 {
		t.Fatalf("unset titlebar_height must keep the default, got %d", cfg.Decoration.TitlebarHeight)
	}
	if cfg.XSettings.XftDPI != 96*1024 {
		t.Fatalf("unset xsettings must keep the default, got %d", cfg.XSettings.XftDPI)
	}
}
