package xwm_test

import (
	"testing"

	"xwaylandbridge/internal/xwm"
)

func TestEffectiveTitleFallsBackToClass(t *testing.T) {
	wd := xwm.NewWindowData(1)
	wd.Attrs.Class = "instance\x00class\x00"
	if got := wd.EffectiveTitle(); got != wd.Attrs.Class {
		t.Fatalf("got %q, want class fallback %q", got, wd.Attrs.Class)
	}

	wd.Attrs.Title = "window"
	if got := wd.EffectiveTitle(); got != "window" {
		t.Fatalf("got %q, want title to win once set", got)
	}
}

func TestWantsInputFocus(t *testing.T) {
	wd := xwm.NewWindowData(1)
	if !wd.WantsInputFocus() {
		t.Fatal("absent WM_HINTS.input must default to wanting focus")
	}

	wd.Attrs.HasInputHint = true
	wd.Attrs.InputHint = false
	if wd.WantsInputFocus() {
		t.Fatal("explicit input=false must not want focus")
	}

	wd.Attrs.InputHint = true
	if !wd.WantsInputFocus() {
		t.Fatal("explicit input=true must want focus")
	}
}
