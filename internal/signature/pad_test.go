package signature

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
)

func TestDownUpWithoutMovementEmitsEmpty(t *testing.T) {
	p := NewPad(DefaultWidth, DefaultHeight, 1)

	p.PointerDown(Point{X: 10, Y: 10})
	if got := p.PointerUp(); got != "" {
		t.Errorf("expected empty emission for zero-move stroke, got %d bytes", len(got))
	}
	if p.HasInk() {
		t.Error("expected no ink recorded")
	}
}

func TestStrokeEmitsEncodedImage(t *testing.T) {
	p := NewPad(DefaultWidth, DefaultHeight, 2)

	p.PointerDown(Point{X: 10, Y: 20})
	p.PointerMove(Point{X: 60, Y: 40})
	p.PointerMove(Point{X: 110, Y: 25})
	got := p.PointerUp()

	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Fatalf("expected PNG data URL, got %.40q", got)
	}
	if !p.HasInk() {
		t.Error("expected ink recorded")
	}

	// The payload must be a complete, decodable PNG at scaled resolution.
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}
	if img.Bounds().Dx() != DefaultWidth*2 || img.Bounds().Dy() != DefaultHeight*2 {
		t.Errorf("expected %dx%d bitmap, got %v", DefaultWidth*2, DefaultHeight*2, img.Bounds())
	}
}

func TestZeroDisplacementMoveIsNotInk(t *testing.T) {
	p := NewPad(DefaultWidth, DefaultHeight, 1)

	p.PointerDown(Point{X: 10, Y: 10})
	p.PointerMove(Point{X: 10, Y: 10})
	if got := p.PointerUp(); got != "" {
		t.Error("expected empty emission when the pointer never displaced")
	}
}

func TestMoveWhileIdleIsIgnored(t *testing.T) {
	p := NewPad(DefaultWidth, DefaultHeight, 1)

	p.PointerMove(Point{X: 10, Y: 10})
	p.PointerMove(Point{X: 50, Y: 50})
	if p.HasInk() {
		t.Error("expected moves outside a stroke to be ignored")
	}
}

func TestPointerCancelAndLeaveEndStroke(t *testing.T) {
	for _, end := range []struct {
		name string
		fn   func(*Pad) string
	}{
		{name: "cancel", fn: (*Pad).PointerCancel},
		{name: "leave", fn: (*Pad).PointerLeave},
	} {
		t.Run(end.name, func(t *testing.T) {
			p := NewPad(DefaultWidth, DefaultHeight, 1)
			p.PointerDown(Point{X: 5, Y: 5})
			p.PointerMove(Point{X: 30, Y: 12})

			if got := end.fn(p); got == "" {
				t.Error("expected encoded image")
			}

			// Further moves must not draw: the stroke has ended.
			p.PointerMove(Point{X: 200, Y: 90})
		})
	}
}

func TestClearResetsInk(t *testing.T) {
	p := NewPad(DefaultWidth, DefaultHeight, 1)
	p.PointerDown(Point{X: 5, Y: 5})
	p.PointerMove(Point{X: 30, Y: 12})
	p.PointerUp()

	if got := p.Clear(); got != "" {
		t.Errorf("expected Clear to emit empty, got %d bytes", len(got))
	}
	if p.HasInk() {
		t.Error("expected ink flag reset")
	}

	// Idempotent.
	if got := p.Clear(); got != "" {
		t.Error("expected second Clear to emit empty")
	}

	// A zero-move stroke after clear stays empty: no blank-but-valid image.
	p.PointerDown(Point{X: 10, Y: 10})
	if got := p.PointerUp(); got != "" {
		t.Error("expected empty emission after clear")
	}
}

func TestApplyTrace(t *testing.T) {
	cases := []struct {
		name    string
		events  []Event
		wantInk bool
	}{
		{
			name:    "empty trace",
			events:  nil,
			wantInk: false,
		},
		{
			name: "down up only",
			events: []Event{
				{Type: "down", X: 10, Y: 10},
				{Type: "up"},
			},
			wantInk: false,
		},
		{
			name: "full stroke",
			events: []Event{
				{Type: "down", X: 10, Y: 10},
				{Type: "move", X: 40, Y: 30},
				{Type: "move", X: 90, Y: 15},
				{Type: "up"},
			},
			wantInk: true,
		},
		{
			name: "stroke ended by leave",
			events: []Event{
				{Type: "down", X: 10, Y: 10},
				{Type: "move", X: 40, Y: 30},
				{Type: "leave"},
			},
			wantInk: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPad(DefaultWidth, DefaultHeight, 1)
			got := Apply(p, tc.events)
			if tc.wantInk && !strings.HasPrefix(got, "data:image/png;base64,") {
				t.Errorf("expected encoded image, got %.40q", got)
			}
			if !tc.wantInk && got != "" {
				t.Errorf("expected empty emission, got %d bytes", len(got))
			}
		})
	}
}
