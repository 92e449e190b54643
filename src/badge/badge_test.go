package badge

import (
	"strings"
	"testing"
)

func TestDefaultMetricsScale(t *testing.T) {
	m := Default()
	short := m.TextWidth("v1.0.0")
	long := m.TextWidth("v1.0.0-rc.12")
	if short <= 0 || long <= short {
		t.Fatalf("widths: short=%v long=%v", short, long)
	}
	if m.TextWidth("W") <= m.TextWidth(".") {
		t.Error("dots should be narrower than letters")
	}
}

func TestGenerate(t *testing.T) {
	svg := New(nil).Generate(Badge{Label: "release", Value: "v1.2.3 <draft>", Color: StatusColor("draft")})

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("not an svg: %.40s", svg)
	}
	if !strings.Contains(svg, "v1.2.3 &lt;draft&gt;") {
		t.Error("value not escaped")
	}
	if !strings.Contains(svg, Yellow) {
		t.Error("draft color missing")
	}
	if strings.Contains(svg, "@font-face") {
		t.Error("default font should not be embedded")
	}
}

func TestStatusColor(t *testing.T) {
	tests := map[string]string{
		"published": Green,
		"draft":     Yellow,
		"failed":    Red,
		"none":      Grey,
	}
	for status, want := range tests {
		if got := StatusColor(status); got != want {
			t.Errorf("StatusColor(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestLayoutPlacesValueAfterLabel(t *testing.T) {
	l := New(nil).layout(Badge{Label: "release", Value: "v1.2.3", Color: Green})
	if l.Value.X != l.Label.Width {
		t.Errorf("value starts at %d, label is %d wide", l.Value.X, l.Label.Width)
	}
	if l.Width != l.Label.Width+l.Value.Width {
		t.Errorf("width %d != %d + %d", l.Width, l.Label.Width, l.Value.Width)
	}
	if l.FontFaceCSS != "" {
		t.Error("default font should not be embedded")
	}
}

func TestFontFaceCSS(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{[]byte("OTTO\x00\x01"), "format('opentype')"},
		{[]byte("\x00\x01\x00\x00"), "format('truetype')"},
		{[]byte("x"), "format('truetype')"},
	}
	for _, tt := range tests {
		css := fontFaceCSS("Inter", tt.data)
		if !strings.HasPrefix(css, "@font-face{font-family:'Inter'") || !strings.Contains(css, tt.want) {
			t.Errorf("fontFaceCSS(%q) = %s", tt.data, css)
		}
	}
}
