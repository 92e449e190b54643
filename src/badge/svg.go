package badge

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"math"
	"strings"
	"text/template"
)

const (
	badgeHeight = 20
	textPadding = 10
	labelFill   = "#555"
)

// segment is one half of a badge: its text and horizontal placement.
type segment struct {
	Text  string
	X     int // left edge
	Width int
	Fill  string
}

// Center is the x coordinate the text is anchored on.
func (s segment) Center() int { return s.X + s.Width/2 }

// layout is everything the template needs to draw a badge.
type layout struct {
	Width       int
	Height      int
	Label       segment
	Value       segment
	FontFamily  string
	FontSize    float64
	FontFaceCSS string
}

func (e *Engine) layout(b Badge) layout {
	width := func(text string) int {
		return int(math.Round(e.metrics.TextWidth(text))) + textPadding
	}
	label := segment{Text: b.Label, Width: width(b.Label), Fill: labelFill}
	value := segment{Text: b.Value, X: label.Width, Width: width(b.Value), Fill: b.Color}

	l := layout{
		Width:      label.Width + value.Width,
		Height:     badgeHeight,
		Label:      label,
		Value:      value,
		FontFamily: "'" + e.metrics.FontName() + "',Verdana,Geneva,DejaVu Sans,sans-serif",
		FontSize:   e.metrics.FontSize(),
	}
	if data := e.metrics.FontData(); len(data) > 0 {
		l.FontFaceCSS = fontFaceCSS(e.metrics.FontName(), data)
	}
	return l
}

var badgeTemplate = template.Must(template.New("badge").Funcs(template.FuncMap{"x": xmlEscape}).Parse(strings.Join([]string{
	`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}">`,
	`<defs>`,
	`{{if .FontFaceCSS}}<style type="text/css">{{.FontFaceCSS}}</style>{{end}}`,
	`<linearGradient id="b" x2="0" y2="100%"><stop offset="0" stop-color="#bbb" stop-opacity=".1"/><stop offset="1" stop-opacity=".1"/></linearGradient>`,
	`</defs>`,
	`<mask id="a"><rect width="{{.Width}}" height="{{.Height}}" rx="3" fill="#fff"/></mask>`,
	`<g mask="url(#a)">`,
	`{{range .Segments}}<rect x="{{.X}}" width="{{.Width}}" height="{{$.Height}}" fill="{{x .Fill}}"/>{{end}}`,
	`<rect width="{{.Width}}" height="{{.Height}}" fill="url(#b)"/>`,
	`</g>`,
	`<g fill="#fff" text-anchor="middle" font-family="{{x .FontFamily}}" font-size="{{.FontSize}}">`,
	`{{range .Segments}}<text x="{{.Center}}" y="15" fill="#010101" fill-opacity=".3">{{x .Text}}</text><text x="{{.Center}}" y="14">{{x .Text}}</text>{{end}}`,
	`</g>`,
	`</svg>`,
}, "")))

// Segments returns the label then the value.
func (l layout) Segments() []segment { return []segment{l.Label, l.Value} }

// renderSVG draws a flat badge. A custom font is embedded as base64 so the
// badge renders the same wherever it is shown.
func (e *Engine) renderSVG(b Badge) string {
	var buf bytes.Buffer
	if err := badgeTemplate.Execute(&buf, e.layout(b)); err != nil {
		// The template is static and every field is a plain value.
		panic("badge: " + err.Error())
	}
	return buf.String()
}

var fontFormats = map[string]string{
	"otf": "opentype",
	"ttf": "truetype",
}

// fontFaceCSS is an @font-face rule carrying the font inline.
func fontFaceCSS(name string, data []byte) string {
	short := "ttf"
	if bytes.HasPrefix(data, []byte("OTTO")) {
		short = "otf"
	}
	return "@font-face{font-family:'" + name + "';src:url(data:font/" + short + ";base64," +
		base64.StdEncoding.EncodeToString(data) + ") format('" + fontFormats[short] + "')}"
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
