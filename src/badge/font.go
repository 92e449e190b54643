// Package badge renders shields-style SVG badges with measured text widths.
package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontMetrics holds measured glyph widths, plus the font bytes when the
// font is embedded into the SVG.
type FontMetrics struct {
	name     string
	size     float64
	data     []byte           // raw TTF/OTF bytes; nil for system fonts
	advances map[rune]float64 // printable ASCII at size
	fallback float64          // average width for unmapped runes
}

// TextWidth returns the pixel width of s.
func (m *FontMetrics) TextWidth(s string) float64 {
	var w float64
	for _, r := range s {
		if adv, ok := m.advances[r]; ok {
			w += adv
		} else {
			w += m.fallback
		}
	}
	return w
}

func (m *FontMetrics) FontData() []byte  { return m.data }
func (m *FontMetrics) FontName() string  { return m.name }
func (m *FontMetrics) FontSize() float64 { return m.size }

// measure records the advance of every printable ASCII glyph of face,
// multiplied by scale.
func measure(face font.Face, scale float64) (map[rune]float64, float64) {
	advances := make(map[rune]float64, 95)
	var total float64
	for r := rune(32); r <= 126; r++ {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		px := float64(adv) / 64.0 * scale
		advances[r] = px
		total += px
	}
	if len(advances) == 0 {
		return advances, 0
	}
	return advances, total / float64(len(advances))
}

// Default returns metrics for the 11px sans-serif stack shields badges use,
// approximated by the fixed 7x13 face scaled to 11px. The SVG names the
// font family and leaves rendering to the viewer.
func Default() *FontMetrics {
	const size = 11.0
	face := basicfont.Face7x13
	scale := size / float64(face.Height)
	advances, fallback := measure(face, scale)

	// The fixed-width face reports the same advance for every rune; real
	// sans-serif digits and dots are narrower than capitals.
	for _, r := range ".,:;!|il1 " {
		advances[r] = advances[r] * 0.6
	}
	return &FontMetrics{
		name:     "Verdana",
		size:     size,
		advances: advances,
		fallback: fallback,
	}
}

// LoadFont parses a TTF/OTF and measures it at size. The font is embedded
// into every badge rendered with it.
func LoadFont(name string, data []byte, size float64) (*FontMetrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", name, err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("creating face for %s: %w", name, err)
	}
	defer face.Close()

	advances, fallback := measure(face, 1)
	if fallback == 0 {
		fallback = size * 0.6
	}

	family := name
	if n, err := f.Name(&sfnt.Buffer{}, sfnt.NameIDFamily); err == nil && n != "" {
		family = n
	}

	return &FontMetrics{
		name:     family,
		size:     size,
		data:     data,
		advances: advances,
		fallback: fallback,
	}, nil
}

// LoadFontFile loads a TTF/OTF from disk.
func LoadFontFile(path string, size float64) (*FontMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font file %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadFont(name, data, size)
}
