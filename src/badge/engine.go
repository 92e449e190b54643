package badge

// Engine generates SVG badges using one font.
type Engine struct {
	metrics *FontMetrics
}

// New creates a badge engine. Nil metrics selects Default.
func New(metrics *FontMetrics) *Engine {
	if metrics == nil {
		metrics = Default()
	}
	return &Engine{metrics: metrics}
}

// Badge is the content and color of a single badge.
type Badge struct {
	Label string // left side text
	Value string // right side text
	Color string // hex color for the right side (e.g. "#4c1")
}

// Generate produces a shields-compatible SVG badge string.
func (e *Engine) Generate(b Badge) string {
	return e.renderSVG(b)
}

// Badge colors.
const (
	Green  = "#4c1"
	Yellow = "#dfb317"
	Red    = "#e05d44"
	Grey   = "#9f9f9f"
)

// StatusColor maps a status keyword to a badge color.
func StatusColor(status string) string {
	switch status {
	case "published", "success":
		return Green
	case "draft", "prerelease":
		return Yellow
	case "failed":
		return Red
	default:
		return Grey
	}
}
