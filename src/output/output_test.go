package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f), "regular files are not terminals")
}

func TestUseColorHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CI", "true")
	assert.False(t, UseColor())
}

func TestSectionFrame(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, "Artifacts", 1500*time.Millisecond, false)
	sec.Row("%s", "kodecks.zip")
	sec.Separator()
	sec.Close()

	lines := strings.Split(strings.TrimPrefix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "    ── Artifacts ─"))
	assert.True(t, strings.HasSuffix(lines[0], " 1.5s ──"))
	assert.Equal(t, utf8.RuneCountInString(lines[0]), utf8.RuneCountInString(lines[3])+3)
	assert.Equal(t, "    │ kodecks.zip", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "    ├─"))
	assert.True(t, strings.HasPrefix(lines[3], "    └─"))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "<1ms"},
		{250 * time.Millisecond, "250ms"},
		{4200 * time.Millisecond, "4.2s"},
		{3*time.Minute + 7500*time.Millisecond, "3m7.5s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.d))
	}
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "✓", StatusIcon("success", false))
	assert.Equal(t, "~", StatusIcon("tolerated", false))
	assert.Equal(t, "⊘", StatusIcon("whatever", false))
	assert.Equal(t, "\033[31m✗\033[0m", StatusIcon("failed", true))
}

func TestContextBlockAligns(t *testing.T) {
	var buf bytes.Buffer
	ContextBlock(&buf, []KV{
		{Key: "Ref", Value: "v1.2.3"},
		{Key: "Commit", Value: "abc1234"},
		{Key: "Targets", Value: "x86_64-pc-windows-msvc"},
	})
	lines := strings.Split(strings.Trim(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Index(lines[0], "v1.2.3"), strings.Index(lines[1], "x86_64"))
	assert.Contains(t, lines[0], "Commit")
	assert.True(t, strings.HasSuffix(lines[0], "abc1234"))
}
