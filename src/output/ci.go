package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// Collapsible log group helpers. GitHub Actions uses workflow commands,
// GitLab uses section markers; elsewhere these are no-ops.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", time.Now().Unix(), id, name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitHubActions():
		fmt.Fprintln(w, "::endgroup::")
	case IsGitLabCI():
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", time.Now().Unix(), id)
	}
}

// Annotate emits a GitHub Actions error or warning annotation so failures
// surface on the run summary. Outside Actions it prints a plain prefixed line.
func Annotate(w io.Writer, level, msg string) {
	msg = strings.ReplaceAll(msg, "\n", "%0A")
	if IsGitHubActions() {
		fmt.Fprintf(w, "::%s::%s\n", level, msg)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", level, msg)
}

// CIHeader prints a compact context block at the start of a CI run.
func CIHeader(w io.Writer) {
	if !IsCI() {
		return
	}
	var parts []string
	if ev := os.Getenv("GITHUB_EVENT_NAME"); ev != "" {
		parts = append(parts, fmt.Sprintf("event=%s", ev))
	}
	if ref := os.Getenv("GITHUB_REF_NAME"); ref != "" {
		parts = append(parts, fmt.Sprintf("ref=%s", ref))
	}
	if sha := os.Getenv("GITHUB_SHA"); len(sha) >= 8 {
		parts = append(parts, fmt.Sprintf("sha=%s", sha[:8]))
	}
	if runner := os.Getenv("RUNNER_OS"); runner != "" {
		parts = append(parts, fmt.Sprintf("runner=%s", runner))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  ci: %s\n", strings.Join(parts, "  "))
	}
}

// PhaseResult prints a compact single-line phase summary.
func PhaseResult(w io.Writer, name, status, detail string, elapsed time.Duration) {
	fmt.Fprintf(w, "  %-10s %s  %-50s (%s)\n", name, StatusIcon(status, UseColor()), detail, elapsed.Round(time.Millisecond))
}
