package release

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kodecks/kodeship/src/gitver"
)

// Commit is a parsed conventional commit.
type Commit struct {
	Hash     string
	Type     string // feat, fix, chore...
	Scope    string
	Summary  string
	Breaking bool
}

// Section is a titled group of commits in the notes.
type Section struct {
	Title   string
	Commits []Commit
}

var conventionalRe = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!)?\s*:\s*(.+)`)

// sectionOrder is the display order; types not listed land in "Other Changes".
var sectionOrder = []struct {
	key   string
	title string
}{
	{"breaking", "Breaking Changes"},
	{"feat", "Features"},
	{"fix", "Bug Fixes"},
	{"perf", "Performance"},
	{"refactor", "Refactoring"},
	{"docs", "Documentation"},
	{"test", "Tests"},
	{"ci", "CI/CD"},
	{"build", "Build"},
	{"chore", "Maintenance"},
}

// GitNotes renders markdown notes for tag from the commits since the
// previous release tag.
func GitNotes(repo *gitver.Repo, tag string) (string, error) {
	prev, err := repo.PreviousTag(tag)
	if err != nil {
		return "", err
	}
	to := tag
	if !repo.HasRevision(tag) {
		// Branch releases, or a tag not fetched into this clone.
		to = "HEAD"
	}
	commits, err := repo.Commits(prev, to)
	if err != nil {
		return "", err
	}

	parsed := make([]Commit, 0, len(commits))
	for _, c := range commits {
		parsed = append(parsed, ParseCommit(c))
	}

	notes := RenderNotes(Group(parsed))
	if prev != "" {
		notes += fmt.Sprintf("**Full changelog**: %s...%s\n", prev, tag)
	}
	return notes, nil
}

// ParseCommit extracts the conventional-commit fields of a git commit.
func ParseCommit(c *object.Commit) Commit {
	subject, body, _ := strings.Cut(c.Message, "\n")
	out := Commit{
		Hash:    c.Hash.String()[:7],
		Summary: strings.TrimSpace(subject),
	}
	if m := conventionalRe.FindStringSubmatch(out.Summary); m != nil {
		out.Type = strings.ToLower(m[1])
		out.Scope = m[2]
		out.Breaking = m[3] == "!"
		out.Summary = m[4]
	}
	if strings.Contains(strings.ToUpper(body), "BREAKING CHANGE") {
		out.Breaking = true
	}
	return out
}

// Group buckets commits into ordered sections. Breaking changes are listed
// once, under Breaking Changes.
func Group(commits []Commit) []Section {
	buckets := map[string][]Commit{}
	for _, c := range commits {
		key := c.Type
		switch {
		case c.Breaking:
			key = "breaking"
		case key == "":
			key = "other"
		}
		buckets[key] = append(buckets[key], c)
	}

	var sections []Section
	for _, s := range sectionOrder {
		if cs := buckets[s.key]; len(cs) > 0 {
			sections = append(sections, Section{Title: s.title, Commits: cs})
			delete(buckets, s.key)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var rest []Commit
	for _, k := range keys {
		rest = append(rest, buckets[k]...)
	}
	if len(rest) > 0 {
		sections = append(sections, Section{Title: "Other Changes", Commits: rest})
	}
	return sections
}

// RenderNotes formats sections as markdown.
func RenderNotes(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "### %s\n\n", s.Title)
		for _, c := range s.Commits {
			if c.Scope != "" {
				fmt.Fprintf(&b, "- **%s**: %s (%s)\n", c.Scope, c.Summary, c.Hash)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", c.Summary, c.Hash)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
