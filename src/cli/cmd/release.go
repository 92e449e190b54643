package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release jobs and release management",
	Long: `Ensure the draft release for a ref, attach archives to it, run the
per-target release job, or all of them side by side.`,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

// releaseAllowed reports whether release.git_tags admits ref.
func releaseAllowed(ref string) bool {
	return config.MatchRef(cfg.Release.GitTags, ref, cfg.Policies.GitTags)
}

// newPublisher opens the forge and wraps it. The caller closes the forge.
func newPublisher(root string) (*release.Publisher, forge.Forge, error) {
	repo := openRepo(root)
	f, err := openForge(repo)
	if err != nil {
		return nil, nil, fmt.Errorf("release store: %w", err)
	}
	log.Debug().Str("provider", string(f.Provider())).Msg("release store ready")
	return release.NewPublisher(f, cfg.Release, repo, log), f, nil
}

// renderReleaseContext prints what a release run is about to do and warns
// when the tag and the crate version disagree.
func renderReleaseContext(w io.Writer, root, ref string, targets []build.Target) {
	commit := "unknown"
	if repo := openRepo(root); repo != nil {
		if sha, err := repo.HeadSHA(); err == nil {
			commit = sha
		}
	}
	triples := make([]string, 0, len(targets))
	for _, t := range targets {
		triples = append(triples, t.Triple)
	}
	store := cfg.Release.Provider
	switch {
	case dryRun:
		store = "local (dry run)"
	case store == "":
		store = "auto"
	}
	output.ContextBlock(w, []output.KV{
		{Key: "Ref", Value: ref},
		{Key: "Commit", Value: commit},
		{Key: "Store", Value: store},
		{Key: "Targets", Value: strings.Join(triples, ", ")},
	})
	if msg := release.VersionMismatch(cfg, root, ref); msg != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
}

func renderRelease(sec *output.Section, rel *forge.Release, created bool) {
	state := "exists"
	if created {
		state = "created"
	}
	sec.Row("%-16s%s (%s)", "release", rel.TagName, state)
	sec.Row("%-16s%s", "state", release.BadgeState(rel))
	if rel.URL != "" {
		sec.Row("%-16s%s", "url", rel.URL)
	}
}

func renderAttach(sec *output.Section, res *release.AttachResult, color bool) {
	if res == nil {
		return
	}
	replaced := map[string]bool{}
	for _, n := range res.Replaced {
		replaced[n] = true
	}
	for _, a := range res.Uploaded {
		detail := humanBytes(a.Size)
		if replaced[a.Name] {
			detail += " (replaced)"
		}
		output.RowStatus(sec, a.Name, detail, "success", color)
	}
}
