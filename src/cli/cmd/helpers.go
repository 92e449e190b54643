package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/gitver"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
)

// Trigger overrides shared by plan, web and release.
var (
	eventFlag string
	refFlag   string
	baseFlag  string
)

func addTriggerFlags(c *cobra.Command) {
	c.Flags().StringVar(&eventFlag, "event", "", "override the detected event (push, pull_request)")
	c.Flags().StringVar(&refFlag, "ref", "", "override the detected ref (branch or tag)")
	c.Flags().StringVar(&baseFlag, "base", "", "target branch of a pull request")
}

func workspaceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving workspace: %w", err)
	}
	return wd, nil
}

// newRunner returns the command runner for this invocation.
func newRunner() pipeline.Runner {
	if dryRun {
		return &pipeline.DryRunner{W: os.Stdout}
	}
	return pipeline.NewExecRunner(log)
}

// openRepo opens the enclosing git repository; nil outside one.
func openRepo(root string) *gitver.Repo {
	repo, err := gitver.Open(root)
	if err != nil {
		log.Debug().Err(err).Msg("no git repository")
		return nil
	}
	return repo
}

// openForge returns the release store. Dry runs always use the local store.
func openForge(repo *gitver.Repo) (forge.Forge, error) {
	opts := forge.Options{
		Provider:   forge.Provider(cfg.Release.Provider),
		URL:        cfg.Release.URL,
		Repository: cfg.Release.Repository,
		LocalStore: cfg.Release.LocalStore,
	}
	if repo != nil {
		if remote, err := repo.RemoteURL("origin"); err == nil {
			opts.RemoteURL = remote
		}
	}
	if dryRun {
		opts.Provider = forge.Local
	}
	return forge.Open(opts)
}

func closeForge(f forge.Forge) {
	if c, ok := f.(io.Closer); ok {
		_ = c.Close()
	}
}

// currentTrigger detects the CI trigger and applies flag overrides.
func currentTrigger() (pipeline.Trigger, error) {
	t, err := pipeline.DetectTrigger(os.Getenv)
	if eventFlag != "" {
		switch pipeline.Event(eventFlag) {
		case pipeline.EventPush, pipeline.EventPullRequest:
		default:
			return t, fmt.Errorf("--event: unsupported event %q (push, pull_request)", eventFlag)
		}
		t.Event = pipeline.Event(eventFlag)
		err = nil
	}
	if refFlag != "" {
		t.Ref = refFlag
		t.RefType = pipeline.RefBranch
		if gitver.IsVersionTag(refFlag) {
			t.RefType = pipeline.RefTag
		}
		err = nil
	}
	if baseFlag != "" {
		t.BaseRef = baseFlag
	}
	if err != nil {
		return t, err
	}
	if t.Ref == "" {
		return t, fmt.Errorf("trigger has no ref; pass --ref")
	}
	return t, nil
}

// releaseRef resolves the release key: --ref, then the CI ref.
func releaseRef() (string, error) {
	if refFlag != "" {
		return refFlag, nil
	}
	t, err := pipeline.DetectTrigger(os.Getenv)
	if err != nil || t.Ref == "" {
		return "", fmt.Errorf("no release ref: pass --ref or run in CI")
	}
	if t.Event == pipeline.EventPullRequest {
		return "", fmt.Errorf("releases are not cut from pull requests (%s)", t)
	}
	return t.Ref, nil
}

// resolveTargets maps triples to configured targets; none means all.
func resolveTargets(triples []string) ([]build.Target, error) {
	if len(triples) == 0 {
		out := make([]build.Target, 0, len(cfg.Targets))
		for _, tc := range cfg.Targets {
			out = append(out, build.NewTarget(tc))
		}
		return out, nil
	}
	out := make([]build.Target, 0, len(triples))
	for _, tr := range triples {
		tc, ok := cfg.FindTarget(tr)
		if !ok {
			return nil, fmt.Errorf("target %q is not in the release matrix", tr)
		}
		out = append(out, build.NewTarget(tc))
	}
	return out, nil
}

// renderJob writes one job's step table.
func renderJob(w io.Writer, res *pipeline.JobResult, color bool) {
	id := "ks_" + strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(res.Name)
	output.SectionStart(w, id, res.Name)
	sec := output.NewSection(w, res.Name, res.Duration, color)
	for _, s := range res.Steps {
		detail := ""
		switch s.Status {
		case pipeline.StatusSuccess:
			detail = output.FormatElapsed(s.Duration)
		case pipeline.StatusFailed, pipeline.StatusTolerated:
			detail = s.Err.Error()
		case pipeline.StatusSkipped:
			detail = output.Dimmed("skipped", color)
		}
		output.RowStatus(sec, s.Name, detail, s.Status, color)
	}
	sec.Close()
	output.SectionEnd(w, id)

	if res.Err != nil {
		output.Annotate(os.Stderr, "error", res.Err.Error())
	}
}

// renderSummary writes one line per job and the overall status.
func renderSummary(w io.Writer, results []*pipeline.JobResult, elapsed time.Duration, color bool) {
	fmt.Fprintln(w)
	for _, r := range results {
		detail := output.FormatElapsed(r.Duration)
		if r.Err != nil {
			detail = string(stepKind(r)) + " failed"
		}
		output.SummaryRow(w, r.Name, r.Status(), detail, color)
	}
	status := pipeline.StatusSuccess
	if pipeline.AnyFailed(results) {
		status = pipeline.StatusFailed
	}
	output.SummaryTotal(w, elapsed, status, color)
}

func stepKind(r *pipeline.JobResult) pipeline.StepKind {
	var se *pipeline.StepError
	if errors.As(r.Err, &se) {
		return se.Kind
	}
	return ""
}

// jobsError turns failed results into the command's error.
func jobsError(results []*pipeline.JobResult) error {
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	if len(results) == 1 {
		return results[0].Err
	}
	return fmt.Errorf("%d of %d jobs failed", failed, len(results))
}
