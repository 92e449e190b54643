package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/output"
)

var releaseEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the draft release for a ref, or find the existing one",
	Long: `Ensure a release exists for the ref. Safe to run from every matrix job
at once: when another job created it first, the existing release is used.`,
	RunE: runReleaseEnsure,
}

func init() {
	releaseEnsureCmd.Flags().StringVar(&refFlag, "ref", "", "release ref (default: the CI ref)")
	releaseCmd.AddCommand(releaseEnsureCmd)
}

func runReleaseEnsure(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	ref, err := releaseRef()
	if err != nil {
		return err
	}
	if !releaseAllowed(ref) {
		fmt.Fprintf(os.Stderr, "release: ref %q excluded by release.git_tags; nothing to do\n", ref)
		return nil
	}

	pub, f, err := newPublisher(root)
	if err != nil {
		return err
	}
	defer closeForge(f)

	start := time.Now()
	rel, created, err := pub.Ensure(cmd.Context(), ref)
	if err != nil {
		return err
	}

	w := os.Stdout
	color := output.UseColor()
	output.SectionStart(w, "ks_release", "Release")
	sec := output.NewSection(w, "Release", time.Since(start), color)
	renderRelease(sec, rel, created)
	sec.Close()
	output.SectionEnd(w, "ks_release")
	return nil
}
