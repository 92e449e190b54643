package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
	"github.com/kodecks/kodeship/src/release"
)

var (
	matrixTargets []string
	matrixOS      string
	matrixLimit   int
)

var releaseMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Run the release job for every target side by side",
	Long: `Run one release job per matrix target concurrently. A failing target
does not stop the others; the command fails if any of them failed.`,
	RunE: runReleaseMatrix,
}

func init() {
	releaseMatrixCmd.Flags().StringSliceVar(&matrixTargets, "targets", nil, "target triples (default: the whole matrix)")
	releaseMatrixCmd.Flags().StringVar(&matrixOS, "os", "", "only targets built on this OS family (linux, macos, windows, or host)")
	releaseMatrixCmd.Flags().IntVar(&matrixLimit, "parallel", 0, "max concurrent jobs (0 = all)")
	releaseMatrixCmd.Flags().StringVar(&refFlag, "ref", "", "release ref (default: the CI ref)")
	releaseCmd.AddCommand(releaseMatrixCmd)
}

func runReleaseMatrix(cmd *cobra.Command, args []string) error {
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
	triples, err := matrixTriples(matrixTargets, matrixOS)
	if err != nil {
		return err
	}
	targets, err := resolveTargets(triples)
	if err != nil {
		return err
	}

	pub, f, err := newPublisher(root)
	if err != nil {
		return err
	}
	defer closeForge(f)

	// A host can only build its own OS family natively; cross covers Linux.
	host := config.HostOS()
	for _, t := range targets {
		if t.Toolchain == config.ToolchainCargo && t.OS != host && !dryRun {
			fmt.Fprintf(os.Stderr, "warning: %s builds with the host cargo but this host is %s\n", t.Triple, host)
		}
	}

	ships := release.Ships(cfg, root, ref, targets, newRunner(), pub, log)
	jobs := make([]*pipeline.Job, 0, len(ships))
	for _, s := range ships {
		s.DryRun = dryRun
		s.Out = os.Stdout
		jobs = append(jobs, s.Job())
	}

	output.CIHeader(os.Stdout)
	renderReleaseContext(os.Stdout, root, ref, targets)
	start := time.Now()
	results := pipeline.RunMatrix(cmd.Context(), jobs, matrixLimit, log)

	w := os.Stdout
	color := output.UseColor()
	for i, res := range results {
		renderJob(w, res, color)
		renderShipDetail(w, ships[i], color)
	}
	renderSummary(w, results, time.Since(start), color)
	return jobsError(results)
}

// matrixTriples narrows the matrix by explicit triples or by OS family.
func matrixTriples(triples []string, osFamily string) ([]string, error) {
	if osFamily == "" {
		return triples, nil
	}
	if len(triples) > 0 {
		return nil, fmt.Errorf("--targets and --os are mutually exclusive")
	}
	if osFamily == "host" {
		osFamily = config.HostOS()
	}
	tcs := cfg.TargetsForOS(osFamily)
	if len(tcs) == 0 {
		return nil, fmt.Errorf("no release target is built on %q", osFamily)
	}
	out := make([]string, 0, len(tcs))
	for _, tc := range tcs {
		out = append(out, tc.Triple)
	}
	return out, nil
}
