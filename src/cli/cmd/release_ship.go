package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/logging"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
	"github.com/kodecks/kodeship/src/release"
)

var shipTarget string

var releaseShipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Run the release job for one target",
	Long: `Fetch assets, build, archive, ensure the release and upload, in order.
The first failing step aborts the job. CI runs one ship per matrix entry.`,
	RunE: runReleaseShip,
}

func init() {
	releaseShipCmd.Flags().StringVar(&shipTarget, "target", "", "target triple from the release matrix (required)")
	releaseShipCmd.Flags().StringVar(&refFlag, "ref", "", "release ref (default: the CI ref)")
	_ = releaseShipCmd.MarkFlagRequired("target")
	releaseCmd.AddCommand(releaseShipCmd)
}

func runReleaseShip(cmd *cobra.Command, args []string) error {
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
	targets, err := resolveTargets([]string{shipTarget})
	if err != nil {
		return err
	}

	pub, f, err := newPublisher(root)
	if err != nil {
		return err
	}
	defer closeForge(f)

	ship := release.Ships(cfg, root, ref, targets, newRunner(), pub, log)[0]
	ship.DryRun = dryRun
	ship.Out = os.Stdout

	output.CIHeader(os.Stdout)
	renderReleaseContext(os.Stdout, root, ref, targets)
	start := time.Now()
	job := ship.Job()
	jobLog, runID := logging.WithRun(log, job.Name)
	res := job.Run(cmd.Context(), jobLog)
	res.RunID = runID

	w := os.Stdout
	color := output.UseColor()
	renderJob(w, res, color)
	renderShipDetail(w, ship, color)
	renderSummary(w, []*pipeline.JobResult{res}, time.Since(start), color)
	return jobsError([]*pipeline.JobResult{res})
}

// renderShipDetail lists what a ship produced: archives and the release.
func renderShipDetail(w io.Writer, s *release.Ship, color bool) {
	if len(s.Archives) == 0 && s.Release == nil {
		return
	}
	sec := output.NewSection(w, "Artifacts "+s.Target.Triple, 0, color)
	for _, a := range s.Archives {
		detail := "sha256 " + a.SHA256
		if a.SHA256 == "" {
			detail = a.Path
		}
		sec.Row("%-34s %s", a.Name, detail)
	}
	if s.Release != nil {
		sec.Separator()
		renderRelease(sec, s.Release, s.Created)
		renderAttach(sec, s.Attached, color)
	}
	sec.Close()
}
