package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/logging"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
	"github.com/kodecks/kodeship/src/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Build the web client and deploy it on main-line pushes",
	Long: `Build the WASM client with trunk. Pull requests get a debug build only;
a push to a main-line branch builds the release profile, scans the output
for secrets and deploys it.`,
	RunE: runWeb,
}

func init() {
	addTriggerFlags(webCmd)
	rootCmd.AddCommand(webCmd)
}

func runWeb(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	trigger, err := currentTrigger()
	if err != nil {
		return err
	}

	p := &web.Publisher{
		Config:  cfg,
		Root:    root,
		Trigger: trigger,
		Runner:  newRunner(),
		Log:     log,
		Getenv:  os.Getenv,
		DryRun:  dryRun,
		Out:     os.Stdout,
	}

	output.CIHeader(os.Stdout)
	w := os.Stdout
	color := output.UseColor()
	output.ContextBlock(w, []output.KV{
		{Key: "Trigger", Value: trigger.String()},
		{Key: "Deploy", Value: strconv.FormatBool(p.ShouldDeploy())},
	})

	start := time.Now()
	job := p.Job()
	jobLog, runID := logging.WithRun(log, job.Name)
	res := job.Run(cmd.Context(), jobLog)
	res.RunID = runID

	renderJob(w, res, color)
	if len(p.Findings) > 0 {
		sec := output.NewSection(w, "Secrets", 0, color)
		for _, f := range p.Findings {
			output.RowStatus(sec, f.RuleID, f.File+":"+strconv.Itoa(f.Line), pipeline.StatusTolerated, color)
		}
		sec.Close()
	}
	renderSummary(w, []*pipeline.JobResult{res}, time.Since(start), color)
	return jobsError([]*pipeline.JobResult{res})
}
