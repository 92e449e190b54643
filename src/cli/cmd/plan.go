package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which jobs the current event triggers",
	Long: `Print the trigger detected from the CI environment, the jobs it starts,
and the release matrix. CI uses the output to decide which jobs to fan out.`,
	RunE: runPlan,
}

func init() {
	addTriggerFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	trigger, err := currentTrigger()
	if err != nil {
		return err
	}

	output.CIHeader(os.Stdout)
	w := os.Stdout
	color := output.UseColor()
	jobs := trigger.JobsFor(cfg)

	output.ContextBlock(w, []output.KV{
		{Key: "Trigger", Value: trigger.String()},
		{Key: "Main line", Value: fmt.Sprintf("push=%t review=%t", trigger.IsMainLinePush(cfg), trigger.IsMainLineReview(cfg))},
		{Key: "Jobs", Value: orNone(strings.Join(jobs, ", "))},
	})

	sec := output.NewSection(w, "Plan", 0, color)
	planned := map[string]bool{}
	for _, j := range jobs {
		planned[j] = true
	}

	releaseOK := config.MatchRef(cfg.Release.GitTags, trigger.Ref, cfg.Policies.GitTags)
	for _, t := range cfg.Targets {
		status, detail := pipeline.StatusSkipped, t.ResolvedToolchain()+" → "+t.ResolvedArchive()
		if planned["release"] && releaseOK {
			status = pipeline.StatusSuccess
		}
		output.RowStatus(sec, "release "+t.Triple, detail, status, color)
	}
	if planned["release"] && !releaseOK {
		sec.Row("  ref %q excluded by release.git_tags", trigger.Ref)
	}

	sec.Separator()
	webDetail := "debug build"
	if trigger.IsMainLinePush(cfg) {
		webDetail = "release build, deploy " + cfg.Web.Project
	}
	output.RowStatus(sec, "web", webDetail, planStatus(planned["web"]), color)

	for _, family := range cfg.Gate.OS {
		output.RowStatus(sec, "gate "+family, "build, test, lint", planStatus(planned["gate"]), color)
	}
	sec.Close()
	return nil
}

func planStatus(run bool) string {
	if run {
		return pipeline.StatusSuccess
	}
	return pipeline.StatusSkipped
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
