package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/gate"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
)

var (
	gateOS  string
	gateAll bool
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the build, test and lint gate",
	Long: `Install native dependencies where needed, then build, test and lint the
workspace. CI runs one gate per OS family; --all runs every configured
family on this host.`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().StringVar(&gateOS, "os", "", "OS family (default: host)")
	gateCmd.Flags().BoolVar(&gateAll, "all", false, "run every configured OS family")
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	family := gateOS
	if family == "" && !gateAll {
		family = config.HostOS()
	}
	jobs, err := gate.Jobs(cfg, root, family, func(string) pipeline.Runner { return newRunner() })
	if err != nil {
		return err
	}

	output.CIHeader(os.Stdout)
	start := time.Now()
	results := pipeline.RunMatrix(cmd.Context(), jobs, 0, log)

	w := os.Stdout
	color := output.UseColor()
	for _, res := range results {
		renderJob(w, res, color)
	}
	renderSummary(w, results, time.Since(start), color)
	return jobsError(results)
}
