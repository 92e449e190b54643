package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/output"
)

var (
	buildTarget   string
	buildProfile  string
	buildPackages []string
	buildFeatures []string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the release binaries for one target",
	Long: `Build the configured packages for a target triple from the release
matrix: inside the cross container on Linux, with the host cargo on macOS
and Windows.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildTarget, "target", "", "target triple from the release matrix (required)")
	buildCmd.Flags().StringVar(&buildProfile, "profile", "", "cargo profile (default: build.profile)")
	buildCmd.Flags().StringSliceVar(&buildPackages, "package", nil, "packages to build (default: build.packages)")
	buildCmd.Flags().StringSliceVar(&buildFeatures, "feature", nil, "cargo features (default: build.features)")
	_ = buildCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(buildCmd)
}

func applyBuildOverrides() {
	if buildProfile != "" {
		cfg.Build.Profile = buildProfile
	}
	if len(buildPackages) > 0 {
		cfg.Build.Packages = buildPackages
	}
	if len(buildFeatures) > 0 {
		cfg.Build.Features = buildFeatures
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	applyBuildOverrides()

	targets, err := resolveTargets([]string{buildTarget})
	if err != nil {
		return err
	}
	target := targets[0]

	bc := cfg.Build
	bins, err := build.ResolveBinaries(root, cfg.Project.Manifest, bc.Packages, bc.Features, bc.Profile, bc.Binaries)
	if err != nil {
		return err
	}

	start := time.Now()
	b := &build.Builder{Runner: newRunner(), Log: log, SkipVerify: dryRun}
	res, err := b.Build(cmd.Context(), build.NewRequest(cfg, root, target, bins))
	if err != nil {
		return err
	}

	w := os.Stdout
	color := output.UseColor()
	output.SectionStart(w, "ks_build", "Build")
	sec := output.NewSection(w, "Build "+target.Triple, time.Since(start), color)
	sec.Row("%-16s%s", "toolchain", target.Toolchain)
	sec.Row("%-16s%s", "profile", bc.Profile)
	sec.Separator()
	for _, bin := range res.Binaries {
		rel, relErr := filepath.Rel(root, bin.Path)
		if relErr != nil {
			rel = bin.Path
		}
		output.RowStatus(sec, bin.Name, rel, "success", color)
	}
	sec.Close()
	output.SectionEnd(w, "ks_build")
	return nil
}
