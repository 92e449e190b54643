// Package gate is the merge gate: build, test and lint on every supported
// OS. Each OS is its own job; a failing stage stops that OS only.
package gate

import (
	"context"
	"fmt"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/pipeline"
)

// InstallCommands returns the native dependency installation for an OS.
// Only Linux needs any: the audio and device headers the client links.
func InstallCommands(cfg config.GateConfig, osFamily string) []pipeline.Command {
	if osFamily != config.OSLinux || len(cfg.LinuxPackages) == 0 {
		return nil
	}
	install := append([]string{"apt-get", "install", "-y", "--no-install-recommends"}, cfg.LinuxPackages...)
	return []pipeline.Command{
		{Name: "sudo", Args: []string{"apt-get", "update"}},
		{Name: "sudo", Args: install},
	}
}

func argv(root string, a []string) pipeline.Command {
	return pipeline.Command{Name: a[0], Args: a[1:], Dir: root}
}

// Job returns the gate job for one OS family.
func Job(cfg *config.Config, root, osFamily string, runner pipeline.Runner) *pipeline.Job {
	gc := cfg.Gate
	install := InstallCommands(gc, osFamily)

	run := func(a []string) func(context.Context) error {
		return func(ctx context.Context) error {
			return runner.Run(ctx, argv(root, a))
		}
	}

	return &pipeline.Job{
		Name:        "gate " + osFamily,
		StepTimeout: cfg.StepTimeout(),
		Steps: []pipeline.Step{
			{
				Name: "install native dependencies",
				Kind: pipeline.KindInstall,
				When: func() bool { return len(install) > 0 },
				Run: func(ctx context.Context) error {
					for _, c := range install {
						if err := runner.Run(ctx, c); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{Name: "build", Kind: pipeline.KindBuild, Run: run(gc.Build)},
			{Name: "test", Kind: pipeline.KindTest, Run: run(gc.Test)},
			{Name: "lint", Kind: pipeline.KindLint, Run: run(gc.Lint)},
		},
	}
}

// Jobs returns one gate job per configured OS, or only osFamily when set.
// newRunner gives each job its own runner.
func Jobs(cfg *config.Config, root, osFamily string, newRunner func(osFamily string) pipeline.Runner) ([]*pipeline.Job, error) {
	families := cfg.Gate.OS
	if osFamily != "" {
		found := false
		for _, f := range families {
			if f == osFamily {
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("gate: os %q is not configured (gate.os: %v)", osFamily, families)
		}
		families = []string{osFamily}
	}

	jobs := make([]*pipeline.Job, 0, len(families))
	for _, f := range families {
		jobs = append(jobs, Job(cfg, root, f, newRunner(f)))
	}
	return jobs, nil
}
