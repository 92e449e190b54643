// Package web builds the WASM client into a static site and publishes it.
// Pull requests build a debug site that is never published.
package web

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/pipeline"
)

// Publisher is the web job.
type Publisher struct {
	Config  *config.Config
	Root    string
	Trigger pipeline.Trigger
	Runner  pipeline.Runner
	Log     zerolog.Logger
	Getenv  func(string) string

	// DryRun skips the secret scan, which needs a real dist tree.
	DryRun bool
	Out    io.Writer

	Findings []Finding // filled by the scan step
}

// Release reports whether the site is built with the release profile.
// Only main-line pushes are; everything else is a debug build.
func (p *Publisher) Release() bool {
	return p.Trigger.IsMainLinePush(p.Config)
}

// ShouldDeploy is the deploy guard: true only for a main-line push.
func (p *Publisher) ShouldDeploy() bool {
	return p.Trigger.IsMainLinePush(p.Config)
}

// InstallCommand adds the WASM target to the toolchain.
func InstallCommand(cfg config.WebConfig) pipeline.Command {
	return pipeline.Command{Name: "rustup", Args: []string{"target", "add", cfg.Target}}
}

// BuildCommand is the trunk invocation for a debug or release build.
func BuildCommand(cfg config.WebConfig, root string, release bool) pipeline.Command {
	args := []string{"build", "--dist", cfg.Dist}
	if release {
		args = append(args, "--release", "--cargo-profile", cfg.ReleaseProfile)
	}
	return pipeline.Command{Name: "trunk", Args: args, Dir: root}
}

// DeployCommand publishes dist under the fixed project name.
func DeployCommand(cfg config.WebConfig, root string) pipeline.Command {
	return pipeline.Command{
		Name: "npx",
		Args: []string{"--yes", "wrangler", "pages", "deploy", cfg.Dist,
			"--project-name=" + cfg.Project, "--branch=" + cfg.Branch},
		Dir: root,
	}
}

// Credentials checks that the deploy token and account are set.
func Credentials(cfg config.WebConfig, getenv func(string) string) error {
	var missing []string
	for _, name := range []string{cfg.TokenEnv, cfg.AccountEnv} {
		if strings.TrimSpace(getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("deploy credentials missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Job returns the web job: install target, build, scan and deploy. The
// scan and deploy steps only run when ShouldDeploy. The scan reports
// findings without holding the deploy back; only a failed build does.
func (p *Publisher) Job() *pipeline.Job {
	wc := p.Config.Web
	deploy := p.ShouldDeploy

	return &pipeline.Job{
		Name:        "web",
		StepTimeout: p.Config.StepTimeout(),
		Steps: []pipeline.Step{
			{
				Name: "install " + wc.Target,
				Kind: pipeline.KindInstall,
				Run: func(ctx context.Context) error {
					return p.Runner.Run(ctx, InstallCommand(wc))
				},
			},
			{
				Name: p.buildName(),
				Kind: pipeline.KindBuild,
				Run: func(ctx context.Context) error {
					p.Log.Info().Bool("release", p.Release()).Str("trigger", p.Trigger.String()).Msg("building web client")
					return p.Runner.Run(ctx, BuildCommand(wc, p.Root, p.Release()))
				},
			},
			{
				Name: "scan dist",
				Kind: pipeline.KindScan,
				When:     func() bool { return deploy() && wc.ScanSecrets && !p.DryRun },
				Tolerate: func(error) bool { return true },
				Run:      p.scan,
			},
			{
				Name: "deploy " + wc.Project,
				Kind: pipeline.KindDeploy,
				When: deploy,
				Run: func(ctx context.Context) error {
					if !p.DryRun {
						if err := Credentials(wc, p.getenv()); err != nil {
							return err
						}
					}
					return p.Runner.Run(ctx, DeployCommand(wc, p.Root))
				},
			},
		},
	}
}

func (p *Publisher) buildName() string {
	if p.Release() {
		return "build web (" + p.Config.Web.ReleaseProfile + ")"
	}
	return "build web (debug)"
}

func (p *Publisher) getenv() func(string) string {
	if p.Getenv != nil {
		return p.Getenv
	}
	return func(string) string { return "" }
}

func (p *Publisher) scan(ctx context.Context) error {
	findings, err := ScanDir(ctx, filepath.Join(p.Root, p.Config.Web.Dist))
	if err != nil {
		return err
	}
	p.Findings = findings
	w := p.Out
	if w == nil {
		w = io.Discard
	}
	for _, f := range findings {
		p.Log.Warn().Str("file", f.File).Int("line", f.Line).Str("rule", f.RuleID).Msg("secret in web build output")
		output.Annotate(w, "warning", fmt.Sprintf("%s:%d: possible secret (%s)", f.File, f.Line, f.RuleID))
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d potential secret(s) in %s", len(findings), p.Config.Web.Dist)
	}
	return nil
}
