package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/pipeline"
)

// Builder compiles one target's binaries.
type Builder struct {
	Runner pipeline.Runner
	Log    zerolog.Logger

	// SkipVerify trusts the toolchain instead of checking that every
	// expected binary exists afterwards. Dry runs set it.
	SkipVerify bool
}

// NewRequest assembles the build request for a target from configuration.
// The asset path handed to the build depends on where the compiler runs:
// inside the cross container the workspace is mounted elsewhere.
func NewRequest(cfg *config.Config, root string, target Target, binaries []string) Request {
	assetPath := cfg.Assets.Dir
	if target.Toolchain == config.ToolchainCross && cfg.Assets.ContainerDir != "" {
		assetPath = cfg.Assets.ContainerDir
	}

	return Request{
		Root:      root,
		TargetDir: cfg.Build.TargetDir,
		Profile:   cfg.Build.Profile,
		Packages:  cfg.Build.Packages,
		Features:  cfg.Build.Features,
		Binaries:  binaries,
		Target:    target,
		Env:       []string{cfg.Assets.Env + "=" + assetPath},
	}
}

// Build runs the toolchain and returns the produced binaries.
// A compile error is returned as-is; there is no retry.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tc, err := Get(req.Target.Toolchain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cmd := tc.Command(req)
	b.Log.Info().Str("toolchain", tc.Name()).Str("target", req.Target.Triple).Str("profile", req.Profile).Msg("building")

	if err := b.Runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("building %s: %w", req.Target.Triple, err)
	}

	res := &Result{Target: req.Target}
	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = "target"
	}
	for _, bin := range req.Binaries {
		path := filepath.Join(req.Root, req.Target.BinaryPath(targetDir, req.Profile, bin))
		if !b.SkipVerify {
			if _, err := os.Stat(path); err != nil {
				return nil, fmt.Errorf("building %s: expected binary %s missing: %w", req.Target.Triple, bin, err)
			}
		}
		res.Binaries = append(res.Binaries, Binary{Name: bin, Path: path})
	}
	res.Duration = time.Since(start)

	return res, nil
}
