package build_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodecks/kodeship/src/build"
	_ "github.com/kodecks/kodeship/src/build/toolchains"
	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/logging"
	"github.com/kodecks/kodeship/src/pipeline"
	"github.com/kodecks/kodeship/src/pipeline/pipelinetest"
)

func targetFor(t *testing.T, cfg *config.Config, os string) build.Target {
	t.Helper()
	tcs := cfg.TargetsForOS(os)
	require.Len(t, tcs, 1)
	return build.NewTarget(tcs[0])
}

// touchOutputs creates the binaries a successful cargo run would leave.
func touchOutputs(root string, req build.Request) func(pipeline.Command) error {
	return func(pipeline.Command) error {
		for _, bin := range req.Binaries {
			p := filepath.Join(root, req.Target.BinaryPath("target", req.Profile, bin))
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(p, []byte("bin"), 0o755); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestBuildLinuxUsesCrossWithContainerAssetPath(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	req := build.NewRequest(cfg, root, targetFor(t, cfg, config.OSLinux), cfg.Build.Binaries)
	rec := &pipelinetest.Recorder{OnRun: touchOutputs(root, req)}

	res, err := (&build.Builder{Runner: rec, Log: logging.Nop()}).Build(context.Background(), req)
	require.NoError(t, err)

	cmds := rec.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "cross", cmds[0].Name)
	line := cmds[0].String()
	assert.Contains(t, line, "--target x86_64-unknown-linux-gnu")
	assert.Contains(t, line, "--profile distribution")
	assert.Contains(t, line, "--package kodecks-bevy --package kodecks-server")
	assert.Contains(t, line, "--features embed_assets")
	assert.Contains(t, cmds[0].Env, "ASSET_PATH=/project/assets")
	assert.Contains(t, cmds[0].Env, "CROSS_BUILD_ENV_PASSTHROUGH=ASSET_PATH")

	require.Len(t, res.Binaries, 2)
	assert.Equal(t, "kodecks", res.Binaries[0].Name)
	assert.True(t, strings.HasSuffix(res.Binaries[0].Path, filepath.Join("x86_64-unknown-linux-gnu", "distribution", "kodecks")))
}

func TestBuildNativeTargets(t *testing.T) {
	cfg := config.Default()
	for _, osName := range []string{config.OSMacOS, config.OSWindows} {
		t.Run(osName, func(t *testing.T) {
			root := t.TempDir()
			req := build.NewRequest(cfg, root, targetFor(t, cfg, osName), cfg.Build.Binaries)
			rec := &pipelinetest.Recorder{OnRun: touchOutputs(root, req)}

			res, err := (&build.Builder{Runner: rec, Log: logging.Nop()}).Build(context.Background(), req)
			require.NoError(t, err)

			cmds := rec.Commands()
			require.Len(t, cmds, 1)
			assert.Equal(t, "cargo", cmds[0].Name)
			assert.Equal(t, []string{"ASSET_PATH=assets"}, cmds[0].Env)
			if osName == config.OSWindows {
				assert.True(t, strings.HasSuffix(res.Binaries[1].Path, "kodecks-server.exe"))
			}
		})
	}
}

func TestBuildFailureIsFatal(t *testing.T) {
	cfg := config.Default()
	req := build.NewRequest(cfg, t.TempDir(), targetFor(t, cfg, config.OSMacOS), cfg.Build.Binaries)
	rec := &pipelinetest.Recorder{Fail: func(pipeline.Command) bool { return true }}

	_, err := (&build.Builder{Runner: rec, Log: logging.Nop()}).Build(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aarch64-apple-darwin")
	assert.Len(t, rec.Commands(), 1, "no retry")
}

func TestBuildMissingBinary(t *testing.T) {
	cfg := config.Default()
	req := build.NewRequest(cfg, t.TempDir(), targetFor(t, cfg, config.OSMacOS), cfg.Build.Binaries)

	_, err := (&build.Builder{Runner: &pipelinetest.Recorder{}, Log: logging.Nop()}).Build(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected binary kodecks missing")
}

func TestProfileDir(t *testing.T) {
	assert.Equal(t, "debug", build.ProfileDir("dev"))
	assert.Equal(t, "release", build.ProfileDir("release"))
	assert.Equal(t, "distribution", build.ProfileDir("distribution"))
}

func TestToolchainsRegistered(t *testing.T) {
	assert.Equal(t, []string{"cargo", "cross"}, build.All())
	_, err := build.Get("zig")
	assert.Error(t, err)
}
