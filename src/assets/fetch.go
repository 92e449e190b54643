// Package assets runs the external asset download scripts and checks that
// they left an asset tree behind.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/pipeline"
)

// Bundle describes a fetched asset tree.
type Bundle struct {
	Dir   string
	Files int
	Bytes int64
}

// Fetcher runs the per-OS download script.
type Fetcher struct {
	Runner pipeline.Runner
	Log    zerolog.Logger

	// SkipVerify accepts the script's exit status without inspecting the
	// asset directory. Dry runs set it.
	SkipVerify bool
}

// Command returns the script invocation for an OS family. Windows runners
// use the PowerShell script; everything else the POSIX one.
func Command(cfg config.AssetsConfig, root, osFamily string) pipeline.Command {
	env := []string{cfg.Env + "=" + cfg.Dir}
	if osFamily == config.OSWindows {
		return pipeline.Command{
			Name: "pwsh",
			Args: []string{"-NoProfile", "-NonInteractive", "-File", cfg.PowerShellScript},
			Dir:  root,
			Env:  env,
		}
	}
	return pipeline.Command{
		Name: "sh",
		Args: []string{cfg.Script},
		Dir:  root,
		Env:  env,
	}
}

// Fetch runs the download script and verifies the asset directory is
// populated. A non-zero exit is a failure; so is an empty tree.
func (f *Fetcher) Fetch(ctx context.Context, cfg config.AssetsConfig, root, osFamily string) (*Bundle, error) {
	cmd := Command(cfg, root, osFamily)
	f.Log.Info().Str("script", cmd.String()).Str("os", osFamily).Msg("fetching assets")

	if err := f.Runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("fetching assets: %w", err)
	}

	dir := filepath.Join(root, cfg.Dir)
	if f.SkipVerify {
		return &Bundle{Dir: dir}, nil
	}

	b, err := Inspect(dir)
	if err != nil {
		return nil, fmt.Errorf("fetching assets: %w", err)
	}
	f.Log.Debug().Int("files", b.Files).Int64("bytes", b.Bytes).Msg("assets ready")
	return b, nil
}

// Inspect walks an asset directory and counts its regular files.
func Inspect(dir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("asset directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset path %s is not a directory", dir)
	}

	b := &Bundle{Dir: dir}
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		b.Files++
		b.Bytes += fi.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if b.Files == 0 {
		return nil, fmt.Errorf("asset directory %s is empty", dir)
	}
	return b, nil
}
