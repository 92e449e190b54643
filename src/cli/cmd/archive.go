package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/archive"
	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/output"
)

var (
	archiveTarget string
	archiveOut    string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Package a target's built binaries",
	Long: `Write one archive per binary built for the target: tar.xz on Linux and
macOS, zip on Windows. Assets are bundled next to the binary unless the
build embeds them.`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveTarget, "target", "", "target triple from the release matrix (required)")
	archiveCmd.Flags().StringVar(&archiveOut, "out", "", "output directory (default: build.out_dir)")
	_ = archiveCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	targets, err := resolveTargets([]string{archiveTarget})
	if err != nil {
		return err
	}
	target := targets[0]

	bc := cfg.Build
	bins, err := build.ResolveBinaries(root, cfg.Project.Manifest, bc.Packages, bc.Features, bc.Profile, bc.Binaries)
	if err != nil {
		return err
	}

	targetDir := bc.TargetDir
	if targetDir == "" {
		targetDir = "target"
	}
	res := &build.Result{Target: target}
	for _, bin := range bins {
		res.Binaries = append(res.Binaries, build.Binary{
			Name: bin,
			Path: filepath.Join(root, target.BinaryPath(targetDir, bc.Profile, bin)),
		})
	}

	outDir := archiveOut
	if outDir == "" {
		outDir = filepath.Join(root, bc.OutDir)
	}
	opts := archive.Options{}
	if !bc.EmbedsAssets() {
		opts.AssetDir = filepath.Join(root, cfg.Assets.Dir)
	}

	w := os.Stdout
	if dryRun {
		for _, bin := range res.Binaries {
			name := archive.Name(bin.Name, target.Triple, target.Archive)
			fmt.Fprintf(w, "dry-run: archive %s -> %s\n", bin.Path, filepath.Join(outDir, name))
		}
		return nil
	}

	start := time.Now()
	written, err := archive.All(cmd.Context(), res, outDir, opts)
	if err != nil {
		return err
	}

	color := output.UseColor()
	output.SectionStart(w, "ks_archive", "Archive")
	sec := output.NewSection(w, "Archive "+target.Triple, time.Since(start), color)
	for _, a := range written {
		output.RowStatus(sec, a.Name, humanBytes(a.Size), "success", color)
		sec.Row("  sha256 %s", a.SHA256)
	}
	sec.Close()
	output.SectionEnd(w, "ks_archive")
	return nil
}
