package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/assets"
	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/output"
)

var assetsOS string

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Game asset management",
}

var assetsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the game assets into the workspace",
	Long: `Run the repository's asset download script for this OS family:
the PowerShell script on Windows, the shell script elsewhere.`,
	RunE: runAssetsFetch,
}

func init() {
	assetsFetchCmd.Flags().StringVar(&assetsOS, "os", "", "OS family whose script to run (default: host)")
	assetsCmd.AddCommand(assetsFetchCmd)
	rootCmd.AddCommand(assetsCmd)
}

func runAssetsFetch(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	family := assetsOS
	if family == "" {
		family = config.HostOS()
	}

	start := time.Now()
	f := &assets.Fetcher{Runner: newRunner(), Log: log, SkipVerify: dryRun}
	bundle, err := f.Fetch(cmd.Context(), cfg.Assets, root, family)
	if err != nil {
		return err
	}

	w := os.Stdout
	color := output.UseColor()
	sec := output.NewSection(w, "Assets", time.Since(start), color)
	sec.Row("%-16s%s", "script", assets.Command(cfg.Assets, root, family).String())
	sec.Row("%-16s%s", "directory", bundle.Dir)
	if !dryRun {
		sec.Row("%-16s%d files, %s", "contents", bundle.Files, humanBytes(bundle.Bytes))
	}
	sec.Close()
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
