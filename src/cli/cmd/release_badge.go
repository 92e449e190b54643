package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/badge"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/output"
	"github.com/kodecks/kodeship/src/release"
)

var (
	badgeOut      string
	badgeFont     string
	badgeFontSize float64
)

var releaseBadgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Render the release status badge for a ref",
	RunE:  runReleaseBadge,
}

func init() {
	releaseBadgeCmd.Flags().StringVar(&refFlag, "ref", "", "release ref (default: the CI ref)")
	releaseBadgeCmd.Flags().StringVar(&badgeOut, "out", "", "output path (default: release.badge)")
	releaseBadgeCmd.Flags().StringVar(&badgeFont, "font", "", "TTF/OTF font to measure and embed")
	releaseBadgeCmd.Flags().Float64Var(&badgeFontSize, "font-size", 11, "font size in px")
	releaseCmd.AddCommand(releaseBadgeCmd)
}

func runReleaseBadge(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	ref, err := releaseRef()
	if err != nil {
		return err
	}

	var metrics *badge.FontMetrics
	if badgeFont != "" {
		metrics, err = badge.LoadFontFile(badgeFont, badgeFontSize)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	_, f, err := newPublisher(root)
	if err != nil {
		return err
	}
	defer closeForge(f)

	rel, err := f.FindRelease(cmd.Context(), ref)
	if err != nil && !forge.IsNotFound(err) {
		return err
	}

	out := badgeOut
	if out == "" {
		out = filepath.Join(root, cfg.Release.Badge)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating badge directory: %w", err)
	}
	svg := release.Badge(badge.New(metrics), rel, ref)
	if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("writing badge: %w", err)
	}

	detail := fmt.Sprintf("%s → %s (%s)", ref, out, release.BadgeState(rel))
	output.PhaseResult(os.Stdout, "badge", "success", detail, time.Since(start))
	return nil
}
