package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/output"
)

var releaseUploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Attach files to the release for a ref",
	Long: `Upload files to an existing release. A file already attached to a
draft is replaced; a published release rejects it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReleaseUpload,
}

func init() {
	releaseUploadCmd.Flags().StringVar(&refFlag, "ref", "", "release ref (default: the CI ref)")
	releaseCmd.AddCommand(releaseUploadCmd)
}

func runReleaseUpload(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	ref, err := releaseRef()
	if err != nil {
		return err
	}
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
	}

	pub, f, err := newPublisher(root)
	if err != nil {
		return err
	}
	defer closeForge(f)

	ctx := cmd.Context()
	rel, err := f.FindRelease(ctx, ref)
	if err != nil {
		if forge.IsNotFound(err) {
			return fmt.Errorf("no release for %s; run `kodeship release ensure` first", ref)
		}
		return err
	}

	start := time.Now()
	res, err := pub.Attach(ctx, rel, args)

	w := os.Stdout
	color := output.UseColor()
	output.SectionStart(w, "ks_upload", "Upload")
	sec := output.NewSection(w, "Upload "+rel.TagName, time.Since(start), color)
	renderAttach(sec, res, color)
	if err != nil {
		output.RowStatus(sec, "upload", err.Error(), "failed", color)
	}
	sec.Close()
	output.SectionEnd(w, "ks_upload")
	return err
}
