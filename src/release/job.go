package release

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/archive"
	"github.com/kodecks/kodeship/src/assets"
	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/gitver"
	"github.com/kodecks/kodeship/src/pipeline"
)

// Ship is one per-target release job: fetch assets, build, archive, ensure
// the release, upload. Jobs for different targets share nothing but the
// release keyed by Ref.
type Ship struct {
	Config    *config.Config
	Root      string
	Target    build.Target
	Ref       string
	Runner    pipeline.Runner
	Publisher *Publisher
	Log       zerolog.Logger

	// DryRun prints archive and upload actions instead of performing them.
	DryRun bool
	Out    io.Writer // dry-run output

	// Filled in as the job runs.
	Bundle   *assets.Bundle
	Build    *build.Result
	Archives []*archive.Asset
	Release  *forge.Release
	Created  bool
	Attached *AttachResult
}

// Job returns the job's steps in execution order.
func (s *Ship) Job() *pipeline.Job {
	return &pipeline.Job{
		Name:        "release " + s.Target.Triple,
		StepTimeout: s.Config.StepTimeout(),
		Steps: []pipeline.Step{
			{Name: "fetch assets", Kind: pipeline.KindFetch, Run: s.fetch},
			{Name: "build " + s.Target.Triple, Kind: pipeline.KindBuild, Run: s.build},
			{Name: "archive", Kind: pipeline.KindArchive, Run: s.archive},
			{Name: "ensure release " + s.Ref, Kind: pipeline.KindRelease, Run: s.ensure},
			{Name: "upload", Kind: pipeline.KindUpload, Run: s.upload},
		},
	}
}

func (s *Ship) fetch(ctx context.Context) error {
	f := &assets.Fetcher{Runner: s.Runner, Log: s.Log, SkipVerify: s.DryRun}
	b, err := f.Fetch(ctx, s.Config.Assets, s.Root, s.Target.OS)
	if err != nil {
		return err
	}
	s.Bundle = b
	return nil
}

func (s *Ship) build(ctx context.Context) error {
	bc := s.Config.Build
	bins, err := build.ResolveBinaries(s.Root, s.Config.Project.Manifest, bc.Packages, bc.Features, bc.Profile, bc.Binaries)
	if err != nil {
		return err
	}
	b := &build.Builder{Runner: s.Runner, Log: s.Log, SkipVerify: s.DryRun}
	res, err := b.Build(ctx, build.NewRequest(s.Config, s.Root, s.Target, bins))
	if err != nil {
		return err
	}
	s.Build = res
	return nil
}

func (s *Ship) outDir() string {
	return filepath.Join(s.Root, s.Config.Build.OutDir)
}

func (s *Ship) archive(ctx context.Context) error {
	opts := archive.Options{}
	if !s.Config.Build.EmbedsAssets() {
		opts.AssetDir = filepath.Join(s.Root, s.Config.Assets.Dir)
	}

	if s.DryRun {
		for _, bin := range s.Build.Binaries {
			name := archive.Name(bin.Name, s.Target.Triple, s.Target.Archive)
			fmt.Fprintf(s.Out, "dry-run: archive %s -> %s\n", bin.Path, filepath.Join(s.outDir(), name))
			s.Archives = append(s.Archives, &archive.Asset{Name: name, Path: filepath.Join(s.outDir(), name)})
		}
		return nil
	}

	out, err := archive.All(ctx, s.Build, s.outDir(), opts)
	if err != nil {
		return err
	}
	s.Archives = out
	if err := s.verifyArchives(); err != nil {
		return err
	}
	for _, a := range out {
		s.Log.Info().Str("archive", a.Name).Str("sha256", a.SHA256).Int64("size", a.Size).Msg("archive written")
	}
	return nil
}

// verifyArchives reopens each archive and checks its binary sits at the
// root under the name the target runs it by.
func (s *Ship) verifyArchives() error {
	if len(s.Archives) != len(s.Build.Binaries) {
		return fmt.Errorf("%d archives for %d binaries", len(s.Archives), len(s.Build.Binaries))
	}
	for i, a := range s.Archives {
		if err := archive.Verify(a.Path, s.Build.Binaries[i].Name+s.Target.ExeSuffix()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Ship) ensure(ctx context.Context) error {
	rel, created, err := s.Publisher.Ensure(ctx, s.Ref)
	if err != nil {
		return err
	}
	s.Release, s.Created = rel, created
	return nil
}

func (s *Ship) upload(ctx context.Context) error {
	if s.DryRun {
		for _, a := range s.Archives {
			fmt.Fprintf(s.Out, "dry-run: upload %s to release %s\n", a.Name, s.Ref)
		}
		return nil
	}

	files := make([]string, 0, len(s.Archives))
	for _, a := range s.Archives {
		files = append(files, a.Path)
	}
	res, err := s.Publisher.Attach(ctx, s.Release, files)
	s.Attached = res
	return err
}

// Ships builds one release job per target.
func Ships(cfg *config.Config, root, ref string, targets []build.Target, runner pipeline.Runner, pub *Publisher, log zerolog.Logger) []*Ship {
	out := make([]*Ship, 0, len(targets))
	for _, t := range targets {
		out = append(out, &Ship{
			Config:    cfg,
			Root:      root,
			Target:    t,
			Ref:       ref,
			Runner:    runner,
			Publisher: pub,
			Log:       log.With().Str("target", t.Triple).Logger(),
		})
	}
	return out
}

// VersionMismatch describes a version tag that disagrees with the crate
// version of the first configured package. It is empty when they agree,
// when ref is not a version tag, or when the manifest cannot be read.
func VersionMismatch(cfg *config.Config, root, ref string) string {
	if !gitver.IsVersionTag(ref) || len(cfg.Build.Packages) == 0 {
		return ""
	}
	ws, err := build.LoadWorkspace(root, cfg.Project.Manifest)
	if err != nil {
		return ""
	}
	pkg := cfg.Build.Packages[0]
	crate := ws.Version(pkg)
	if crate == "" {
		return ""
	}
	tagged, err := semver.NewVersion(ref)
	if err != nil {
		return ""
	}
	declared, err := semver.NewVersion(crate)
	if err != nil {
		return fmt.Sprintf("%s declares version %q, which is not semver", pkg, crate)
	}
	if tagged.Equal(declared) {
		return ""
	}
	return fmt.Sprintf("tag %s does not match %s version %s", ref, pkg, crate)
}
