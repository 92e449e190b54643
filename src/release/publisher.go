// Package release owns the release job: the draft release keyed by ref,
// the archives attached to it, and the job that produces them.
package release

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/forge"
	"github.com/kodecks/kodeship/src/gitver"
)

// Publisher drives the release state machine for one ref:
// no release → ensure → release exists → attach → assets attached.
type Publisher struct {
	Forge forge.Forge
	Log   zerolog.Logger
	Draft bool
	Notes string       // config.NotesForge or config.NotesGit
	Repo  *gitver.Repo // read for git notes; may be nil
}

// NewPublisher builds a publisher from the release configuration.
func NewPublisher(f forge.Forge, cfg config.ReleaseConfig, repo *gitver.Repo, log zerolog.Logger) *Publisher {
	return &Publisher{Forge: f, Log: log, Draft: cfg.Draft, Notes: cfg.Notes, Repo: repo}
}

// Ensure makes sure a release exists for ref and returns it. An existing
// release, draft or published, is reused. Otherwise one is created; a
// concurrent job may create its own draft for the same tag in between, so
// after creating, the oldest release for the tag is kept and a younger
// one made here is deleted. created reports whether the returned release
// is the one this call made.
func (p *Publisher) Ensure(ctx context.Context, ref string) (rel *forge.Release, created bool, err error) {
	if ref == "" {
		return nil, false, fmt.Errorf("release: ref is required")
	}

	rel, err = p.Forge.FindRelease(ctx, ref)
	if err == nil {
		p.Log.Info().Str("ref", ref).Str("release", rel.ID).Msg("release already exists")
		return rel, false, nil
	}
	if !forge.IsNotFound(err) {
		return nil, false, fmt.Errorf("looking up release %s: %w", ref, err)
	}

	rel, err = p.Forge.CreateRelease(ctx, p.options(ref))
	if err != nil {
		if !forge.IsAlreadyExists(err) {
			return nil, false, fmt.Errorf("creating release %s: %w", ref, err)
		}
		p.Log.Info().Str("ref", ref).Msg("release created concurrently")
		rel, err = p.Forge.FindRelease(ctx, ref)
		if err != nil {
			return nil, false, fmt.Errorf("release %s exists but could not be read: %w", ref, err)
		}
		return rel, false, nil
	}
	p.Log.Info().Str("ref", ref).Str("release", rel.ID).Bool("draft", rel.Draft).Msg("release created")

	return p.settle(ctx, rel)
}

// settle resolves duplicate drafts for rel's tag in favour of the oldest.
func (p *Publisher) settle(ctx context.Context, mine *forge.Release) (*forge.Release, bool, error) {
	rels, err := p.Forge.ListReleases(ctx, mine.TagName)
	if err != nil {
		return nil, false, fmt.Errorf("listing releases for %s: %w", mine.TagName, err)
	}
	survivor := forge.Oldest(rels)
	if survivor == nil || survivor.ID == mine.ID {
		return mine, true, nil
	}

	p.Log.Warn().Str("ref", mine.TagName).Str("release", mine.ID).Str("kept", survivor.ID).Msg("removing duplicate draft")
	if err := p.Forge.DeleteRelease(ctx, mine); err != nil {
		return nil, false, fmt.Errorf("removing duplicate draft %s of %s: %w", mine.ID, mine.TagName, err)
	}
	return survivor, false, nil
}

func (p *Publisher) options(ref string) forge.ReleaseOptions {
	opts := forge.ReleaseOptions{
		TagName:    ref,
		Name:       gitver.DisplayVersion(ref),
		Draft:      p.Draft,
		Prerelease: gitver.IsPrerelease(ref),
	}
	if p.Notes == config.NotesForge && p.Forge.Provider() == forge.GitHub {
		opts.GenerateNotes = true
	} else {
		opts.Description = p.gitNotes(ref)
	}
	return opts
}

func (p *Publisher) gitNotes(ref string) string {
	if p.Repo == nil {
		return ""
	}
	notes, err := GitNotes(p.Repo, ref)
	if err != nil {
		p.Log.Warn().Err(err).Str("ref", ref).Msg("release notes unavailable")
		return ""
	}
	return notes
}

// AttachResult reports what Attach did.
type AttachResult struct {
	Uploaded []forge.AssetInfo
	Replaced []string // names re-uploaded over an earlier run's copy
}

// Attach uploads files to rel. Every upload failure is fatal. A file whose
// name is already attached is replaced while the release is a draft (a
// re-run of a failed job) and rejected once it is published.
func (p *Publisher) Attach(ctx context.Context, rel *forge.Release, files []string) (*AttachResult, error) {
	existing, err := p.Forge.ListAssets(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("listing assets of %s: %w", rel.TagName, err)
	}
	byName := make(map[string]forge.AssetInfo, len(existing))
	for _, a := range existing {
		byName[a.Name] = a
	}

	res := &AttachResult{}
	for _, path := range files {
		name := filepath.Base(path)

		if old, ok := byName[name]; ok {
			if !rel.Draft {
				return res, fmt.Errorf("uploading %s: already attached to published release %s", name, rel.TagName)
			}
			p.Log.Warn().Str("asset", name).Msg("replacing asset from an earlier run")
			if err := p.Forge.DeleteAsset(ctx, rel, old); err != nil {
				return res, fmt.Errorf("replacing %s: %w", name, err)
			}
			res.Replaced = append(res.Replaced, name)
		}

		info, err := p.Forge.UploadAsset(ctx, rel, forge.Asset{Name: name, FilePath: path})
		if err != nil {
			return res, fmt.Errorf("uploading %s: %w", name, err)
		}
		p.Log.Info().Str("asset", name).Int64("size", info.Size).Msg("asset uploaded")
		res.Uploaded = append(res.Uploaded, *info)
	}
	return res, nil
}
