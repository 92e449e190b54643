// Package gitver reads what the release jobs need from the local git
// repository: the remote, tags in semver order and commit ranges.
package gitver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Repo is an opened git repository.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository containing dir.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", dir, err)
	}
	return &Repo{repo: r}, nil
}

// RemoteURL returns the first URL of the named remote.
func (r *Repo) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// HeadSHA returns the abbreviated commit hash of HEAD.
func (r *Repo) HeadSHA() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String()[:7], nil
}

// Tag is a tag name and the commit it points to.
type Tag struct {
	Name    string
	Commit  plumbing.Hash
	Version *semver.Version // nil for non-semver tags
}

// Tags returns every tag, annotated tags peeled to their commit. Semver
// tags come first in ascending version order, then the rest by name.
func (r *Repo) Tags() ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, err
	}

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		t := Tag{Name: ref.Name().Short(), Commit: ref.Hash()}
		if obj, err := r.repo.TagObject(ref.Hash()); err == nil {
			c, err := obj.Commit()
			if err != nil {
				return nil // tag of a tree or blob
			}
			t.Commit = c.Hash
		}
		if v, err := semver.NewVersion(t.Name); err == nil {
			t.Version = v
		}
		tags = append(tags, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tags, func(i, j int) bool {
		a, b := tags[i], tags[j]
		switch {
		case a.Version != nil && b.Version != nil:
			return a.Version.LessThan(b.Version)
		case a.Version != nil:
			return true
		case b.Version != nil:
			return false
		default:
			return a.Name < b.Name
		}
	})
	return tags, nil
}

// PreviousTag returns the highest semver tag below tag, or "" when tag is
// the first release. Non-semver tags have no predecessor.
func (r *Repo) PreviousTag(tag string) (string, error) {
	current, err := semver.NewVersion(tag)
	if err != nil {
		return "", nil
	}
	tags, err := r.Tags()
	if err != nil {
		return "", err
	}
	prev := ""
	for _, t := range tags {
		if t.Version == nil || !t.Version.LessThan(current) {
			continue
		}
		// Release notes for a stable version span from the last stable one.
		if current.Prerelease() == "" && t.Version.Prerelease() != "" {
			continue
		}
		prev = t.Name
	}
	return prev, nil
}

// Commits returns the commits reachable from to but not from from, newest
// first. An empty from walks the full history.
func (r *Repo) Commits(from, to string) ([]*object.Commit, error) {
	if to == "" {
		to = "HEAD"
	}
	toHash, err := r.repo.ResolveRevision(plumbing.Revision(to))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", to, err)
	}

	exclude := map[plumbing.Hash]bool{}
	if from != "" {
		fromHash, err := r.repo.ResolveRevision(plumbing.Revision(from))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", from, err)
		}
		base, err := r.repo.Log(&git.LogOptions{From: *fromHash})
		if err != nil {
			return nil, err
		}
		if err := base.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		}); err != nil {
			return nil, err
		}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: *toHash})
	if err != nil {
		return nil, err
	}
	var out []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if exclude[c.Hash] {
			return nil
		}
		out = append(out, c)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	return out, nil
}

// IsPrerelease reports whether a tag is a semver prerelease (v1.2.3-rc.1).
func IsPrerelease(tag string) bool {
	v, err := semver.NewVersion(tag)
	return err == nil && v.Prerelease() != ""
}

// DisplayVersion renders a ref for humans: semver tags keep their leading
// "v", branches and other refs pass through.
func DisplayVersion(ref string) string {
	v, err := semver.NewVersion(ref)
	if err != nil {
		return ref
	}
	if strings.HasPrefix(ref, "v") {
		return "v" + v.String()
	}
	return v.String()
}

// HasRevision reports whether rev resolves to a commit locally.
func (r *Repo) HasRevision(rev string) bool {
	_, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	return err == nil
}

// IsVersionTag reports whether ref looks like a release tag (v1.2.3).
func IsVersionTag(ref string) bool {
	if !strings.HasPrefix(ref, "v") {
		return false
	}
	_, err := semver.NewVersion(ref)
	return err == nil
}
