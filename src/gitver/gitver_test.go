package gitver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	n    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &fixture{t: t, dir: dir, repo: repo}
}

func (f *fixture) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.n++
	wt, err := f.repo.Worktree()
	require.NoError(f.t, err)
	name := filepath.Join(f.dir, "CHANGELOG")
	require.NoError(f.t, os.WriteFile(name, []byte(msg+"\n"), 0o644))
	_, err = wt.Add("CHANGELOG")
	require.NoError(f.t, err)
	h, err := wt.Commit(msg, &git.CommitOptions{Author: &object.Signature{
		Name: "dev", Email: "dev@kodecks.dev", When: time.Unix(int64(1700000000+f.n*60), 0),
	}})
	require.NoError(f.t, err)
	return h
}

func (f *fixture) tag(name string, h plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, h, nil)
	require.NoError(f.t, err)
}

func TestTagsAndPreviousTag(t *testing.T) {
	f := newFixture(t)
	f.tag("v0.9.0", f.commit("feat: first playable build"))
	f.tag("v1.0.0-rc.1", f.commit("fix: shuffle seed"))
	f.tag("v1.0.0", f.commit("chore: release"))
	f.tag("nightly", f.commit("ci: nightly"))

	r, err := Open(f.dir)
	require.NoError(t, err)

	tags, err := r.Tags()
	require.NoError(t, err)
	var names []string
	for _, tg := range tags {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"v0.9.0", "v1.0.0-rc.1", "v1.0.0", "nightly"}, names)

	prev, err := r.PreviousTag("v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v0.9.0", prev, "stable notes skip prereleases")

	prev, err = r.PreviousTag("v1.0.0-rc.1")
	require.NoError(t, err)
	assert.Equal(t, "v0.9.0", prev)

	prev, err = r.PreviousTag("v0.9.0")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = r.PreviousTag("main")
	require.NoError(t, err)
	assert.Empty(t, prev)
}

func TestCommitsRange(t *testing.T) {
	f := newFixture(t)
	f.tag("v0.1.0", f.commit("feat: decks"))
	f.commit("fix: mana curve")
	f.commit("feat(server): matchmaking")

	r, err := Open(f.dir)
	require.NoError(t, err)

	commits, err := r.Commits("v0.1.0", "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "feat(server): matchmaking", commits[0].Message)

	all, err := r.Commits("", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRemoteURL(t *testing.T) {
	f := newFixture(t)
	f.commit("init")
	_, err := f.repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:kodecks/kodecks.git"}})
	require.NoError(t, err)

	r, err := Open(filepath.Join(f.dir))
	require.NoError(t, err)
	u, err := r.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:kodecks/kodecks.git", u)

	_, err = r.RemoteURL("upstream")
	assert.Error(t, err)

	sha, err := r.HeadSHA()
	require.NoError(t, err)
	assert.Len(t, sha, 7)
}

func TestVersionHelpers(t *testing.T) {
	assert.True(t, IsPrerelease("v1.2.3-rc.1"))
	assert.False(t, IsPrerelease("v1.2.3"))
	assert.False(t, IsPrerelease("main"))
	assert.Equal(t, "v1.2.3", DisplayVersion("v1.2.3"))
	assert.Equal(t, "main", DisplayVersion("main"))
	assert.True(t, IsVersionTag("v0.4.0"))
	assert.False(t, IsVersionTag("0.4.0"))
	assert.False(t, IsVersionTag("vendor"))
}
