package forge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLocal(t *testing.T) *LocalForge {
	t.Helper()
	l, err := OpenLocal(filepath.Join(t.TempDir(), "releases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLocalCreateOncePerTag(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, exists := 0, 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case IsAlreadyExists(err):
				exists++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 2, exists)

	rel, err := l.FindRelease(ctx, "v1.2.3")
	require.NoError(t, err)
	assert.True(t, rel.Draft)
}

func TestLocalFindMissing(t *testing.T) {
	l := openTestLocal(t)
	_, err := l.FindRelease(context.Background(), "v0.0.1")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestLocalAssets(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	rel, err := l.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "kodecks-x86_64-pc-windows-msvc.zip")
	require.NoError(t, os.WriteFile(file, []byte("zipdata"), 0o644))

	info, err := l.UploadAsset(ctx, rel, Asset{Name: filepath.Base(file), FilePath: file})
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)

	_, err = l.UploadAsset(ctx, rel, Asset{Name: filepath.Base(file), FilePath: file})
	assert.True(t, IsAlreadyExists(err), "got %v", err)

	assets, err := l.ListAssets(ctx, rel)
	require.NoError(t, err)
	require.Len(t, assets, 1)

	require.NoError(t, l.DeleteAsset(ctx, rel, assets[0]))
	assets, err = l.ListAssets(ctx, rel)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestLocalFailedCopyReleasesName(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	rel, err := l.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "kodecks-aarch64-apple-darwin.tar.xz")
	_, err = l.UploadAsset(ctx, rel, Asset{Name: filepath.Base(missing), FilePath: missing})
	require.Error(t, err)
	assert.False(t, IsAlreadyExists(err))

	require.NoError(t, os.WriteFile(missing, []byte("xz"), 0o644))
	_, err = l.UploadAsset(ctx, rel, Asset{Name: filepath.Base(missing), FilePath: missing})
	require.NoError(t, err, "the failed upload must not keep the name claimed")
}

func TestLocalListAndDeleteRelease(t *testing.T) {
	l := openTestLocal(t)
	ctx := context.Background()

	rel, err := l.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "kodecks.zip")
	require.NoError(t, os.WriteFile(file, []byte("zip"), 0o644))
	info, err := l.UploadAsset(ctx, rel, Asset{Name: "kodecks.zip", FilePath: file})
	require.NoError(t, err)

	rels, err := l.ListReleases(ctx, "v1.2.3")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, rel.ID, rels[0].ID)

	require.NoError(t, l.DeleteRelease(ctx, rel))
	rels, err = l.ListReleases(ctx, "v1.2.3")
	require.NoError(t, err)
	assert.Empty(t, rels)
	assert.NoFileExists(t, filepath.Join(l.dir, "v1.2.3", info.Name))

	assert.True(t, IsNotFound(l.DeleteRelease(ctx, rel)))
}
