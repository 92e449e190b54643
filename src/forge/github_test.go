package forge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the release endpoints the publisher uses, with the
// real API's quirks: any number of drafts per tag, 422 already_exists
// only against a published release, and the tags endpoint hiding drafts.
type fakeGitHub struct {
	mu       sync.Mutex
	nextID   int64
	releases []githubRelease
	assets   map[int64][]githubAsset
	creates  []map[string]interface{}
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *GitHubForge) {
	t.Helper()
	f := &fakeGitHub{assets: map[int64][]githubAsset{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, &GitHubForge{BaseURL: srv.URL, Token: "t", Owner: "kodecks", Repo: "kodecks", HTTP: srv.Client()}
}

func (f *fakeGitHub) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/repos/kodecks/kodecks")
	writeJSON := func(code int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.Method == http.MethodPost && path == "/releases":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.creates = append(f.creates, body)
		tag := body["tag_name"].(string)
		for _, rel := range f.releases {
			if rel.TagName == tag && !rel.Draft {
				writeJSON(422, map[string]interface{}{
					"message": "Validation Failed",
					"errors":  []map[string]string{{"resource": "Release", "code": "already_exists", "field": "tag_name"}},
				})
				return
			}
		}
		f.nextID++
		rel := githubRelease{ID: f.nextID, TagName: tag, Name: tag, Draft: body["draft"] == true}
		f.releases = append(f.releases, rel)
		writeJSON(201, rel)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/releases/tags/"):
		tag := strings.TrimPrefix(path, "/releases/tags/")
		for _, rel := range f.releases {
			if rel.TagName == tag && !rel.Draft {
				writeJSON(200, rel)
				return
			}
		}
		writeJSON(404, map[string]string{"message": "Not Found"})

	case r.Method == http.MethodGet && path == "/releases":
		writeJSON(200, f.releases)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/assets"):
		data, _ := io.ReadAll(r.Body)
		var id int64
		for _, rel := range f.releases {
			if path == "/releases/"+itoa(rel.ID)+"/assets" {
				id = rel.ID
			}
		}
		name := r.URL.Query().Get("name")
		for _, a := range f.assets[id] {
			if a.Name == name {
				writeJSON(422, map[string]interface{}{
					"message": "Validation Failed",
					"errors":  []map[string]string{{"resource": "ReleaseAsset", "code": "already_exists", "field": "name"}},
				})
				return
			}
		}
		a := githubAsset{ID: int64(100 + len(f.assets[id])), Name: name, Size: int64(len(data))}
		f.assets[id] = append(f.assets[id], a)
		writeJSON(201, a)

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/assets"):
		for _, rel := range f.releases {
			if path == "/releases/"+itoa(rel.ID)+"/assets" {
				writeJSON(200, f.assets[rel.ID])
				return
			}
		}
		writeJSON(404, map[string]string{"message": "Not Found"})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/releases/assets/"):
		id := strings.TrimPrefix(path, "/releases/assets/")
		for rid, list := range f.assets {
			for i, a := range list {
				if itoa(a.ID) == id {
					f.assets[rid] = append(list[:i], list[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
		}
		writeJSON(404, map[string]string{"message": "Not Found"})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/releases/"):
		id := strings.TrimPrefix(path, "/releases/")
		for i, rel := range f.releases {
			if itoa(rel.ID) == id {
				f.releases = append(f.releases[:i], f.releases[i+1:]...)
				delete(f.assets, rel.ID)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(404, map[string]string{"message": "Not Found"})

	default:
		writeJSON(404, map[string]string{"message": "Not Found"})
	}
}

func itoa(i int64) string { return strconv.FormatInt(i, 10) }

func (f *fakeGitHub) publish(tag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.releases {
		if f.releases[i].TagName == tag {
			f.releases[i].Draft = false
		}
	}
}

func TestGitHubCreateReleaseGeneratesNotes(t *testing.T) {
	fake, gh := newFakeGitHub(t)

	rel, err := gh.CreateRelease(context.Background(), ReleaseOptions{TagName: "v1.2.3", Name: "v1.2.3", Draft: true, GenerateNotes: true})
	require.NoError(t, err)
	assert.True(t, rel.Draft)
	assert.Equal(t, "1", rel.ID)

	require.Len(t, fake.creates, 1)
	assert.Equal(t, true, fake.creates[0]["generate_release_notes"])
	assert.Equal(t, true, fake.creates[0]["draft"])
	_, hasBody := fake.creates[0]["body"]
	assert.False(t, hasBody)
}

func TestGitHubCreateReleaseAlreadyExists(t *testing.T) {
	fake, gh := newFakeGitHub(t)
	ctx := context.Background()

	_, err := gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)
	fake.publish("v1.2.3")

	_, err = gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err), "got %v", err)
	assert.False(t, IsNotFound(err))
}

func TestGitHubFindReleaseSeesDrafts(t *testing.T) {
	_, gh := newFakeGitHub(t)
	ctx := context.Background()

	_, err := gh.FindRelease(ctx, "v1.2.3")
	assert.True(t, IsNotFound(err), "got %v", err)

	_, err = gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)

	rel, err := gh.FindRelease(ctx, "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", rel.TagName)
	assert.True(t, rel.Draft)
}

func TestGitHubAcceptsDuplicateDrafts(t *testing.T) {
	fake, gh := newFakeGitHub(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rel, err := gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
		require.NoError(t, err, "drafts do not reserve the tag")
		ids = append(ids, rel.ID)
	}
	_, err := gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.3.0", Draft: true})
	require.NoError(t, err)

	rels, err := gh.ListReleases(ctx, "v1.2.3")
	require.NoError(t, err)
	require.Len(t, rels, 3)
	for i, rel := range rels {
		assert.Equal(t, ids[i], rel.ID)
	}

	found, err := gh.FindRelease(ctx, "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, ids[0], found.ID, "the oldest draft wins")

	require.NoError(t, gh.DeleteRelease(ctx, rels[2]))
	rels, err = gh.ListReleases(ctx, "v1.2.3")
	require.NoError(t, err)
	assert.Len(t, rels, 2)
	assert.Len(t, fake.releases, 3)
}

func TestGitHubDeleteEvictsCachedRelease(t *testing.T) {
	_, gh := newFakeGitHub(t)
	gh.releases = cache.New(time.Minute, time.Minute)
	ctx := context.Background()

	rel, err := gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)
	_, err = gh.FindRelease(ctx, "v1.2.3")
	require.NoError(t, err)

	require.NoError(t, gh.DeleteRelease(ctx, rel))
	_, err = gh.FindRelease(ctx, "v1.2.3")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestGitHubUploadAndListAssets(t *testing.T) {
	_, gh := newFakeGitHub(t)
	ctx := context.Background()

	rel, err := gh.CreateRelease(ctx, ReleaseOptions{TagName: "v1.2.3", Draft: true})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "kodecks-x86_64-unknown-linux-gnu.tar.xz")
	require.NoError(t, os.WriteFile(file, []byte("xz-data"), 0o644))

	info, err := gh.UploadAsset(ctx, rel, Asset{Name: filepath.Base(file), FilePath: file})
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)

	_, err = gh.UploadAsset(ctx, rel, Asset{Name: filepath.Base(file), FilePath: file})
	assert.True(t, IsAlreadyExists(err), "got %v", err)

	assets, err := gh.ListAssets(ctx, rel)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "kodecks-x86_64-unknown-linux-gnu.tar.xz", assets[0].Name)
}

func TestOldest(t *testing.T) {
	assert.Nil(t, Oldest(nil))
	assert.Equal(t, "9", Oldest([]*Release{{ID: "10"}, {ID: "9"}, {ID: "11"}}).ID)
	assert.Equal(t, "a1", Oldest([]*Release{{ID: "b2"}, {ID: "a1"}}).ID)
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{
		Provider:   GitHub,
		Method:     "POST",
		URL:        "https://api.github.com/repos/o/r/releases",
		StatusCode: 422,
		Message:    "Validation Failed",
		Errors:     []ValidationError{{Resource: "Release", Field: "tag_name", Code: "already_exists"}},
	}
	assert.Equal(t, "github API POST https://api.github.com/repos/o/r/releases: HTTP 422: Validation Failed; Release.tag_name: already_exists", err.Error())
	assert.True(t, IsAlreadyExists(err))

	other := &APIError{StatusCode: 422, Errors: []ValidationError{{Code: "invalid"}}}
	assert.False(t, IsAlreadyExists(other))
	assert.True(t, IsAlreadyExists(&APIError{StatusCode: 409}))
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/x-xz", mimeType(Asset{FilePath: "a.tar.xz"}))
	assert.Equal(t, "application/zip", mimeType(Asset{FilePath: "a.zip"}))
	assert.Equal(t, "text/plain", mimeType(Asset{FilePath: "a.zip", MIMEType: "text/plain"}))
}
