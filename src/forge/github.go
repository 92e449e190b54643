package forge

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// GitHubForge implements the Forge interface for GitHub and GitHub Enterprise.
type GitHubForge struct {
	BaseURL   string // "https://api.github.com" or "https://ghes.example.com/api/v3"
	UploadURL string // asset upload base; derived from BaseURL when empty
	Token     string
	Owner     string
	Repo      string
	HTTP      *http.Client

	// releases caches tag lookups. The three release jobs of one matrix
	// run share a process and look up the same tag.
	releases *cache.Cache
}

// NewGitHub creates a GitHub forge client.
// Token is resolved from env: GITHUB_TOKEN, GH_TOKEN.
// Repository is "owner/repo"; empty falls back to GITHUB_REPOSITORY.
func NewGitHub(baseURL, repository string) *GitHubForge {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if repository == "" {
		repository = os.Getenv("GITHUB_REPOSITORY")
	}
	owner, repo, _ := strings.Cut(repository, "/")

	apiBase := "https://api.github.com"
	if baseURL != "" && !strings.Contains(baseURL, "github.com") {
		// GitHub Enterprise Server
		apiBase = strings.TrimRight(baseURL, "/") + "/api/v3"
	}

	return &GitHubForge{
		BaseURL:  apiBase,
		Token:    token,
		Owner:    owner,
		Repo:     repo,
		releases: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (g *GitHubForge) Provider() Provider { return GitHub }

func (g *GitHubForge) api() *apiClient {
	return &apiClient{
		provider: GitHub,
		http:     g.HTTP,
		auth:     "Bearer " + g.Token,
		accept:   "application/vnd.github+json",
	}
}

func (g *GitHubForge) apiURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

// uploadBaseURL returns the upload API base for asset uploads.
// github.com uses uploads.github.com; GHES uses {host}/api/uploads.
func (g *GitHubForge) uploadBaseURL() string {
	if g.UploadURL != "" {
		return strings.TrimRight(g.UploadURL, "/")
	}
	if strings.Contains(g.BaseURL, "api.github.com") {
		return "https://uploads.github.com"
	}
	return strings.Replace(g.BaseURL, "/api/v3", "/api/uploads", 1)
}

type githubRelease struct {
	ID         int64  `json:"id"`
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	HTMLURL    string `json:"html_url"`
	Body       string `json:"body"`
}

func (r githubRelease) release() *Release {
	return &Release{
		ID:         strconv.FormatInt(r.ID, 10),
		TagName:    r.TagName,
		Name:       r.Name,
		Draft:      r.Draft,
		Prerelease: r.Prerelease,
		URL:        r.HTMLURL,
		Body:       r.Body,
	}
}

type githubAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	CreatedAt          string `json:"created_at"`
}

func (a githubAsset) info() AssetInfo {
	info := AssetInfo{
		ID:          strconv.FormatInt(a.ID, 10),
		Name:        a.Name,
		Size:        a.Size,
		DownloadURL: a.BrowserDownloadURL,
	}
	if t, err := parseTime(a.CreatedAt); err == nil {
		info.CreatedAt = t
	}
	return info
}

func (g *GitHubForge) CreateRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	payload := map[string]interface{}{
		"tag_name":   opts.TagName,
		"name":       opts.Name,
		"draft":      opts.Draft,
		"prerelease": opts.Prerelease,
	}
	if opts.GenerateNotes {
		payload["generate_release_notes"] = true
	} else {
		payload["body"] = opts.Description
	}

	var resp githubRelease
	if err := g.api().doJSON(ctx, http.MethodPost, g.apiURL("/releases"), payload, &resp); err != nil {
		return nil, err
	}

	return resp.release(), nil
}

// FindRelease looks the tag up among published releases first, then among
// all releases: the tags endpoint does not return drafts. GitHub accepts
// several drafts for one tag; the oldest is the one returned.
func (g *GitHubForge) FindRelease(ctx context.Context, tag string) (*Release, error) {
	if g.releases != nil {
		if cached, ok := g.releases.Get(g.cacheKey(tag)); ok {
			return cached.(*Release), nil
		}
	}

	var resp githubRelease
	err := g.api().doJSON(ctx, http.MethodGet, g.apiURL("/releases/tags/"+url.PathEscape(tag)), nil, &resp)
	if err == nil {
		rel := resp.release()
		g.remember(rel)
		return rel, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	rels, err := g.ListReleases(ctx, tag)
	if err != nil {
		return nil, err
	}
	rel := Oldest(rels)
	if rel == nil {
		return nil, fmt.Errorf("github release %q: %w", tag, ErrNotFound)
	}
	g.remember(rel)
	return rel, nil
}

// ListReleases pages through every release and keeps those for tag,
// ordered by ID.
func (g *GitHubForge) ListReleases(ctx context.Context, tag string) ([]*Release, error) {
	var matched []githubRelease
	for page := 1; ; page++ {
		var releases []githubRelease
		u := fmt.Sprintf("%s?per_page=100&page=%d", g.apiURL("/releases"), page)
		if err := g.api().doJSON(ctx, http.MethodGet, u, nil, &releases); err != nil {
			return nil, err
		}
		for _, r := range releases {
			if r.TagName == tag {
				matched = append(matched, r)
			}
		}
		if len(releases) < 100 {
			break
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	out := make([]*Release, 0, len(matched))
	for _, r := range matched {
		out = append(out, r.release())
	}
	return out, nil
}

func (g *GitHubForge) DeleteRelease(ctx context.Context, rel *Release) error {
	if err := g.api().doJSON(ctx, http.MethodDelete, g.apiURL("/releases/"+rel.ID), nil, nil); err != nil {
		return err
	}
	if g.releases != nil {
		if cached, ok := g.releases.Get(g.cacheKey(rel.TagName)); ok && cached.(*Release).ID == rel.ID {
			g.releases.Delete(g.cacheKey(rel.TagName))
		}
	}
	return nil
}

func (g *GitHubForge) cacheKey(tag string) string {
	return g.Owner + "/" + g.Repo + "@" + tag
}

func (g *GitHubForge) remember(rel *Release) {
	if g.releases != nil && rel.TagName != "" {
		g.releases.Set(g.cacheKey(rel.TagName), rel, cache.DefaultExpiration)
	}
}

func (g *GitHubForge) ListAssets(ctx context.Context, rel *Release) ([]AssetInfo, error) {
	var all []AssetInfo
	for page := 1; ; page++ {
		var assets []githubAsset
		u := fmt.Sprintf("%s?per_page=100&page=%d", g.apiURL("/releases/"+rel.ID+"/assets"), page)
		if err := g.api().doJSON(ctx, http.MethodGet, u, nil, &assets); err != nil {
			return all, err
		}
		for _, a := range assets {
			all = append(all, a.info())
		}
		if len(assets) < 100 {
			return all, nil
		}
	}
}

func (g *GitHubForge) UploadAsset(ctx context.Context, rel *Release, asset Asset) (*AssetInfo, error) {
	f, err := os.Open(asset.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%s/assets?name=%s",
		g.uploadBaseURL(), g.Owner, g.Repo, rel.ID, url.QueryEscape(asset.Name))

	api := g.api()
	req, err := api.newRequest(ctx, http.MethodPost, uploadURL, f)
	if err != nil {
		return nil, err
	}
	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", mimeType(asset))

	var resp githubAsset
	if err := api.do(req, &resp); err != nil {
		return nil, err
	}
	info := resp.info()
	return &info, nil
}

func (g *GitHubForge) DeleteAsset(ctx context.Context, _ *Release, asset AssetInfo) error {
	return g.api().doJSON(ctx, http.MethodDelete, g.apiURL("/releases/assets/"+asset.ID), nil, nil)
}

// mimeType picks the upload content type from the asset or its extension.
func mimeType(asset Asset) string {
	if asset.MIMEType != "" {
		return asset.MIMEType
	}
	switch {
	case strings.HasSuffix(asset.FilePath, ".tar.xz"):
		return "application/x-xz"
	case strings.HasSuffix(asset.FilePath, ".zip"):
		return "application/zip"
	}
	if t := mime.TypeByExtension(filepath.Ext(asset.FilePath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
