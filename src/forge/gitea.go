package forge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
)

// GiteaForge implements the Forge interface for Gitea and Forgejo instances.
type GiteaForge struct {
	BaseURL string // e.g., "https://codeberg.org"
	Token   string
	Owner   string
	Repo    string
	HTTP    *http.Client
}

// NewGitea creates a Gitea/Forgejo forge client.
// Token is resolved from env: GITEA_TOKEN, FORGEJO_TOKEN.
// Repository is "owner/repo"; empty falls back to CI_REPO (Woodpecker CI)
// or GITHUB_REPOSITORY (Gitea Actions, which uses GitHub-compatible vars).
func NewGitea(baseURL, repository string) *GiteaForge {
	token := os.Getenv("GITEA_TOKEN")
	if token == "" {
		token = os.Getenv("FORGEJO_TOKEN")
	}
	for _, env := range []string{"CI_REPO", "GITHUB_REPOSITORY"} {
		if repository != "" {
			break
		}
		repository = os.Getenv(env)
	}
	owner, repo, _ := strings.Cut(repository, "/")

	return &GiteaForge{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Owner:   owner,
		Repo:    repo,
	}
}

func (g *GiteaForge) Provider() Provider { return Gitea }

func (g *GiteaForge) api() *apiClient {
	return &apiClient{
		provider: Gitea,
		http:     g.HTTP,
		auth:     "token " + g.Token,
		accept:   "application/json",
	}
}

func (g *GiteaForge) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v1/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

// Gitea's release and attachment payloads match GitHub's field names.

func (g *GiteaForge) CreateRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	// Gitea cannot generate notes; the caller supplies them.
	payload := map[string]interface{}{
		"tag_name":   opts.TagName,
		"name":       opts.Name,
		"body":       opts.Description,
		"draft":      opts.Draft,
		"prerelease": opts.Prerelease,
	}

	var resp githubRelease
	if err := g.api().doJSON(ctx, http.MethodPost, g.apiURL("/releases"), payload, &resp); err != nil {
		return nil, err
	}
	return resp.release(), nil
}

// FindRelease returns the oldest release for tag. The list endpoint
// returns drafts and published releases alike when no draft filter is set.
func (g *GiteaForge) FindRelease(ctx context.Context, tag string) (*Release, error) {
	rels, err := g.ListReleases(ctx, tag)
	if err != nil {
		return nil, err
	}
	if rel := Oldest(rels); rel != nil {
		return rel, nil
	}
	return nil, fmt.Errorf("gitea release %q: %w", tag, ErrNotFound)
}

func (g *GiteaForge) ListReleases(ctx context.Context, tag string) ([]*Release, error) {
	const limit = 50
	var out []*Release
	for page := 1; ; page++ {
		var releases []githubRelease
		u := fmt.Sprintf("%s?limit=%d&page=%d", g.apiURL("/releases"), limit, page)
		if err := g.api().doJSON(ctx, http.MethodGet, u, nil, &releases); err != nil {
			return nil, err
		}
		for _, r := range releases {
			if r.TagName == tag {
				out = append(out, r.release())
			}
		}
		if len(releases) < limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return olderThan(out[i], out[j]) })
	return out, nil
}

func (g *GiteaForge) DeleteRelease(ctx context.Context, rel *Release) error {
	return g.api().doJSON(ctx, http.MethodDelete, g.apiURL("/releases/"+rel.ID), nil, nil)
}

func (g *GiteaForge) ListAssets(ctx context.Context, rel *Release) ([]AssetInfo, error) {
	var assets []githubAsset
	if err := g.api().doJSON(ctx, http.MethodGet, g.apiURL("/releases/"+rel.ID+"/assets"), nil, &assets); err != nil {
		return nil, err
	}
	out := make([]AssetInfo, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.info())
	}
	return out, nil
}

func (g *GiteaForge) UploadAsset(ctx context.Context, rel *Release, asset Asset) (*AssetInfo, error) {
	f, err := os.Open(asset.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("attachment", asset.Name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	uploadURL := g.apiURL(fmt.Sprintf("/releases/%s/assets?name=%s", rel.ID, url.QueryEscape(asset.Name)))
	api := g.api()
	req, err := api.newRequest(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp githubAsset
	if err := api.do(req, &resp); err != nil {
		return nil, err
	}
	info := resp.info()
	return &info, nil
}

func (g *GiteaForge) DeleteAsset(ctx context.Context, rel *Release, asset AssetInfo) error {
	return g.api().doJSON(ctx, http.MethodDelete, g.apiURL("/releases/"+rel.ID+"/assets/"+asset.ID), nil, nil)
}
