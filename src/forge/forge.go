// Package forge is the release store: a narrow abstraction over git forges
// (GitHub, Gitea/Forgejo) and a local sqlite store. The release jobs only
// need to find or create a release for a tag and attach files to it.
package forge

import (
	"context"
	"strconv"
	"time"
)

// Provider identifies a release store.
type Provider string

const (
	GitHub  Provider = "github"
	Gitea   Provider = "gitea"
	Local   Provider = "local"
	Unknown Provider = "unknown"
)

// Forge is the interface every release store implements.
type Forge interface {
	// Provider returns which platform this forge represents.
	Provider() Provider

	// CreateRelease creates a release for opts.TagName. When one already
	// exists the error satisfies IsAlreadyExists.
	CreateRelease(ctx context.Context, opts ReleaseOptions) (*Release, error)

	// FindRelease returns the release for a tag, drafts included; the
	// oldest when there are several. A missing release satisfies IsNotFound.
	FindRelease(ctx context.Context, tag string) (*Release, error)

	// ListReleases returns every release carrying tag, drafts included,
	// oldest first. Forges that allow several drafts per tag may return
	// more than one.
	ListReleases(ctx context.Context, tag string) ([]*Release, error)

	// DeleteRelease removes a release and its attached files.
	DeleteRelease(ctx context.Context, rel *Release) error

	// ListAssets returns the files attached to a release.
	ListAssets(ctx context.Context, rel *Release) ([]AssetInfo, error)

	// UploadAsset attaches a file to an existing release. A name that is
	// already attached satisfies IsAlreadyExists.
	UploadAsset(ctx context.Context, rel *Release, asset Asset) (*AssetInfo, error)

	// DeleteAsset removes an attached file.
	DeleteAsset(ctx context.Context, rel *Release, asset AssetInfo) error
}

// ReleaseOptions configures a new release.
type ReleaseOptions struct {
	TagName       string
	Name          string
	Description   string // markdown body; ignored when GenerateNotes is set
	Draft         bool
	Prerelease    bool
	GenerateNotes bool // ask the forge to write the notes (GitHub only)
}

// Release is a release on a forge.
type Release struct {
	ID         string // platform-specific ID
	TagName    string
	Name       string
	Draft      bool
	Prerelease bool
	URL        string // web URL to the release page
	Body       string
}

// Asset is a file to attach to a release.
type Asset struct {
	Name     string // display name
	FilePath string // local file to upload
	MIMEType string // e.g., "application/x-xz"
}

// AssetInfo is an attached file.
type AssetInfo struct {
	ID          string
	Name        string
	Size        int64
	DownloadURL string
	CreatedAt   time.Time
}

// Oldest returns the release created first, by numeric ID where the IDs
// are numeric. Nil when rels is empty.
func Oldest(rels []*Release) *Release {
	var oldest *Release
	for _, r := range rels {
		if oldest == nil || olderThan(r, oldest) {
			oldest = r
		}
	}
	return oldest
}

func olderThan(a, b *Release) bool {
	ai, aerr := strconv.ParseInt(a.ID, 10, 64)
	bi, berr := strconv.ParseInt(b.ID, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a.ID < b.ID
}
