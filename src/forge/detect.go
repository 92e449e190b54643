package forge

import (
	"fmt"
	"strings"
	"time"
)

// DetectProvider determines the forge platform from a git remote URL.
func DetectProvider(remoteURL string) Provider {
	lower := strings.ToLower(remoteURL)

	switch {
	case strings.Contains(lower, "github"):
		return GitHub
	case strings.Contains(lower, "gitea") || strings.Contains(lower, "forgejo") || strings.Contains(lower, "codeberg"):
		return Gitea
	default:
		return Unknown
	}
}

// splitRemote breaks a remote URL into host and path. Handles SSH
// (git@host:path, ssh://git@host:port/path) and HTTPS (https://host/path).
func splitRemote(remoteURL string) (scheme, host, path string) {
	u := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")
	scheme = "https://"

	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "ssh://"):
		if strings.HasPrefix(u, "http://") {
			scheme = "http://"
		}
		rest := u[strings.Index(u, "://")+3:]
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		host, path, _ = strings.Cut(rest, "/")
		if strings.HasPrefix(u, "ssh://") {
			host, _, _ = strings.Cut(host, ":")
		}
	case strings.Contains(u, "@") && strings.Contains(u, ":"):
		// git@host:org/repo
		rest := u[strings.Index(u, "@")+1:]
		host, path, _ = strings.Cut(rest, ":")
	default:
		return scheme, "", u
	}
	return scheme, host, path
}

// BaseURL extracts the forge base URL from a git remote URL.
func BaseURL(remoteURL string) string {
	scheme, host, path := splitRemote(remoteURL)
	if host == "" {
		return path
	}
	return scheme + host
}

// Repository extracts "owner/repo" from a git remote URL.
func Repository(remoteURL string) string {
	_, _, path := splitRemote(remoteURL)
	return strings.Trim(path, "/")
}

// Options selects and configures a release store.
type Options struct {
	Provider   Provider // empty = detect from RemoteURL
	URL        string   // forge base URL; empty = derived from RemoteURL
	Repository string   // owner/repo; empty = CI env or RemoteURL
	RemoteURL  string
	LocalStore string // sqlite path for the local provider
}

// Open returns the release store described by opts.
func Open(opts Options) (Forge, error) {
	provider := opts.Provider
	if provider == "" {
		provider = DetectProvider(opts.RemoteURL)
		if provider == Unknown {
			// The pipeline's home is GitHub.
			provider = GitHub
		}
	}

	baseURL := opts.URL
	if baseURL == "" && opts.RemoteURL != "" {
		baseURL = BaseURL(opts.RemoteURL)
	}
	repository := opts.Repository

	switch provider {
	case GitHub:
		g := NewGitHub(baseURL, repository)
		if g.Owner == "" && opts.RemoteURL != "" {
			g.Owner, g.Repo, _ = strings.Cut(Repository(opts.RemoteURL), "/")
		}
		if g.Owner == "" || g.Repo == "" {
			return nil, fmt.Errorf("github: repository not set (release.repository or GITHUB_REPOSITORY)")
		}
		return g, nil
	case Gitea:
		if baseURL == "" {
			return nil, fmt.Errorf("gitea: base URL not set (release.url or a git remote)")
		}
		g := NewGitea(baseURL, repository)
		if g.Owner == "" && opts.RemoteURL != "" {
			g.Owner, g.Repo, _ = strings.Cut(Repository(opts.RemoteURL), "/")
		}
		if g.Owner == "" || g.Repo == "" {
			return nil, fmt.Errorf("gitea: repository not set (release.repository or CI_REPO)")
		}
		return g, nil
	case Local:
		return OpenLocal(opts.LocalStore)
	default:
		return nil, fmt.Errorf("unknown release provider %q", provider)
	}
}

// parseTime tries common timestamp formats returned by forge APIs.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05.000-07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
