package config

// ReleaseConfig controls the forge release that collects the archives.
type ReleaseConfig struct {
	// Provider is the forge: github, gitea, local. Empty = detect from
	// the git remote.
	Provider string `yaml:"provider,omitempty"`

	// URL is the forge base URL (e.g., "https://codeberg.org"). Empty =
	// derived from the git remote.
	URL string `yaml:"url,omitempty"`

	// Repository is "owner/repo". Empty = GITHUB_REPOSITORY or the remote.
	Repository string `yaml:"repository,omitempty"`

	// Draft creates the release unpublished. Default: true.
	Draft bool `yaml:"draft"`

	// Notes selects the notes source: "forge" asks the forge to generate
	// them (GitHub only), "git" renders conventional commits locally.
	Notes string `yaml:"notes"`

	// GitTags restricts which tag refs get a release (policy names, regex,
	// or !negated). Empty = every ref.
	GitTags []string `yaml:"git_tags,omitempty"`

	// LocalStore is the sqlite file backing provider "local".
	LocalStore string `yaml:"local_store"`

	// Badge is where `release badge` writes its SVG.
	Badge string `yaml:"badge"`
}

// Notes sources.
const (
	NotesForge = "forge"
	NotesGit   = "git"
)

// DefaultReleaseConfig returns draft releases with forge-generated notes.
func DefaultReleaseConfig() ReleaseConfig {
	return ReleaseConfig{
		Draft:      true,
		Notes:      NotesForge,
		LocalStore: ".kodeship/releases.db",
		Badge:      ".badges/release.svg",
	}
}
