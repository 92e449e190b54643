package config

// PoliciesConfig defines named regex patterns for git tag and branch matching.
// Policy names are referenced by trigger and release filters
// (e.g., branches: [main]) and resolved to regex patterns during evaluation.
type PoliciesConfig struct {
	// GitTags maps policy names to regex patterns for git tag matching.
	// e.g., "stable": "^v\\d+\\.\\d+\\.\\d+$"
	GitTags map[string]string `yaml:"git_tags"`

	// Branches maps policy names to regex patterns for branch matching.
	// e.g., "main": "^main$"
	Branches map[string]string `yaml:"branches"`
}

// DefaultPoliciesConfig returns the policies every kodecks pipeline relies on.
func DefaultPoliciesConfig() PoliciesConfig {
	return PoliciesConfig{
		GitTags: map[string]string{
			"semver": `^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`,
		},
		Branches: map[string]string{
			"main": "^main$",
		},
	}
}

// TriggersConfig decides which events count as "main line" work.
type TriggersConfig struct {
	// Branches lists main-line branch filters (policy names, regex, or !negated).
	// A push to a matching branch, or a pull request targeting one, triggers jobs.
	Branches []string `yaml:"branches"`

	// Tags lists tag filters. A tag push matching one counts as a main-line push.
	// Empty = every tag counts.
	Tags []string `yaml:"tags"`
}

// DefaultTriggersConfig returns the main-only trigger set.
func DefaultTriggersConfig() TriggersConfig {
	return TriggersConfig{
		Branches: []string{"main"},
	}
}
