package config

// WebConfig controls the WASM build and the static-site deploy.
type WebConfig struct {
	// Target is the WASM triple.
	Target string `yaml:"target"`

	// Dist is the static output directory produced by trunk.
	Dist string `yaml:"dist"`

	// ReleaseProfile is the cargo profile for main-line builds.
	ReleaseProfile string `yaml:"release_profile"`

	// Project is the hosting project name the site is published under.
	Project string `yaml:"project"`

	// Branch is the production branch name passed to the deploy.
	Branch string `yaml:"branch"`

	// TokenEnv and AccountEnv name the deploy credential variables.
	TokenEnv   string `yaml:"token_env"`
	AccountEnv string `yaml:"account_env"`

	// ScanSecrets runs a secret scan over Dist before deploying.
	ScanSecrets bool `yaml:"scan_secrets"`
}

// DefaultWebConfig returns the kodecks Cloudflare Pages setup.
func DefaultWebConfig() WebConfig {
	return WebConfig{
		Target:         "wasm32-unknown-unknown",
		Dist:           "dist",
		ReleaseProfile: "distribution",
		Project:        "kodecks",
		Branch:         "main",
		TokenEnv:       "CLOUDFLARE_API_TOKEN",
		AccountEnv:     "CLOUDFLARE_ACCOUNT_ID",
		ScanSecrets:    true,
	}
}

// GateConfig controls the build/test/lint merge gate.
type GateConfig struct {
	// OS lists the families the gate runs on.
	OS []string `yaml:"os"`

	// LinuxPackages are apt packages installed before building on Linux
	// (audio and device libraries the client links against).
	LinuxPackages []string `yaml:"linux_packages"`

	// Commands override the default cargo invocations per stage.
	Build []string `yaml:"build,omitempty"`
	Test  []string `yaml:"test,omitempty"`
	Lint  []string `yaml:"lint,omitempty"`
}

// DefaultGateConfig returns the three-OS gate.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		OS:            []string{OSLinux, OSMacOS, OSWindows},
		LinuxPackages: []string{"libasound2-dev", "libudev-dev"},
		Build:         []string{"cargo", "build", "--verbose"},
		Test:          []string{"cargo", "test", "--all-features", "--verbose"},
		Lint:          []string{"cargo", "clippy", "--all-features", "--", "-D", "warnings"},
	}
}
