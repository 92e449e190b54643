package config

// BuildConfig controls how release binaries are compiled.
type BuildConfig struct {
	// Profile is the cargo profile used for release builds.
	Profile string `yaml:"profile"`

	// Packages are the workspace packages passed as -p flags.
	Packages []string `yaml:"packages"`

	// Features are enabled with --features. embed_assets bakes the asset
	// bundle into the binary; without it the bundle travels alongside.
	Features []string `yaml:"features"`

	// Binaries are the produced executables, one archive each. Empty means
	// discover them from the packages' Cargo manifests.
	Binaries []string `yaml:"binaries,omitempty"`

	// TargetDir is cargo's output root. Default: "target".
	TargetDir string `yaml:"target_dir"`

	// OutDir receives the archives. Default: "dist/release".
	OutDir string `yaml:"out_dir"`

	// Timeout bounds each build/fetch/archive step (Go duration string).
	Timeout string `yaml:"timeout"`
}

// EmbedAssetsFeature is the cargo feature that embeds the asset bundle.
const EmbedAssetsFeature = "embed_assets"

// EmbedsAssets reports whether the configured feature set embeds assets.
func (b BuildConfig) EmbedsAssets() bool {
	for _, f := range b.Features {
		if f == EmbedAssetsFeature {
			return true
		}
	}
	return false
}

// DefaultBuildConfig returns the distribution build of client and server.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Profile:   "distribution",
		Packages:  []string{"kodecks-bevy", "kodecks-server"},
		Features:  []string{EmbedAssetsFeature},
		Binaries:  []string{"kodecks", "kodecks-server"},
		TargetDir: "target",
		OutDir:    "dist/release",
		Timeout:   "90m",
	}
}

// AssetsConfig locates the external asset fetch scripts and their output.
type AssetsConfig struct {
	// Script is the POSIX shell fetch script (Linux, macOS).
	Script string `yaml:"script"`

	// PowerShellScript is the fetch script used on Windows.
	PowerShellScript string `yaml:"powershell_script"`

	// Dir is the workspace-relative asset directory the scripts populate.
	Dir string `yaml:"dir"`

	// Env is the variable that points the builder at the asset directory.
	Env string `yaml:"env"`

	// ContainerDir is the asset path as seen inside the cross-compilation
	// container, where the workspace is mounted at /project.
	ContainerDir string `yaml:"container_dir"`
}

// DefaultAssetsConfig returns the kodecks asset layout.
func DefaultAssetsConfig() AssetsConfig {
	return AssetsConfig{
		Script:           "scripts/download.sh",
		PowerShellScript: "scripts/download.ps1",
		Dir:              "assets",
		Env:              "ASSET_PATH",
		ContainerDir:     "/project/assets",
	}
}
