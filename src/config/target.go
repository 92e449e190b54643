package config

import "runtime"

// TargetConfig is one entry of the release matrix: an operating system
// family and the target triple built on it.
type TargetConfig struct {
	// OS is the family: linux, macos, windows.
	OS string `yaml:"os"`

	// Triple is the rust target triple, e.g. x86_64-unknown-linux-gnu.
	Triple string `yaml:"triple"`

	// Toolchain is "cross" (containerized) or "cargo" (native).
	// Default: cross on linux, cargo elsewhere.
	Toolchain string `yaml:"toolchain,omitempty"`

	// Archive is "tar.xz" or "zip". Default: zip on windows, tar.xz elsewhere.
	Archive string `yaml:"archive,omitempty"`

	// Runner is the CI image the job runs on (informational, shown by plan).
	Runner string `yaml:"runner,omitempty"`
}

// Supported OS families.
const (
	OSLinux   = "linux"
	OSMacOS   = "macos"
	OSWindows = "windows"
)

// Toolchain modes.
const (
	ToolchainCross = "cross"
	ToolchainCargo = "cargo"
)

// Archive formats.
const (
	ArchiveTarXz = "tar.xz"
	ArchiveZip   = "zip"
)

var validOS = map[string]bool{
	OSLinux:   true,
	OSMacOS:   true,
	OSWindows: true,
}

// ResolvedToolchain returns the configured toolchain or the per-OS default.
func (t TargetConfig) ResolvedToolchain() string {
	if t.Toolchain != "" {
		return t.Toolchain
	}
	if t.OS == OSLinux {
		return ToolchainCross
	}
	return ToolchainCargo
}

// ResolvedArchive returns the configured archive format or the per-OS default.
func (t TargetConfig) ResolvedArchive() string {
	if t.Archive != "" {
		return t.Archive
	}
	if t.OS == OSWindows {
		return ArchiveZip
	}
	return ArchiveTarXz
}

// DefaultTargets returns the three-platform kodecks release matrix.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{OS: OSLinux, Triple: "x86_64-unknown-linux-gnu", Runner: "ubuntu-latest"},
		{OS: OSMacOS, Triple: "aarch64-apple-darwin", Runner: "macos-latest"},
		{OS: OSWindows, Triple: "x86_64-pc-windows-msvc", Runner: "windows-latest"},
	}
}

// FindTarget returns the target with the given triple.
func (c *Config) FindTarget(triple string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Triple == triple {
			return t, true
		}
	}
	return TargetConfig{}, false
}

// TargetsForOS returns every target built on the given OS family.
func (c *Config) TargetsForOS(os string) []TargetConfig {
	var out []TargetConfig
	for _, t := range c.Targets {
		if t.OS == os {
			out = append(out, t)
		}
	}
	return out
}

// HostOS maps the running platform to its OS family name.
func HostOS() string {
	switch runtime.GOOS {
	case "darwin":
		return OSMacOS
	case "windows":
		return OSWindows
	default:
		return OSLinux
	}
}
