// Package build compiles the release binaries for one target triple,
// natively or inside the cross-compilation container.
package build

import (
	"path/filepath"

	"github.com/kodecks/kodeship/src/config"
)

// Target is an immutable release matrix entry with its defaults resolved.
type Target struct {
	OS        string
	Triple    string
	Toolchain string
	Archive   string
}

// NewTarget resolves a configured matrix entry.
func NewTarget(tc config.TargetConfig) Target {
	return Target{
		OS:        tc.OS,
		Triple:    tc.Triple,
		Toolchain: tc.ResolvedToolchain(),
		Archive:   tc.ResolvedArchive(),
	}
}

// ExeSuffix is ".exe" for Windows targets.
func (t Target) ExeSuffix() string {
	if t.OS == config.OSWindows {
		return ".exe"
	}
	return ""
}

// ProfileDir maps a cargo profile to its directory under target/<triple>/.
func ProfileDir(profile string) string {
	switch profile {
	case "", "dev", "test":
		return "debug"
	case "bench":
		return "release"
	default:
		return profile
	}
}

// BinaryPath is where cargo leaves binary bin for this target and profile.
func (t Target) BinaryPath(targetDir, profile, bin string) string {
	return filepath.Join(targetDir, t.Triple, ProfileDir(profile), bin+t.ExeSuffix())
}
