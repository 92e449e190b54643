package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Version ───────────────────────────────────────────────────────────

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("version: must be 1, got %d", cfg.Version))
	}

	// ── Policies and filters ──────────────────────────────────────────────

	for name := range cfg.Policies.GitTags {
		if !isIdentifier(name) {
			errs = append(errs, fmt.Sprintf("policies.git_tags: key %q is not a valid identifier", name))
		}
	}
	for name := range cfg.Policies.Branches {
		if !isIdentifier(name) {
			errs = append(errs, fmt.Sprintf("policies.branches: key %q is not a valid identifier", name))
		}
	}

	filters := []struct {
		path     string
		entries  []string
		policies map[string]string
	}{
		{"triggers.branches", cfg.Triggers.Branches, cfg.Policies.Branches},
		{"triggers.tags", cfg.Triggers.Tags, cfg.Policies.GitTags},
		{"release.git_tags", cfg.Release.GitTags, cfg.Policies.GitTags},
	}
	for _, f := range filters {
		_, warns, ferr := CompileFilter(f.entries, f.policies)
		for _, w := range warns {
			warnings = append(warnings, fmt.Sprintf("%s: %s", f.path, w))
		}
		if ferr != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f.path, ferr))
		}
	}
	if len(cfg.Triggers.Branches) == 0 {
		errs = append(errs, "triggers.branches: at least one main-line branch is required")
	}

	// ── Build ─────────────────────────────────────────────────────────────

	if cfg.Build.Profile == "" {
		errs = append(errs, "build.profile: is required")
	}
	if len(cfg.Build.Packages) == 0 {
		errs = append(errs, "build.packages: at least one package is required")
	}
	if cfg.Build.Timeout != "" {
		if d, perr := time.ParseDuration(cfg.Build.Timeout); perr != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("build.timeout: %q is not a positive duration", cfg.Build.Timeout))
		}
	}
	seenBin := map[string]bool{}
	for _, b := range cfg.Build.Binaries {
		if b == "" || strings.ContainsAny(b, `/\`) {
			errs = append(errs, fmt.Sprintf("build.binaries: %q is not a valid binary name", b))
		}
		if seenBin[b] {
			errs = append(errs, fmt.Sprintf("build.binaries: duplicate binary %q", b))
		}
		seenBin[b] = true
	}

	// ── Targets ───────────────────────────────────────────────────────────

	if len(cfg.Targets) == 0 {
		errs = append(errs, "targets: at least one target is required")
	}
	seenTriple := map[string]bool{}
	for i, t := range cfg.Targets {
		tpath := fmt.Sprintf("targets[%d]", i)

		if !validOS[t.OS] {
			errs = append(errs, fmt.Sprintf("%s: unknown os %q (supported: %s)", tpath, t.OS, joinKeys(validOS)))
		}
		if t.Triple == "" {
			errs = append(errs, fmt.Sprintf("%s: triple is required", tpath))
		} else if seenTriple[t.Triple] {
			errs = append(errs, fmt.Sprintf("%s: duplicate triple %q", tpath, t.Triple))
		}
		seenTriple[t.Triple] = true

		switch t.ResolvedToolchain() {
		case ToolchainCross, ToolchainCargo:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown toolchain %q (supported: cargo, cross)", tpath, t.Toolchain))
		}

		switch t.ResolvedArchive() {
		case ArchiveTarXz, ArchiveZip:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown archive format %q (supported: tar.xz, zip)", tpath, t.Archive))
		}
		if t.OS == OSWindows && t.ResolvedArchive() != ArchiveZip {
			errs = append(errs, fmt.Sprintf("%s: windows targets must use zip archives", tpath))
		}
		if t.OS != OSWindows && t.ResolvedArchive() == ArchiveZip {
			errs = append(errs, fmt.Sprintf("%s: %s targets must use tar.xz archives", tpath, t.OS))
		}
		if t.OS != OSLinux && t.ResolvedToolchain() == ToolchainCross {
			warnings = append(warnings, fmt.Sprintf("%s: cross toolchain on %s; the host toolchain already matches the target", tpath, t.OS))
		}
	}

	// ── Assets ────────────────────────────────────────────────────────────

	if cfg.Assets.Dir == "" {
		errs = append(errs, "assets.dir: is required")
	} else if filepath.IsAbs(cfg.Assets.Dir) || strings.Contains(cfg.Assets.Dir, "..") {
		errs = append(errs, fmt.Sprintf("assets.dir: %q must be workspace-relative", cfg.Assets.Dir))
	}
	if cfg.Assets.Env == "" {
		errs = append(errs, "assets.env: is required")
	}
	if cfg.Assets.ContainerDir != "" && !strings.HasPrefix(cfg.Assets.ContainerDir, "/") {
		errs = append(errs, fmt.Sprintf("assets.container_dir: %q must be absolute", cfg.Assets.ContainerDir))
	}

	// ── Release ───────────────────────────────────────────────────────────

	switch cfg.Release.Provider {
	case "", "github", "gitea", "local":
	default:
		errs = append(errs, fmt.Sprintf("release.provider: unknown provider %q (supported: github, gitea, local)", cfg.Release.Provider))
	}
	switch cfg.Release.Notes {
	case NotesForge, NotesGit:
	default:
		errs = append(errs, fmt.Sprintf("release.notes: unknown notes source %q (supported: forge, git)", cfg.Release.Notes))
	}
	if cfg.Release.Repository != "" && strings.Count(cfg.Release.Repository, "/") != 1 {
		errs = append(errs, fmt.Sprintf("release.repository: %q must be owner/repo", cfg.Release.Repository))
	}

	// ── Web ───────────────────────────────────────────────────────────────

	if cfg.Web.Project == "" {
		errs = append(errs, "web.project: is required")
	}
	if cfg.Web.Dist == "" {
		errs = append(errs, "web.dist: is required")
	}
	if cfg.Web.TokenEnv == "" || cfg.Web.AccountEnv == "" {
		errs = append(errs, "web: token_env and account_env are required")
	}

	// ── Gate ──────────────────────────────────────────────────────────────

	for i, os := range cfg.Gate.OS {
		if !validOS[os] {
			errs = append(errs, fmt.Sprintf("gate.os[%d]: unknown os %q", i, os))
		}
	}
	for name, argv := range map[string][]string{"build": cfg.Gate.Build, "test": cfg.Gate.Test, "lint": cfg.Gate.Lint} {
		if len(argv) == 0 {
			errs = append(errs, fmt.Sprintf("gate.%s: command is required", name))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// StepTimeout returns the parsed build.timeout, or zero when unset.
func (c *Config) StepTimeout() time.Duration {
	d, err := time.ParseDuration(c.Build.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func joinKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
