package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Targets) != 3 {
		t.Fatalf("got %d default targets, want 3", len(cfg.Targets))
	}
	if _, err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for an explicit path that does not exist")
	}
}

func TestParseReplacesTargets(t *testing.T) {
	cfg, err := Parse([]byte(`
version: 1
targets:
  - os: linux
    triple: aarch64-unknown-linux-gnu
build:
  profile: release
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Triple != "aarch64-unknown-linux-gnu" {
		t.Fatalf("targets = %+v", cfg.Targets)
	}
	if cfg.Build.Profile != "release" {
		t.Errorf("profile = %q", cfg.Build.Profile)
	}
	// Untouched sections keep their defaults.
	if cfg.Web.Project != "kodecks" {
		t.Errorf("web.project = %q", cfg.Web.Project)
	}
	if !cfg.Release.Draft {
		t.Error("release.draft default should be true")
	}
}

func TestResolvedDefaults(t *testing.T) {
	tests := []struct {
		os            string
		wantToolchain string
		wantArchive   string
	}{
		{OSLinux, ToolchainCross, ArchiveTarXz},
		{OSMacOS, ToolchainCargo, ArchiveTarXz},
		{OSWindows, ToolchainCargo, ArchiveZip},
	}
	for _, tt := range tests {
		t.Run(tt.os, func(t *testing.T) {
			tc := TargetConfig{OS: tt.os, Triple: "x"}
			if got := tc.ResolvedToolchain(); got != tt.wantToolchain {
				t.Errorf("toolchain = %q, want %q", got, tt.wantToolchain)
			}
			if got := tc.ResolvedArchive(); got != tt.wantArchive {
				t.Errorf("archive = %q, want %q", got, tt.wantArchive)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad version", func(c *Config) { c.Version = 2 }, "version: must be 1"},
		{"unknown os", func(c *Config) { c.Targets[0].OS = "plan9" }, "unknown os"},
		{"duplicate triple", func(c *Config) { c.Targets[1].Triple = c.Targets[0].Triple }, "duplicate triple"},
		{"zip on linux", func(c *Config) { c.Targets[0].Archive = ArchiveZip }, "linux targets must use tar.xz"},
		{"tar on windows", func(c *Config) { c.Targets[2].Archive = ArchiveTarXz }, "windows targets must use zip"},
		{"bad timeout", func(c *Config) { c.Build.Timeout = "soon" }, "build.timeout"},
		{"bad provider", func(c *Config) { c.Release.Provider = "svn" }, "release.provider"},
		{"bad regex", func(c *Config) { c.Release.GitTags = []string{"re:(("} }, "release.git_tags"},
		{"absolute assets", func(c *Config) { c.Assets.Dir = "/srv/assets" }, "workspace-relative"},
		{"no gate lint", func(c *Config) { c.Gate.Lint = nil }, "gate.lint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			_, err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateWarnsOnUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Triggers.Branches = []string{"mian"}
	warnings, err := Validate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], `"mian"`) {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestFilter(t *testing.T) {
	policies := map[string]string{"main": "^main$", "stable": `^v\d+\.\d+\.\d+$`}
	tests := []struct {
		name    string
		entries []string
		value   string
		want    bool
	}{
		{"empty allows", nil, "anything", true},
		{"policy match", []string{"main"}, "main", true},
		{"policy miss", []string{"main"}, "develop", false},
		{"inline regex", []string{"re:^release/"}, "release/1.0", true},
		{"negated only", []string{"!^wip/"}, "feature", true},
		{"negated wins", []string{"re:.*", "!^wip/"}, "wip/x", false},
		{"stable tag", []string{"stable"}, "v1.2.3", true},
		{"prerelease excluded", []string{"stable"}, "v1.2.3-rc.1", false},
		{"unknown name literal", []string{"trunk"}, "trunk", true},
		{"unknown name no prefix match", []string{"trunk"}, "trunk-old", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchRef(tt.entries, tt.value, policies); got != tt.want {
				t.Errorf("MatchRef(%v, %q) = %v, want %v", tt.entries, tt.value, got, tt.want)
			}
		})
	}
}

func TestEmbedsAssets(t *testing.T) {
	b := DefaultBuildConfig()
	if !b.EmbedsAssets() {
		t.Error("default build should embed assets")
	}
	b.Features = []string{"dev"}
	if b.EmbedsAssets() {
		t.Error("dev features should not embed assets")
	}
}
