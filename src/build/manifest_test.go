package build

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadWorkspace(t *testing.T) {
	ws, err := LoadWorkspace("testdata/workspace", "Cargo.toml")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"kodecks", "kodecks-bevy", "kodecks-server"} {
		if ws.Packages[p] == nil {
			t.Errorf("package %s not loaded", p)
		}
	}

	bins, err := ws.Binaries([]string{"kodecks-bevy", "kodecks-server"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"kodecks", "kodecks-server"}; !reflect.DeepEqual(bins, want) {
		t.Errorf("binaries = %v, want %v", bins, want)
	}

	if v := ws.Version("kodecks-bevy"); v != "0.1.0" {
		t.Errorf("inherited version = %q", v)
	}
	if v := ws.Version("kodecks-server"); v != "0.2.0" {
		t.Errorf("explicit version = %q", v)
	}
}

func TestWorkspaceChecks(t *testing.T) {
	ws, err := LoadWorkspace("testdata/workspace", "Cargo.toml")
	if err != nil {
		t.Fatal(err)
	}

	if err := ws.CheckFeatures([]string{"kodecks-bevy"}, []string{"embed_assets"}); err != nil {
		t.Errorf("embed_assets should be declared: %v", err)
	}
	if err := ws.CheckFeatures([]string{"kodecks-bevy"}, []string{"hot_reload"}); err == nil {
		t.Error("expected error for undeclared feature")
	}
	if !ws.HasProfile("distribution") {
		t.Error("distribution profile should be declared")
	}
	if ws.HasProfile("wasm-release") {
		t.Error("wasm-release profile is not declared")
	}
	if _, err := ws.Binaries([]string{"kodecks-bot"}); err == nil {
		t.Error("expected error for package outside workspace")
	}
}

func TestResolveBinaries(t *testing.T) {
	bins, err := ResolveBinaries("testdata/workspace", "Cargo.toml",
		[]string{"kodecks-bevy", "kodecks-server"}, []string{"embed_assets"}, "distribution", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 2 {
		t.Errorf("bins = %v", bins)
	}

	_, err = ResolveBinaries("testdata/workspace", "Cargo.toml",
		[]string{"kodecks-bevy"}, nil, "nightly", nil)
	if err == nil || !strings.Contains(err.Error(), "nightly") {
		t.Errorf("expected profile error, got %v", err)
	}

	// No manifest on disk: configured binaries are trusted.
	bins, err = ResolveBinaries(t.TempDir(), "Cargo.toml", []string{"x"}, nil, "release", []string{"kodecks"})
	if err != nil || len(bins) != 1 {
		t.Errorf("bins = %v, err = %v", bins, err)
	}
}
