package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kodecks/kodeship/src/config"
	"github.com/kodecks/kodeship/src/logging"
	"github.com/kodecks/kodeship/src/pipeline"
	"github.com/kodecks/kodeship/src/pipeline/pipelinetest"
)

func TestCommandPerOS(t *testing.T) {
	cfg := config.DefaultAssetsConfig()
	tests := []struct {
		os   string
		want string
	}{
		{config.OSLinux, "sh scripts/download.sh"},
		{config.OSMacOS, "sh scripts/download.sh"},
		{config.OSWindows, "pwsh -NoProfile -NonInteractive -File scripts/download.ps1"},
	}
	for _, tt := range tests {
		t.Run(tt.os, func(t *testing.T) {
			cmd := Command(cfg, "/work", tt.os)
			if got := cmd.String(); got != tt.want {
				t.Errorf("command = %q, want %q", got, tt.want)
			}
			if len(cmd.Env) != 1 || cmd.Env[0] != "ASSET_PATH=assets" {
				t.Errorf("env = %v", cmd.Env)
			}
		})
	}
}

func TestFetchPopulated(t *testing.T) {
	root := t.TempDir()
	rec := &pipelinetest.Recorder{OnRun: func(pipeline.Command) error {
		dir := filepath.Join(root, "assets", "cards")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "deck.png"), []byte("png"), 0o644)
	}}

	f := &Fetcher{Runner: rec, Log: logging.Nop()}
	b, err := f.Fetch(context.Background(), config.DefaultAssetsConfig(), root, config.OSLinux)
	if err != nil {
		t.Fatal(err)
	}
	if b.Files != 1 || b.Bytes != 3 {
		t.Errorf("bundle = %+v", b)
	}
}

func TestFetchScriptFailure(t *testing.T) {
	rec := &pipelinetest.Recorder{Fail: func(pipeline.Command) bool { return true }}
	f := &Fetcher{Runner: rec, Log: logging.Nop()}

	_, err := f.Fetch(context.Background(), config.DefaultAssetsConfig(), t.TempDir(), config.OSLinux)
	if err == nil || !strings.Contains(err.Error(), "fetching assets") {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetchEmptyTree(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	f := &Fetcher{Runner: &pipelinetest.Recorder{}, Log: logging.Nop()}

	_, err := f.Fetch(context.Background(), config.DefaultAssetsConfig(), root, config.OSMacOS)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty-tree error, got %v", err)
	}

	f.SkipVerify = true
	if _, err := f.Fetch(context.Background(), config.DefaultAssetsConfig(), root, config.OSMacOS); err != nil {
		t.Fatalf("skip verify: %v", err)
	}
}
