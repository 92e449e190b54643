package web

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is a suspected secret in the built site.
type Finding struct {
	File        string // relative to the scanned directory
	Line        int    // 1-based
	RuleID      string
	Description string
}

// scanned lists the text formats a static site ships. The compiled .wasm
// is skipped; its string table is mostly symbol names.
var scanned = map[string]bool{
	".html": true, ".js": true, ".mjs": true, ".css": true,
	".json": true, ".map": true, ".txt": true, ".toml": true,
	".ron": true, ".yaml": true, ".yml": true, ".env": true,
}

const maxScanSize = 8 << 20

// ScanDir runs the gitleaks default rules over the text files under dir.
func ScanDir(ctx context.Context, dir string) ([]Finding, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}

	var findings []Finding
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !scanned[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxScanSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		for _, h := range detector.DetectBytes(data) {
			findings = append(findings, Finding{
				File:        filepath.ToSlash(rel),
				Line:        h.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      h.RuleID,
				Description: h.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	return findings, nil
}
