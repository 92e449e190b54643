// Package archive packages built binaries into the per-target release
// archives: tar.xz on Linux and macOS, zip on Windows.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/config"
)

// Asset is a finished archive on disk.
type Asset struct {
	Name   string // <binary>-<triple>.<ext>
	Path   string
	Size   int64
	SHA256 string
}

// Options controls what goes into each archive besides the binary.
type Options struct {
	// AssetDir is copied in as assets/ when the binary does not embed
	// its asset bundle. Empty means binary only.
	AssetDir string
}

// Name returns the archive file name for a binary and target.
func Name(binary, triple, format string) string {
	return fmt.Sprintf("%s-%s.%s", binary, triple, format)
}

// Archive writes one archive for bin into outDir. The binary sits at the
// archive root under its on-disk name (with .exe on Windows). An existing
// archive of the same name is replaced.
func Archive(ctx context.Context, bin build.Binary, target build.Target, outDir string, opts Options) (*Asset, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", outDir, err)
	}

	name := Name(bin.Name, target.Triple, target.Archive)
	path := filepath.Join(outDir, name)

	sources := map[string]string{
		bin.Path: bin.Name + target.ExeSuffix(),
	}
	if opts.AssetDir != "" {
		sources[opts.AssetDir] = "assets"
	}

	files, err := archives.FilesFromDisk(ctx, nil, sources)
	if err != nil {
		return nil, fmt.Errorf("archiving %s: %w", name, err)
	}

	var format interface {
		Archive(context.Context, io.Writer, []archives.FileInfo) error
	}
	switch target.Archive {
	case config.ArchiveTarXz:
		format = archives.CompressedArchive{
			Compression: archives.Xz{},
			Archival:    archives.Tar{},
		}
	case config.ArchiveZip:
		format = archives.Zip{}
	default:
		return nil, fmt.Errorf("archiving %s: unsupported format %q", name, target.Archive)
	}

	// Write to a temp file first so a failed run never leaves a truncated
	// archive under the final name.
	tmp, err := os.CreateTemp(outDir, "."+name+".*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := format.Archive(ctx, cw, files); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("archiving %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("archiving %s: %w", name, err)
	}

	return &Asset{
		Name:   name,
		Path:   path,
		Size:   cw.n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// All archives every binary of a build result, in order. It stops at the
// first failure.
func All(ctx context.Context, res *build.Result, outDir string, opts Options) ([]*Asset, error) {
	var out []*Asset
	for _, bin := range res.Binaries {
		a, err := Archive(ctx, bin, res.Target, outDir, opts)
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
