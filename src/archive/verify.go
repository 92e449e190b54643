package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

// Entries lists the regular files inside an archive, sorted. The format is
// taken from the file extension.
func Entries(path string) ([]string, error) {
	var names []string
	var err error
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		names, err = tarXzEntries(path)
	case strings.HasSuffix(path, ".zip"):
		names, err = zipEntries(path)
	default:
		return nil, fmt.Errorf("%s: unknown archive format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	sort.Strings(names)
	return names, nil
}

// Verify checks that an archive opens and contains want at its root.
func Verify(path, want string) error {
	names, err := Entries(path)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == want {
			return nil
		}
	}
	return fmt.Errorf("%s: %s not found in archive (have %v)", path, want, names)
}

func tarXzEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(xr)

	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag == tar.TypeReg {
			names = append(names, hdr.Name)
		}
	}
}

func zipEntries(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}
