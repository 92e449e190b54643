package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the subset of a Cargo.toml kodeship reads.
type Manifest struct {
	Package *struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"` // string, or {workspace = true}
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
		Package struct {
			Version string `toml:"version"`
		} `toml:"package"`
	} `toml:"workspace"`
	Bins []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
	Features map[string][]string       `toml:"features"`
	Profile  map[string]map[string]any `toml:"profile"`
}

// ReadManifest parses a Cargo.toml.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}

// Workspace is a parsed cargo workspace: the root manifest plus every
// member package manifest, keyed by package name.
type Workspace struct {
	Root     *Manifest
	Packages map[string]*Manifest
}

// LoadWorkspace reads the root manifest and its members. Member globs
// ("crates/*") are expanded.
func LoadWorkspace(root, manifest string) (*Workspace, error) {
	rootManifest, err := ReadManifest(filepath.Join(root, manifest))
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Root: rootManifest, Packages: map[string]*Manifest{}}

	if rootManifest.Package != nil {
		ws.Packages[rootManifest.Package.Name] = rootManifest
	}
	if rootManifest.Workspace == nil {
		return ws, nil
	}

	base := filepath.Dir(filepath.Join(root, manifest))
	for _, member := range rootManifest.Workspace.Members {
		dirs, err := filepath.Glob(filepath.Join(base, member))
		if err != nil {
			return nil, fmt.Errorf("workspace member %q: %w", member, err)
		}
		for _, dir := range dirs {
			m, err := ReadManifest(filepath.Join(dir, "Cargo.toml"))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, err
			}
			if m.Package != nil {
				ws.Packages[m.Package.Name] = m
			}
		}
	}
	return ws, nil
}

// Binaries returns the executables the given packages produce, in package
// order: each package's [[bin]] names, or the package name when it declares none.
func (ws *Workspace) Binaries(packages []string) ([]string, error) {
	var out []string
	for _, p := range packages {
		m, ok := ws.Packages[p]
		if !ok {
			return nil, fmt.Errorf("package %q is not in the workspace", p)
		}
		if len(m.Bins) == 0 {
			out = append(out, p)
			continue
		}
		for _, b := range m.Bins {
			out = append(out, b.Name)
		}
	}
	return out, nil
}

// CheckFeatures verifies every requested feature is declared by at least
// one of the packages; cargo would otherwise fail late in the build.
func (ws *Workspace) CheckFeatures(packages, features []string) error {
	var missing []string
	for _, f := range features {
		found := false
		for _, p := range packages {
			if m := ws.Packages[p]; m != nil {
				if _, ok := m.Features[f]; ok {
					found = true
					break
				}
			}
		}
		if !found {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("features not declared by %v: %v", packages, missing)
	}
	return nil
}

// HasProfile reports whether profile is built in or declared in the root manifest.
func (ws *Workspace) HasProfile(profile string) bool {
	switch profile {
	case "dev", "release", "test", "bench":
		return true
	}
	_, ok := ws.Root.Profile[profile]
	return ok
}

// Version returns the package version, resolving workspace inheritance.
func (ws *Workspace) Version(pkg string) string {
	m := ws.Packages[pkg]
	if m == nil || m.Package == nil {
		return ""
	}
	switch v := m.Package.Version.(type) {
	case string:
		return v
	case map[string]any:
		if inherit, _ := v["workspace"].(bool); inherit && ws.Root.Workspace != nil {
			return ws.Root.Workspace.Package.Version
		}
	}
	return ""
}

// ResolveBinaries decides which binaries a build produces. Configured names
// win; otherwise they are discovered from the workspace. When the workspace
// can be read, packages, features and the profile are checked against it.
func ResolveBinaries(root, manifest string, packages, features []string, profile string, configured []string) ([]string, error) {
	ws, err := LoadWorkspace(root, manifest)
	if err != nil {
		if os.IsNotExist(err) && len(configured) > 0 {
			return configured, nil
		}
		return nil, fmt.Errorf("reading workspace: %w", err)
	}

	discovered, err := ws.Binaries(packages)
	if err != nil {
		return nil, err
	}
	if err := ws.CheckFeatures(packages, features); err != nil {
		return nil, err
	}
	if !ws.HasProfile(profile) {
		return nil, fmt.Errorf("profile %q is not declared in %s", profile, manifest)
	}

	if len(configured) > 0 {
		return configured, nil
	}
	return discovered, nil
}
