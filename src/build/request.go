package build

import (
	"fmt"
	"time"
)

// Request is one build invocation: a profile, the packages, the feature set
// and the target they are compiled for.
type Request struct {
	Root      string // workspace root
	TargetDir string // cargo --target-dir, relative to Root
	Profile   string
	Packages  []string
	Features  []string
	Binaries  []string // expected outputs, one archive each
	Target    Target
	Env       []string // KEY=VALUE passed to the toolchain
}

// Validate checks the request is complete before a toolchain sees it.
func (r Request) Validate() error {
	if r.Target.Triple == "" {
		return fmt.Errorf("build: target triple is required")
	}
	if r.Profile == "" {
		return fmt.Errorf("build: profile is required")
	}
	if len(r.Packages) == 0 {
		return fmt.Errorf("build: at least one package is required")
	}
	if len(r.Binaries) == 0 {
		return fmt.Errorf("build: no binaries to produce for %s", r.Target.Triple)
	}
	return nil
}

// Binary is a produced executable.
type Binary struct {
	Name string // logical name, without .exe
	Path string // absolute or Root-relative path on disk
}

// Result captures the outcome of a build.
type Result struct {
	Target   Target
	Binaries []Binary
	Duration time.Duration
}
