// Package toolchains registers the compilers kodeship can drive.
package toolchains

import (
	"strings"

	"github.com/kodecks/kodeship/src/build"
	"github.com/kodecks/kodeship/src/pipeline"
)

func init() {
	build.Register("cargo", func() build.Toolchain { return &cargo{bin: "cargo"} })
	build.Register("cross", func() build.Toolchain { return &cross{cargo{bin: "cross"}} })
}

// cargo builds with the host toolchain; used where host and target OS match.
type cargo struct {
	bin string
}

func (c *cargo) Name() string { return c.bin }

func (c *cargo) Command(req build.Request) pipeline.Command {
	return pipeline.Command{
		Name: c.bin,
		Args: cargoArgs(req),
		Dir:  req.Root,
		Env:  req.Env,
	}
}

func cargoArgs(req build.Request) []string {
	args := []string{"build", "--profile", req.Profile, "--target", req.Target.Triple}
	if req.TargetDir != "" {
		args = append(args, "--target-dir", req.TargetDir)
	}
	for _, p := range req.Packages {
		args = append(args, "--package", p)
	}
	if len(req.Features) > 0 {
		args = append(args, "--features", strings.Join(req.Features, ","))
	}
	args = append(args, "--locked")
	return args
}

// cross runs cargo inside a container image pinned to an old glibc, so the
// Linux binaries run on any distribution newer than the image.
type cross struct {
	cargo
}

func (c *cross) Command(req build.Request) pipeline.Command {
	cmd := c.cargo.Command(req)

	// The container only sees variables listed for passthrough.
	var names []string
	for _, kv := range req.Env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			names = append(names, kv[:i])
		}
	}
	if len(names) > 0 {
		cmd.Env = append(append([]string(nil), cmd.Env...), "CROSS_BUILD_ENV_PASSTHROUGH="+strings.Join(names, " "))
	}
	return cmd
}
