// Package pipeline runs jobs: ordered, blocking steps gated on the success
// of the previous one, and independent jobs side by side. It also decides
// which jobs a repository event triggers.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Command is a single external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // extra KEY=VALUE pairs on top of the current environment
}

// String renders the command the way a shell user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands. Implementations must block until the process exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    zerolog.Logger
}

// NewExecRunner creates a runner writing to the process's stdout/stderr.
func NewExecRunner(log zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    log,
	}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	r.Log.Debug().Str("cmd", c.String()).Str("dir", c.Dir).Strs("env", c.Env).Msg("exec")

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", c.Name, ctx.Err())
		}
		return fmt.Errorf("%s: %w", c.String(), err)
	}
	return nil
}

// DryRunner prints commands instead of running them.
type DryRunner struct {
	W io.Writer
}

func (r *DryRunner) Run(_ context.Context, c Command) error {
	prefix := ""
	if len(c.Env) > 0 {
		prefix = strings.Join(c.Env, " ") + " "
	}
	if c.Dir != "" && c.Dir != "." {
		fmt.Fprintf(r.W, "dry-run: (cd %s && %s%s)\n", c.Dir, prefix, c.String())
		return nil
	}
	fmt.Fprintf(r.W, "dry-run: %s%s\n", prefix, c.String())
	return nil
}
