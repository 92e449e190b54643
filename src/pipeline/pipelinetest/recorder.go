// Package pipelinetest provides a recording Runner for tests.
package pipelinetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kodecks/kodeship/src/pipeline"
)

// Recorder is a pipeline.Runner that records commands instead of running
// them. Fail decides which commands return an error; OnRun lets a test
// produce the files a real command would have written.
type Recorder struct {
	Fail  func(pipeline.Command) bool
	OnRun func(pipeline.Command) error

	mu       sync.Mutex
	commands []pipeline.Command
}

func (r *Recorder) Run(ctx context.Context, c pipeline.Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, c)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Fail != nil && r.Fail(c) {
		return fmt.Errorf("%s: exit status 1", c.String())
	}
	if r.OnRun != nil {
		return r.OnRun(c)
	}
	return nil
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []pipeline.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.Command(nil), r.commands...)
}

// Lines returns every recorded command rendered as a string.
func (r *Recorder) Lines() []string {
	var out []string
	for _, c := range r.Commands() {
		out = append(out, c.String())
	}
	return out
}

// Ran reports whether any recorded command line starts with prefix.
func (r *Recorder) Ran(prefix string) bool {
	for _, l := range r.Lines() {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
