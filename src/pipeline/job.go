package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StepKind classifies a step for error reporting.
type StepKind string

const (
	KindInstall StepKind = "install"
	KindFetch   StepKind = "fetch"
	KindBuild   StepKind = "build"
	KindTest    StepKind = "test"
	KindLint    StepKind = "lint"
	KindArchive StepKind = "archive"
	KindRelease StepKind = "release"
	KindUpload  StepKind = "upload"
	KindScan    StepKind = "scan"
	KindDeploy  StepKind = "deploy"
)

// Step statuses.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusTolerated = "tolerated" // failed, but the step declared the failure ignorable
	StatusSkipped   = "skipped"   // guard false, or an earlier step failed
)

// Step is one blocking unit of work inside a job.
type Step struct {
	Name string
	Kind StepKind

	// When guards the step; a false guard skips it without failing the job.
	// Nil means always run.
	When func() bool

	// Tolerate reports whether a failure is ignorable. Tolerated failures
	// are recorded and the job continues.
	Tolerate func(error) bool

	// Timeout overrides the job's per-step timeout.
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// StepError is the fatal error of a job, tagged with the step that raised it.
type StepError struct {
	Step string
	Kind StepKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %q: %v", e.Kind, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepResult captures the outcome of a single step.
type StepResult struct {
	Name     string
	Kind     StepKind
	Status   string
	Duration time.Duration
	Err      error
}

// Job is a linear sequence of steps. Steps run strictly in order; the first
// fatal failure aborts the rest, which are reported as skipped.
type Job struct {
	Name        string
	Steps       []Step
	StepTimeout time.Duration
}

// JobResult captures the outcome of a job run.
type JobResult struct {
	Name     string
	RunID    string
	Steps    []StepResult
	Duration time.Duration
	Err      error // the fatal StepError, nil on success
}

// Failed reports whether the job ended in a fatal failure.
func (r *JobResult) Failed() bool { return r.Err != nil }

// Status returns "success" or "failed".
func (r *JobResult) Status() string {
	if r.Failed() {
		return StatusFailed
	}
	return StatusSuccess
}

// Run executes the job's steps in order.
// Cancellation of ctx aborts the current step and skips the rest.
func (j *Job) Run(ctx context.Context, log zerolog.Logger) *JobResult {
	start := time.Now()
	res := &JobResult{Name: j.Name}

	for i, step := range j.Steps {
		if res.Err != nil {
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Kind: step.Kind, Status: StatusSkipped})
			continue
		}

		sr := j.runStep(ctx, step, log.With().Int("step", i+1).Str("step_name", step.Name).Logger())
		res.Steps = append(res.Steps, sr)

		if sr.Status == StatusFailed {
			res.Err = &StepError{Step: step.Name, Kind: step.Kind, Err: sr.Err}
		}
	}

	res.Duration = time.Since(start)
	if res.Err != nil {
		log.Error().Err(res.Err).Dur("elapsed", res.Duration).Msg("job failed")
	} else {
		log.Info().Dur("elapsed", res.Duration).Msg("job succeeded")
	}
	return res
}

func (j *Job) runStep(ctx context.Context, step Step, log zerolog.Logger) StepResult {
	start := time.Now()
	sr := StepResult{Name: step.Name, Kind: step.Kind}

	if err := ctx.Err(); err != nil {
		sr.Status = StatusFailed
		sr.Err = err
		return sr
	}

	if step.When != nil && !step.When() {
		log.Info().Msg("step skipped: guard condition not met")
		sr.Status = StatusSkipped
		return sr
	}

	timeout := step.Timeout
	if timeout == 0 {
		timeout = j.StepTimeout
	}
	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug().Msg("step started")
	err := step.Run(stepCtx)
	sr.Duration = time.Since(start)

	switch {
	case err == nil:
		sr.Status = StatusSuccess
		log.Info().Dur("elapsed", sr.Duration).Msg("step succeeded")
	case step.Tolerate != nil && step.Tolerate(err):
		sr.Status = StatusTolerated
		sr.Err = err
		log.Warn().Err(err).Msg("step failed, continuing")
	default:
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		sr.Status = StatusFailed
		sr.Err = err
		log.Error().Err(err).Dur("elapsed", sr.Duration).Msg("step failed")
	}
	return sr
}
