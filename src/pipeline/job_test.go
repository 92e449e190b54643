package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodecks/kodeship/src/logging"
)

func okStep(name string, ran *[]string) Step {
	return Step{Name: name, Kind: KindBuild, Run: func(context.Context) error {
		*ran = append(*ran, name)
		return nil
	}}
}

func TestJobRunsStepsInOrder(t *testing.T) {
	var ran []string
	job := &Job{Name: "j", Steps: []Step{okStep("a", &ran), okStep("b", &ran), okStep("c", &ran)}}

	res := job.Run(context.Background(), logging.Nop())

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	assert.Equal(t, StatusSuccess, res.Status())
}

func TestJobAbortsOnFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	job := &Job{Name: "j", Steps: []Step{
		okStep("fetch", &ran),
		{Name: "build", Kind: KindBuild, Run: func(context.Context) error { return boom }},
		okStep("archive", &ran),
	}}

	res := job.Run(context.Background(), logging.Nop())

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, boom)
	var se *StepError
	require.ErrorAs(t, res.Err, &se)
	assert.Equal(t, "build", se.Step)
	assert.Equal(t, KindBuild, se.Kind)
	assert.Equal(t, []string{"fetch"}, ran)
	assert.Equal(t, StatusSkipped, res.Steps[2].Status)
}

func TestJobToleratedFailureContinues(t *testing.T) {
	var ran []string
	exists := errors.New("already exists")
	job := &Job{Name: "j", Steps: []Step{
		{
			Name:     "create",
			Kind:     KindRelease,
			Run:      func(context.Context) error { return exists },
			Tolerate: func(err error) bool { return errors.Is(err, exists) },
		},
		okStep("upload", &ran),
	}}

	res := job.Run(context.Background(), logging.Nop())

	require.NoError(t, res.Err)
	assert.Equal(t, StatusTolerated, res.Steps[0].Status)
	assert.Equal(t, []string{"upload"}, ran)
}

func TestJobGuardSkips(t *testing.T) {
	var ran []string
	deploy := okStep("deploy", &ran)
	deploy.When = func() bool { return false }
	job := &Job{Name: "web", Steps: []Step{okStep("build", &ran), deploy}}

	res := job.Run(context.Background(), logging.Nop())

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"build"}, ran)
	assert.Equal(t, StatusSkipped, res.Steps[1].Status)
}

func TestJobStepTimeout(t *testing.T) {
	job := &Job{Name: "j", StepTimeout: 10 * time.Millisecond, Steps: []Step{{
		Name: "slow",
		Kind: KindBuild,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}}

	res := job.Run(context.Background(), logging.Nop())

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Contains(t, res.Err.Error(), "timed out")
}

func TestJobCancelledSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran []string
	job := &Job{Name: "j", Steps: []Step{okStep("a", &ran), okStep("b", &ran)}}

	res := job.Run(ctx, logging.Nop())

	require.Error(t, res.Err)
	assert.Empty(t, ran)
	assert.Equal(t, StatusFailed, res.Steps[0].Status)
	assert.Equal(t, StatusSkipped, res.Steps[1].Status)
}

func TestRunMatrixIndependentJobs(t *testing.T) {
	var completed atomic.Int32
	mk := func(name string, fail bool) *Job {
		return &Job{Name: name, Steps: []Step{{
			Name: "work",
			Kind: KindBuild,
			Run: func(context.Context) error {
				if fail {
					return errors.New("fetch failed")
				}
				time.Sleep(5 * time.Millisecond)
				completed.Add(1)
				return nil
			},
		}}}
	}

	results := RunMatrix(context.Background(), []*Job{mk("linux", true), mk("macos", false), mk("windows", false)}, 0, logging.Nop())

	require.Len(t, results, 3)
	assert.True(t, results[0].Failed())
	assert.False(t, results[1].Failed())
	assert.False(t, results[2].Failed())
	assert.EqualValues(t, 2, completed.Load())
	assert.True(t, AnyFailed(results))
	for _, r := range results {
		assert.NotEmpty(t, r.RunID)
	}
}
