package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kodecks/kodeship/src/logging"
)

// RunMatrix runs independent jobs side by side and returns one result per
// job, in input order. A failing job never cancels its siblings: each job
// shares only ctx (operator cancellation) with the others.
// limit <= 0 runs every job at once.
func RunMatrix(ctx context.Context, jobs []*Job, limit int, log zerolog.Logger) []*JobResult {
	results := make([]*JobResult, len(jobs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			jobLog, runID := logging.WithRun(log, job.Name)
			res := job.Run(ctx, jobLog)
			res.RunID = runID
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AnyFailed reports whether at least one job failed.
func AnyFailed(results []*JobResult) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}
