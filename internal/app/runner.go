package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/acedatacloud/dashsnap/internal/manifest"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// Job is a named snapshot task the runner can execute. The manifest
// entry is passed through so jobs can honor per-entry settings such as
// dry_run.
type Job struct {
	Name        string
	Description string
	Run         func(ctx context.Context, entry manifest.Job) error
}

// JobResult records the outcome of a single manifest job.
type JobResult struct {
	Job      manifest.Job
	Error    error
	Duration time.Duration
}

// Runner executes manifest jobs one at a time, in manifest order. Jobs
// share cursor state and output files, so they never run concurrently.
type Runner struct {
	jobs   map[string]Job
	names  []string
	logger *utils.Logger
	out    io.Writer
}

// RunnerOptions configures a Runner
type RunnerOptions struct {
	Jobs   []Job
	Logger *utils.Logger
	Out    io.Writer
}

// NewRunner creates a runner with the given registered jobs.
func NewRunner(opts RunnerOptions) *Runner {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	jobs := make(map[string]Job, len(opts.Jobs))
	names := make([]string, 0, len(opts.Jobs))
	for _, job := range opts.Jobs {
		jobs[job.Name] = job
		names = append(names, job.Name)
	}

	return &Runner{
		jobs:   jobs,
		names:  names,
		logger: opts.Logger,
		out:    out,
	}
}

// Names returns the registered job names in registration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.names...)
}

// RunManifest executes every job listed in the manifest. Without
// continue_on_error the first failure stops the run; with it, the
// remaining jobs still execute and the first failure is reported at
// the end.
func (r *Runner) RunManifest(ctx context.Context, cfg *manifest.Config) error {
	startTime := time.Now()
	totalJobs := len(cfg.Jobs)

	if r.logger != nil {
		r.logger.Info().
			Int("jobs", totalJobs).
			Bool("continue_on_error", cfg.Options.ContinueOnError).
			Msg("Starting manifest execution")
	}

	results := make([]JobResult, 0, totalJobs)
	var firstError error

	for i, entry := range cfg.Jobs {
		if ctx.Err() != nil {
			if r.logger != nil {
				r.logger.Warn().Msg("Manifest execution cancelled")
			}
			return ctx.Err()
		}

		fmt.Fprintf(r.out, "[%d/%d] %s\n", i+1, totalJobs, entry.Name)

		if r.logger != nil {
			r.logger.Info().
				Int("job_idx", i).
				Str("job", entry.Name).
				Bool("dry_run", entry.DryRun).
				Msg("Running job")
		}

		jobStart := time.Now()
		var err error
		if job, ok := r.jobs[entry.Name]; ok {
			err = job.Run(ctx, entry)
		} else {
			err = fmt.Errorf("unknown job %q", entry.Name)
		}
		jobDuration := time.Since(jobStart)

		results = append(results, JobResult{
			Job:      entry,
			Error:    err,
			Duration: jobDuration,
		})

		if err != nil {
			if r.logger != nil {
				r.logger.Error().
					Err(err).
					Int("job_idx", i).
					Str("job", entry.Name).
					Dur("duration", jobDuration).
					Msg("Job failed")
			}

			if firstError == nil {
				firstError = fmt.Errorf("job %s failed: %w", entry.Name, err)
			}
			if !cfg.Options.ContinueOnError {
				if r.logger != nil {
					r.logger.Warn().Msg("Stopping execution (continue_on_error=false)")
				}
				return firstError
			}
		} else if r.logger != nil {
			r.logger.Info().
				Int("job_idx", i).
				Str("job", entry.Name).
				Dur("duration", jobDuration).
				Msg("Job completed")
		}
	}

	if ctx.Err() != nil {
		if r.logger != nil {
			r.logger.Warn().Msg("Manifest execution cancelled")
		}
		return ctx.Err()
	}

	duration := time.Since(startTime)
	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
		}
	}

	if r.logger != nil {
		r.logger.Info().
			Dur("total_duration", duration).
			Int("total", totalJobs).
			Int("success", successCount).
			Int("failed", totalJobs-successCount).
			Msg("Manifest execution completed")
	}

	fmt.Fprintf(r.out, "Manifest: %d/%d jobs succeeded in %s\n",
		successCount, totalJobs, duration.Round(time.Millisecond))

	if firstError != nil {
		return fmt.Errorf("manifest completed with %d/%d failures: %w",
			totalJobs-successCount, totalJobs, firstError)
	}

	return nil
}
