package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/acedatacloud/dashsnap/internal/utils"
)

// Check is a single preflight probe run by the doctor. Optional checks
// report a warning instead of failing the run when they error.
type Check struct {
	Name     string
	Run      func(ctx context.Context) error
	Optional bool
}

// Doctor runs connectivity and permission checks against every
// upstream a snapshot run would touch.
type Doctor struct {
	checks []Check
	logger *utils.Logger
	out    io.Writer
}

// DoctorOptions configures a Doctor
type DoctorOptions struct {
	Checks []Check
	Logger *utils.Logger
	Out    io.Writer
}

// NewDoctor creates a doctor with the given checks.
func NewDoctor(opts DoctorOptions) *Doctor {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Doctor{
		checks: opts.Checks,
		logger: opts.Logger,
		out:    out,
	}
}

// doctorWorkers bounds concurrent probes. Checks hit independent
// upstreams, so a slow one does not hold up the rest.
const doctorWorkers = 4

// Run executes the checks concurrently and prints one line per result
// in check order. It returns an error when any required check fails.
func (d *Doctor) Run(ctx context.Context) error {
	elapsed := make([]time.Duration, len(d.checks))
	errs := utils.ParallelForEach(ctx, d.checks, doctorWorkers, func(ctx context.Context, i int, check Check) error {
		start := time.Now()
		err := check.Run(ctx)
		elapsed[i] = time.Since(start).Round(time.Millisecond)
		return err
	})

	failed := 0
	for i, check := range d.checks {
		switch err := errs[i]; {
		case err == nil:
			fmt.Fprintf(d.out, "  ok    %-12s (%s)\n", check.Name, elapsed[i])
		case check.Optional:
			fmt.Fprintf(d.out, "  warn  %-12s %v\n", check.Name, err)
			if d.logger != nil {
				d.logger.Warn().Err(err).Str("check", check.Name).Msg("Optional check failed")
			}
		default:
			failed++
			fmt.Fprintf(d.out, "  FAIL  %-12s %v\n", check.Name, err)
			if d.logger != nil {
				d.logger.Error().Err(err).Str("check", check.Name).Msg("Check failed")
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(d.checks))
	}

	fmt.Fprintln(d.out, "All checks passed")
	return nil
}
