package domain

// RunOptions carries per-invocation switches shared by all snapshot jobs.
type RunOptions struct {
	Verbose bool
	DryRun  bool
}
