package manifest

import "fmt"

// Config represents the complete manifest configuration
type Config struct {
	Jobs    []Job   `yaml:"jobs" json:"jobs"`
	Options Options `yaml:"options" json:"options"`
}

// Job names a single dashboard task to execute. Jobs run in the order
// they appear in the manifest.
type Job struct {
	Name   string `yaml:"name" json:"name"`
	DryRun bool   `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
}

// Options represents global manifest options
type Options struct {
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`
}

// Validate validates the manifest structure. Whether a job name is
// actually registered is checked by the runner, not here.
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return ErrNoJobs
	}
	for i, job := range c.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job %d: %w", i, ErrEmptyJobName)
		}
	}
	return nil
}
