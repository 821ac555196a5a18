package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrNoJobs indicates the manifest has no jobs defined
	ErrNoJobs = errors.New("manifest must contain at least one job")

	// ErrEmptyJobName indicates a job entry is missing the required name field
	ErrEmptyJobName = errors.New("job name cannot be empty")

	// ErrInvalidFormat indicates the manifest file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("manifest must be valid YAML or JSON")

	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
