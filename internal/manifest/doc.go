// Package manifest provides types and utilities for loading and validating
// dashsnap manifest files. A manifest lists the snapshot jobs to execute in
// a single run, enabling scheduled batch refreshes of the dashboard data.
//
// # Manifest Format
//
// Manifests can be written in YAML or JSON format:
//
//	jobs:
//	  - name: sync
//	  - name: creator-fees
//	  - name: revenue
//	options:
//	  continue_on_error: true
//
// # Usage
//
// Load a manifest file:
//
//	loader := manifest.NewLoader()
//	cfg, err := loader.Load("jobs.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, job := range cfg.Jobs {
//	    // Execute each job
//	}
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoJobs: manifest has no jobs defined
//   - ErrEmptyJobName: job entry is missing the required name field
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: manifest file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package manifest
