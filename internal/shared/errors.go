package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Pipeline build errors, fatal before any file is touched
	ErrUnknownCog            = fmt.Errorf("unknown cog")
	ErrPipelineUnsatisfiable = fmt.Errorf("pipeline dependency unsatisfiable")
	ErrBadPattern            = fmt.Errorf("malformed output pattern")

	// Provider and processing errors
	ErrProviderRequest      = fmt.Errorf("provider request failed")
	ErrIdentificationFailed = fmt.Errorf("could not identify recording")
	ErrNoMatch              = fmt.Errorf("no match found")
	ErrPathResolution       = fmt.Errorf("could not resolve output path")

	// Job errors
	ErrJobNotFound  = fmt.Errorf("job not found")
	ErrJobNotIdle   = fmt.Errorf("job already started")
	ErrJobCancelled = fmt.Errorf("job cancelled")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrUnsupportedFile = fmt.Errorf("unsupported audio format")
)
