package common

import "errors"

var (

	// ErrInvalidDeps is returned when dependencies fail validation
	ErrInvalidDeps = errors.New("invalid dependencies")

	// ErrLoggerRequired is returned when CommandDeps.Logger is nil
	ErrLoggerRequired = errors.New("logger is required")

	// ErrConfigRequired is returned when CommandDeps.Config is nil
	ErrConfigRequired = errors.New("config is required")

	// ErrCacheRequired is returned when CommandDeps.Cache is nil
	ErrCacheRequired = errors.New("cache store is required")

	// ErrSchedulerRequired is returned when CommandDeps.Scheduler is nil
	ErrSchedulerRequired = errors.New("scheduler is required")
)
