package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrCatalogUnavailable is returned when the stage catalog can't be loaded.
	ErrCatalogUnavailable = errors.New("stage catalog unavailable")
	// ErrNoStageSelected is returned when a task is submitted without stages.
	ErrNoStageSelected = errors.New("no stage selected")
)
