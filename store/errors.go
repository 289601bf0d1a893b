package store

import "errors"

var (
	// ErrNoTaskAssigned indicates the scheduler has not recorded a task for the tournament.
	ErrNoTaskAssigned = errors.New("no task assigned")
)
