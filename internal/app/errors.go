package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoRun = errors.New("no completed run")
)
