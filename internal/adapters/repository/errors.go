package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("person not found")
	ErrInvalidID = errors.New("invalid person id")
)
