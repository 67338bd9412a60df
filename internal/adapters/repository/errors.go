package repository

import "errors"

// Sentinel kinds for catalog store errors.
var (
	ErrNotLoaded = errors.New("catalog not loaded")
	ErrNotFound  = errors.New("simulation not found")
)
