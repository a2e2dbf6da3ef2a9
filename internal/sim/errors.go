package sim

import "errors"

var (
	ErrNoArchetypes      = errors.New("archetype pool is empty")
	ErrInvalidMatchCount = errors.New("match count must not be negative")
	ErrRunNotFound       = errors.New("run not found")
)
