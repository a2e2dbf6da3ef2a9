package deck

import "errors"

var (
	ErrInsufficientCatalog = errors.New("catalog cannot fill the minimum deck size")
	ErrUnknownArchetype    = errors.New("unknown archetype")
)
