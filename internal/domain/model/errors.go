package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidOption = errors.New("invalid form option")
)
