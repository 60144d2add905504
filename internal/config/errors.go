package config

import "errors"

var (
	// ErrMissingField is returned when a required form field is empty.
	ErrMissingField = errors.New("required field is empty")

	// ErrInvalidNumber is returned when a numeric field is not a positive integer.
	ErrInvalidNumber = errors.New("not a positive integer")
)
