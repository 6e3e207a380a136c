package config

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference names an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variables")

	// ErrUnsupportedFormat indicates a file extension the loader cannot decode.
	ErrUnsupportedFormat = errors.New("config: unsupported format")

	// ErrInvalid indicates a configuration value out of range.
	ErrInvalid = errors.New("config: invalid value")
)
