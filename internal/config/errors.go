package config

import "errors"

var (
	ErrFailedToLoadConfig     = errors.New("failed to load config")
	ErrFailedToValidateConfig = errors.New("failed to validate config")
	ErrUnsupportedConfigVer   = errors.New("unsupported config version")
	ErrUnsupportedExtension   = errors.New("unsupported file extension")
	ErrNoSourceProvided       = errors.New("no source provided to loader")
)

// Validation specific errors
var (
	ErrInvalidValue         = errors.New("invalid value")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidLogFormat     = errors.New("invalid log format")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidBackend       = errors.New("invalid store backend")
)
