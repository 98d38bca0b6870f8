package config

import "errors"

// ErrInvalidConfig is returned when a configuration file is not valid
// JSON.
var ErrInvalidConfig = errors.New("configuration is not valid JSON")
