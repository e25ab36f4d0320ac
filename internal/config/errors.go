package config

import (
	"strings"

	apperrors "github.com/jrsteele09/vinylogger/internal/errors"
)

// ConfigurationError lists every problem found in the environment. It is fatal at startup.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ConfigurationError) Is(target error) bool {
	return target == apperrors.ErrConfiguration
}
