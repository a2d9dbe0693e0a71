package orchestration

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every [ConfigurationError] with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an engine that cannot be built from its
// configuration. It is fatal to the session and never retried.
type ConfigurationError struct {
	Engine string
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid %s engine configuration: %s", e.Engine, e.Field)
	}
	return fmt.Sprintf("invalid %s engine configuration: %s: %s", e.Engine, e.Field, e.Detail)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
