package declare

import (
	"errors"
	"fmt"
)

// ErrInvalidArguments is returned when a test or group declaration has no body.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrFileLoaded is returned when a file is declared twice in one registry.
var ErrFileLoaded = errors.New("file already loaded")

// HookTypeError is returned by a hook registrar given a nil function.
type HookTypeError struct {
	Kind HookKind
}

func (e *HookTypeError) Error() string {
	return fmt.Sprintf("%s expects a function", e.Kind)
}

// ConfigError is returned when a test's effective URL cannot be resolved from any of the
// permitted sources.
type ConfigError struct {
	Title string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("test %q: URL must be provided either through (1) env var %s, (2) the url field of the config file, or (3) in group or test options",
		e.Title, URLEnvVar)
}

// URLEnvVar is the environment variable that supplies the worker default URL.
const URLEnvVar = "TESTDECK_URL"
