package chunx

import "fmt"

// ConfigError reports an out-of-range or contradictory chunker option. It is
// always returned by a constructor, before any text is processed. Failures of
// the tokenizer or embedding capability are not wrapped in it; they propagate
// to the caller unmodified.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunx: invalid option %s: %s", e.Option, e.Reason)
}

func configErr(option, format string, args ...any) error {
	return &ConfigError{Option: option, Reason: fmt.Sprintf(format, args...)}
}
