package voice

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel wrapped by every [ConfigError]. Callers use
// errors.Is(err, ErrConfiguration) to tell a broken voice setup apart from an
// upstream provider failure.
var ErrConfiguration = errors.New("voice: configuration error")

// ConfigError reports a voice catalog or synthesis profile that cannot be
// used. It is fatal at startup and aborts synthesis at request time; it is
// never resolved by falling back to defaults.
type ConfigError struct {
	// Voice is the voice name involved, if any.
	Voice string

	// Reason describes the problem.
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Voice == "" {
		return fmt.Sprintf("voice: configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("voice: configuration error: voice %q: %s", e.Voice, e.Reason)
}

// Unwrap makes errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
