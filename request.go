package flow

import (
	"fmt"
	"time"
)

// Request carries one generation exchange's parameters. The gateway uses
// its own defaults when fields are zero/nil.
type Request struct {
	Path       string         // endpoint path on the gateway, required
	Capability string         // pipeline capability, e.g. "text-generation"
	Prompt     string
	Parameters map[string]any // capability-specific knobs, serialized as-is
	Timeout    time.Duration  // passed through to the gateway; 0 = client default
}

// Validate checks universal constraints on Request. Opener implementations
// may apply additional transport-specific validation.
func (r Request) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("request path must not be empty: %w", ErrValidation)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s: %w", r.Timeout, ErrValidation)
	}
	return nil
}
