package interfaces

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned for recovery policy values outside the
// known set.
var ErrInvalidPolicy = errors.New("invalid recovery policy")

// RecoveryPolicy selects how the recovery supervisor remediates a failed
// orchestration step.
type RecoveryPolicy string

const (
	// PolicyContinue loops retry attempts; removing the session marker
	// skips the step and lets the boot script proceed.
	PolicyContinue RecoveryPolicy = "continue"

	// PolicyExit loops retry attempts; removing the session marker aborts
	// the boot script with a nonzero status.
	PolicyExit RecoveryPolicy = "exit"

	// PolicyRerun gives the operator a single recovery session, then
	// restarts the whole boot script from its entry point. Removing the
	// session marker aborts instead.
	PolicyRerun RecoveryPolicy = "rerun"
)

// ParseRecoveryPolicy validates a policy string. Unknown values are an
// error, never defaulted.
func ParseRecoveryPolicy(s string) (RecoveryPolicy, error) {
	p := RecoveryPolicy(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
	return p, nil
}

// Valid reports whether the policy is one of the known values.
func (p RecoveryPolicy) Valid() bool {
	switch p {
	case PolicyContinue, PolicyExit, PolicyRerun:
		return true
	}
	return false
}

// String returns the policy's wire form.
func (p RecoveryPolicy) String() string {
	return string(p)
}
