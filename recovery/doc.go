// Package recovery implements the supervisor that wraps orchestration
// steps and hands control to an operator when one fails.
//
// On a step failure the supervisor always erases the credential cache,
// creates a uniquely named recovery session marker under the run
// directory, and shows a diagnostic naming the failing step and the
// instructions for the active policy. The marker is the operator's signal:
// its presence or absence after the interactive session decides exactly
// one recovery outcome per failure occurrence.
//
// Policies:
//
//   - continue: retry loop. Each pass opens an operator shell; if the
//     marker was removed the step resolves as skipped and its failure
//     propagates without retrying, otherwise the step is re-attempted and
//     the loop repeats on failure.
//   - exit: same loop, but a removed marker aborts the whole boot script
//     with a nonzero status.
//   - rerun: a single pass. If the marker survives the shell it is removed
//     and the whole script restarts from its entry point; a removed marker
//     aborts.
//
// The asymmetry between the looping policies and rerun's single pass is
// deliberate: it is the observed contract of the recovery protocol, not an
// oversight, and callers must not unify the two shapes.
//
// An invalid policy value is itself a failure: it is reported and the
// failure is re-handled under the rerun policy, restarting the whole
// script.
//
// Restarting is modeled as interfaces.ErrRestartRequested bubbling to an
// outer driver loop that rebuilds initial state and re-invokes the entry
// point; the process image is never replaced in place.
package recovery
