// Package session ties the orchestration components together for one boot
// session.
//
// A Session is the explicit context object passed through every
// orchestration call: session identity, credential cache, recovery policy
// and the boot-environment collaborators. Nothing is process-global.
//
// Run executes a plan of volumes strictly in order - sequencing is a
// correctness requirement, since a later volume's header or key-file may
// live on an earlier, now-mounted volume - wrapping each unlock-and-mount
// step in the recovery supervisor. At the end of a completed sequence the
// credential cache is securely erased and intermediate volumes (those that
// only existed to hold headers or key-files) are torn down, with outcomes
// aggregated logically.
//
// A whole-script restart requested during recovery surfaces as
// interfaces.ErrRestartRequested; the command driver rebuilds the session
// and re-invokes Run.
package session
