// Package interfaces defines the core types and collaborator contracts for
// the bootunlock early-boot volume orchestration system, separating
// interface definitions from implementations.
//
// # Volume Types
//
// VolumeDescriptor: Describes one encrypted volume to unlock - source
// device, mapper name, retry budget and optional detached header and
// key-file locations. A descriptor may depend on another volume being
// mounted first (its header or key-file lives there); that dependency is
// expressed purely by ordering in the caller.
//
// Paths: The fixed filesystem conventions of the boot environment - the
// virtual device (mapper) directory, the canonical mount root, the
// per-session run directory and the live mount table.
//
// RecoveryPolicy: Selects how a failed orchestration step is remediated:
// retry-or-skip (continue), retry-or-abort (exit), or restart the whole
// script (rerun). Parsing is fail-closed; an unknown value is an error,
// never a silent default.
//
// # Collaborator Interfaces
//
// The boot environment is minimal and everything that touches it goes
// through a narrow interface so that the orchestration engine can be
// tested without block devices:
//
//   - Runner: structured subprocess invocation (argv, never a shell string)
//   - Prompter: interactive passphrase entry
//   - OperatorShell: suspension into an interactive recovery session
//   - Display: splash-screen messaging with an enforced plain-text fallback
//   - FSTypeResolver: filesystem type detection for a device
//   - CredentialStore: the session passphrase cache
//   - SecureEraser: irreversible destruction of the credential store
package interfaces
