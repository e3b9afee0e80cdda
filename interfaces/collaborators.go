package interfaces

// Runner executes external commands with a structured argument list.
// Secrets are passed on stdin, never interpolated into a shell string.
type Runner interface {
	// Run executes a command and waits for it, discarding output.
	Run(name string, args ...string) error

	// RunWithInput executes a command with the given stdin contents.
	RunWithInput(input string, name string, args ...string) error

	// Output executes a command and returns its stdout.
	Output(name string, args ...string) ([]byte, error)
}

// Prompter reads a passphrase from the operator. It blocks indefinitely;
// there is no timeout in the boot environment.
type Prompter interface {
	ReadPassphrase(prompt string) (string, error)
}

// OperatorShell suspends the boot script into an interactive session until
// the operator ends it.
type OperatorShell interface {
	Suspend() error
}

// Display emits operator-facing text. Implementations must fall back to
// plain text when no splash endpoint is available.
type Display interface {
	// Message shows an informational status line.
	Message(text string)

	// Failure shows a failure diagnostic.
	Failure(text string)
}

// FSTypeResolver detects the filesystem type of a device. Resolution
// failure is terminal for a mount attempt.
type FSTypeResolver interface {
	ResolveType(device string) (string, error)
}

// CredentialStore is the session-scoped passphrase cache. Append has no
// error conditions; persistence problems are absorbed so that an unlock is
// never blocked by cache bookkeeping.
type CredentialStore interface {
	// Append records a passphrase that just unlocked a volume. No
	// uniqueness check is performed.
	Append(passphrase string)

	// ForEach tries cached passphrases in insertion order, stopping at the
	// first one for which try returns true. It reports whether any entry
	// matched.
	ForEach(try func(passphrase string) bool) bool
}

// SecureEraser irreversibly destroys the credential store's backing
// storage. Erase never fails from the caller's perspective.
type SecureEraser interface {
	Erase(iterations int)
}
