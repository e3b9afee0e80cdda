// Package system provides the real boot-environment collaborators:
// silent subprocess execution, the operator recovery shell and blkid-based
// filesystem type resolution.
package system

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cryptboot/bootunlock/interfaces"
)

// ExecRunner implements interfaces.Runner with os/exec. Command output is
// discarded; results are conveyed by exit status only.
type ExecRunner struct{}

// Run executes a command and waits for it.
func (ExecRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// RunWithInput executes a command with input as stdin. Secrets travel
// through the pipe, never through the argument list.
func (ExecRunner) RunWithInput(input, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(input)
	return cmd.Run()
}

// Output executes a command and returns its stdout.
func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// InteractiveShell implements interfaces.OperatorShell by handing the
// console to a shell until the operator exits it.
type InteractiveShell struct {
	// Path of the shell binary; defaults to /bin/sh.
	Path string
}

// Suspend blocks until the operator ends the shell session.
func (s InteractiveShell) Suspend() error {
	shell := s.Path
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell, "-i")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("operator shell exited abnormally: %w", err)
	}
	return nil
}

// BlkidResolver implements interfaces.FSTypeResolver using blkid.
type BlkidResolver struct {
	Runner interfaces.Runner
}

// ResolveType returns the filesystem type of device.
func (r BlkidResolver) ResolveType(device string) (string, error) {
	out, err := r.Runner.Output("blkid", "-o", "value", "-s", "TYPE", device)
	if err != nil {
		return "", fmt.Errorf("could not probe %s: %w", device, err)
	}

	fsType := strings.TrimSpace(string(out))
	if fsType == "" {
		return "", fmt.Errorf("no filesystem detected on %s", device)
	}
	return fsType, nil
}
