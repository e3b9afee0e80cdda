package recovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/google/uuid"
)

// Supervisor wraps orchestration steps under a recovery policy.
type Supervisor struct {
	Policy  interfaces.RecoveryPolicy
	RunDir  string
	Eraser  interfaces.SecureEraser
	Shell   interfaces.OperatorShell
	Display interfaces.Display
	Log     *slog.Logger
}

// Run executes op. On failure it enters the recovery protocol and returns
// one of: nil (retried to success), an error wrapping
// interfaces.ErrStepSkipped, interfaces.ErrAborted or
// interfaces.ErrRestartRequested.
func (s *Supervisor) Run(step string, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	s.Log.Error("step failed, entering recovery", "step", step, "policy", s.Policy.String(), "err", err)

	// The cache is destroyed on every recovery entry, regardless of policy.
	s.Eraser.Erase(interfaces.DefaultEraseIterations)

	marker := s.createMarker(step)

	policy := s.Policy
	if !policy.Valid() {
		// Fail-closed: an unknown policy is itself a failure and the whole
		// script is restarted through the rerun protocol.
		s.Display.Failure(fmt.Sprintf("Invalid recovery policy %q, restarting boot script", s.Policy))
		policy = interfaces.PolicyRerun
	}

	switch policy {
	case interfaces.PolicyContinue, interfaces.PolicyExit:
		return s.retryLoop(policy, step, op, err, marker)
	default:
		return s.singlePass(step, marker)
	}
}

// retryLoop implements the continue and exit policies. The two differ only
// in how a removed marker resolves.
func (s *Supervisor) retryLoop(policy interfaces.RecoveryPolicy, step string, op func() error, cause error, marker string) error {
	for {
		s.Display.Failure(s.instructions(policy, step, marker, cause))
		s.suspend()

		if !markerExists(marker) {
			if policy == interfaces.PolicyContinue {
				s.Log.Warn("operator skipped step", "step", step)
				return fmt.Errorf("step %q: %w: %w", step, interfaces.ErrStepSkipped, cause)
			}
			s.Log.Error("operator aborted boot script", "step", step)
			return fmt.Errorf("step %q: %w", step, interfaces.ErrAborted)
		}

		if err := op(); err == nil {
			s.removeMarker(marker)
			s.Display.Message(fmt.Sprintf("Step %q recovered", step))
			s.Log.Info("step recovered after retry", "step", step)
			return nil
		} else {
			cause = err
			s.Log.Error("retry failed", "step", step, "err", err)
		}
	}
}

// singlePass implements the rerun policy: one operator session, then
// either a whole-script restart (marker intact) or an abort.
func (s *Supervisor) singlePass(step string, marker string) error {
	s.Display.Failure(s.instructions(interfaces.PolicyRerun, step, marker, nil))
	s.suspend()

	if markerExists(marker) {
		s.removeMarker(marker)
		s.Log.Info("restarting boot script", "step", step)
		return fmt.Errorf("step %q: %w", step, interfaces.ErrRestartRequested)
	}
	s.Log.Error("operator aborted boot script", "step", step)
	return fmt.Errorf("step %q: %w", step, interfaces.ErrAborted)
}

func (s *Supervisor) suspend() {
	if err := s.Shell.Suspend(); err != nil {
		s.Log.Warn("operator shell error", "err", err)
	}
}

// createMarker writes a fresh, uniquely named recovery session marker. If
// the marker cannot be created the protocol degrades to the
// marker-removed outcome, which never retries blindly.
func (s *Supervisor) createMarker(step string) string {
	marker := filepath.Join(s.RunDir, "recover-"+uuid.NewString())
	if err := os.MkdirAll(s.RunDir, 0700); err != nil {
		s.Log.Warn("could not create run directory for recovery marker", "err", err)
		return marker
	}
	if err := os.WriteFile(marker, []byte(step+"\n"), 0600); err != nil {
		s.Log.Warn("could not create recovery marker", "path", marker, "err", err)
	}
	return marker
}

func (s *Supervisor) removeMarker(marker string) {
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		s.Log.Warn("could not remove recovery marker", "path", marker, "err", err)
	}
}

func markerExists(marker string) bool {
	_, err := os.Stat(marker)
	return err == nil
}

func (s *Supervisor) instructions(policy interfaces.RecoveryPolicy, step, marker string, cause error) string {
	head := fmt.Sprintf("Step %q failed", step)
	if cause != nil {
		head = fmt.Sprintf("%s: %v", head, cause)
	}

	switch policy {
	case interfaces.PolicyContinue:
		return fmt.Sprintf("%s.\nA recovery shell will open. Fix the problem and exit the shell to retry.\nRemove %s to skip this step and continue booting.", head, marker)
	case interfaces.PolicyExit:
		return fmt.Sprintf("%s.\nA recovery shell will open. Fix the problem and exit the shell to retry.\nRemove %s to abort the boot script.", head, marker)
	default:
		return fmt.Sprintf("%s.\nA recovery shell will open. Exit the shell to restart the boot script from the beginning.\nRemove %s to abort instead.", head, marker)
	}
}
