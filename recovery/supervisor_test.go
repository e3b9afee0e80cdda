package recovery

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEraser struct {
	calls []int
}

func (e *fakeEraser) Erase(iterations int) { e.calls = append(e.calls, iterations) }

// scriptedShell runs one callback per suspension, simulating operator
// actions inside the recovery session.
type scriptedShell struct {
	onSuspend []func()
	suspends  int
}

func (s *scriptedShell) Suspend() error {
	if s.suspends < len(s.onSuspend) && s.onSuspend[s.suspends] != nil {
		s.onSuspend[s.suspends]()
	}
	s.suspends++
	return nil
}

type stubDisplay struct {
	messages []string
	failures []string
}

func (d *stubDisplay) Message(text string) { d.messages = append(d.messages, text) }
func (d *stubDisplay) Failure(text string) { d.failures = append(d.failures, text) }

type failNTimes struct {
	failures int
	calls    int
}

func (f *failNTimes) op() error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("backend exited nonzero")
	}
	return nil
}

func removeMarkers(t *testing.T, dir string) func() {
	return func() {
		markers, err := filepath.Glob(filepath.Join(dir, "recover-*"))
		require.NoError(t, err)
		for _, m := range markers {
			require.NoError(t, os.Remove(m))
		}
	}
}

func countMarkers(t *testing.T, dir string) int {
	t.Helper()
	markers, err := filepath.Glob(filepath.Join(dir, "recover-*"))
	require.NoError(t, err)
	return len(markers)
}

func newSupervisor(t *testing.T, policy interfaces.RecoveryPolicy, shell *scriptedShell) (*Supervisor, *fakeEraser, *stubDisplay) {
	t.Helper()
	eraser := &fakeEraser{}
	display := &stubDisplay{}
	sup := &Supervisor{
		Policy:  policy,
		RunDir:  t.TempDir(),
		Eraser:  eraser,
		Shell:   shell,
		Display: display,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return sup, eraser, display
}

func TestSuccessBypassesRecovery(t *testing.T) {
	shell := &scriptedShell{}
	sup, eraser, display := newSupervisor(t, interfaces.PolicyContinue, shell)

	err := sup.Run("unlock-and-mount cryptdata", func() error { return nil })

	require.NoError(t, err)
	assert.Zero(t, shell.suspends)
	assert.Empty(t, eraser.calls)
	assert.Empty(t, display.failures)
}

func TestContinueRetrySuccess(t *testing.T) {
	shell := &scriptedShell{}
	sup, eraser, display := newSupervisor(t, interfaces.PolicyContinue, shell)
	step := &failNTimes{failures: 1}

	err := sup.Run("unlock-and-mount cryptdata", step.op)

	require.NoError(t, err)
	assert.Equal(t, 2, step.calls)
	assert.Equal(t, 1, shell.suspends)
	assert.Equal(t, []int{interfaces.DefaultEraseIterations}, eraser.calls)
	assert.Zero(t, countMarkers(t, sup.RunDir), "marker removed on success")
	require.NotEmpty(t, display.failures)
	assert.Contains(t, display.failures[0], "unlock-and-mount cryptdata")
}

func TestContinueLoopsUntilRetrySucceeds(t *testing.T) {
	shell := &scriptedShell{}
	sup, _, _ := newSupervisor(t, interfaces.PolicyContinue, shell)
	step := &failNTimes{failures: 3}

	err := sup.Run("step", step.op)

	require.NoError(t, err)
	assert.Equal(t, 4, step.calls)
	assert.Equal(t, 3, shell.suspends)
}

func TestContinueOperatorSkips(t *testing.T) {
	sup, _, _ := newSupervisor(t, interfaces.PolicyContinue, nil)
	shell := &scriptedShell{onSuspend: []func(){removeMarkers(t, sup.RunDir)}}
	sup.Shell = shell
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrStepSkipped)
	assert.Equal(t, 1, step.calls, "skip must not retry")
	assert.Equal(t, 1, shell.suspends)
}

func TestExitOperatorAborts(t *testing.T) {
	sup, _, _ := newSupervisor(t, interfaces.PolicyExit, nil)
	shell := &scriptedShell{onSuspend: []func(){removeMarkers(t, sup.RunDir)}}
	sup.Shell = shell
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrAborted)
	assert.Equal(t, 1, step.calls)
}

func TestExitRetrySuccess(t *testing.T) {
	shell := &scriptedShell{}
	sup, _, _ := newSupervisor(t, interfaces.PolicyExit, shell)
	step := &failNTimes{failures: 2}

	err := sup.Run("step", step.op)

	require.NoError(t, err)
	assert.Equal(t, 3, step.calls)
}

func TestRerunRestartsOnce(t *testing.T) {
	shell := &scriptedShell{}
	sup, _, _ := newSupervisor(t, interfaces.PolicyRerun, shell)
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrRestartRequested)
	assert.Equal(t, 1, step.calls, "rerun is a single pass, no retry loop")
	assert.Equal(t, 1, shell.suspends)
	assert.Zero(t, countMarkers(t, sup.RunDir), "marker consumed by the restart decision")
}

func TestRerunOperatorAborts(t *testing.T) {
	sup, _, _ := newSupervisor(t, interfaces.PolicyRerun, nil)
	shell := &scriptedShell{onSuspend: []func(){removeMarkers(t, sup.RunDir)}}
	sup.Shell = shell
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrAborted)
	assert.Equal(t, 1, step.calls)
}

func TestInvalidPolicyRestartsScript(t *testing.T) {
	shell := &scriptedShell{}
	sup, eraser, display := newSupervisor(t, interfaces.RecoveryPolicy("bogus"), shell)
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrRestartRequested)
	assert.NotEmpty(t, eraser.calls, "cache erased even under an invalid policy")
	require.NotEmpty(t, display.failures)
	assert.Contains(t, display.failures[0], "bogus")
}

func TestMarkerCreatedPerFailure(t *testing.T) {
	sup, _, _ := newSupervisor(t, interfaces.PolicyContinue, nil)
	var seen int
	shell := &scriptedShell{onSuspend: []func(){
		func() {
			seen = countMarkers(t, sup.RunDir)
			removeMarkers(t, sup.RunDir)()
		},
	}}
	sup.Shell = shell
	step := &failNTimes{failures: 100}

	err := sup.Run("step", step.op)

	require.ErrorIs(t, err, interfaces.ErrStepSkipped)
	assert.Equal(t, 1, seen, "exactly one marker per failure occurrence")
}
