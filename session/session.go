package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cryptboot/bootunlock/credcache"
	"github.com/cryptboot/bootunlock/diskutil"
	"github.com/cryptboot/bootunlock/interfaces"
	"github.com/cryptboot/bootunlock/recovery"
	"github.com/google/uuid"
)

// ErrSequenceIncomplete reports that the boot sequence finished but one or
// more volumes were skipped or could not be torn down.
var ErrSequenceIncomplete = errors.New("boot sequence completed with failures")

// Session is the context object for one boot session.
type Session struct {
	ID      uuid.UUID
	Policy  interfaces.RecoveryPolicy
	Paths   interfaces.Paths
	Cache   *credcache.Cache
	Disks   *diskutil.Manager
	Display interfaces.Display
	Shell   interfaces.OperatorShell
	Log     *slog.Logger
}

// New builds a session around an already-wired disk manager. The session
// logger carries the session id.
func New(policy interfaces.RecoveryPolicy, paths interfaces.Paths, cache *credcache.Cache, disks *diskutil.Manager, shell interfaces.OperatorShell, log *slog.Logger) *Session {
	id := uuid.Must(uuid.NewRandom())
	return &Session{
		ID:      id,
		Policy:  policy,
		Paths:   paths,
		Cache:   cache,
		Disks:   disks,
		Display: disks.Display,
		Shell:   shell,
		Log:     log.With("session", id.String()),
	}
}

func (s *Session) supervisor() *recovery.Supervisor {
	return &recovery.Supervisor{
		Policy:  s.Policy,
		RunDir:  s.Paths.RunDir,
		Eraser:  s.Cache,
		Shell:   s.Shell,
		Display: s.Display,
		Log:     s.Log,
	}
}

// Run executes the plan in order, each step supervised. A skipped step
// lets the sequence proceed and is reported at the end; an abort or
// restart request propagates immediately.
func (s *Session) Run(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	sup := s.supervisor()
	skipped := 0
	for _, step := range plan.Volumes {
		step := step
		err := sup.Run(step.Name(), func() error {
			return s.Disks.UnlockAndMount(step.VolumeDescriptor, step.Folder)
		})
		switch {
		case err == nil:
		case errors.Is(err, interfaces.ErrStepSkipped):
			skipped++
			s.Log.Warn("continuing past skipped step", "step", step.Name())
		default:
			return err
		}
	}

	teardownOK := s.Finish(plan)
	if skipped > 0 || !teardownOK {
		return fmt.Errorf("%w: %d skipped", ErrSequenceIncomplete, skipped)
	}
	return nil
}

// Finish destroys the credential cache and tears down intermediate
// volumes. The teardown outcome is the logical conjunction of the
// individual results.
func (s *Session) Finish(plan Plan) bool {
	s.Cache.Erase(interfaces.DefaultEraseIterations)

	ok := true
	for _, step := range plan.Volumes {
		if !step.Intermediate {
			continue
		}
		if err := s.Disks.Teardown(step.MapperName); err != nil {
			s.Log.Error("teardown of intermediate volume failed", "mapper", step.MapperName, "err", err)
			ok = false
		}
	}
	return ok
}
