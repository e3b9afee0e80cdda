package interfaces

import (
	"errors"
	"fmt"
	"path/filepath"
)

// NoKeyfile is the sentinel key-file value meaning "no key-file, use
// passphrases". An empty string is treated the same way.
const NoKeyfile = "-"

// DefaultEraseIterations is the number of overwrite passes used when
// destroying the credential store's backing files.
const DefaultEraseIterations = 10

// Sentinel errors shared across packages.
var (
	// ErrRestartRequested signals that the whole boot script must be
	// restarted from its entry point. It is consumed by the outer driver
	// loop, never by individual steps.
	ErrRestartRequested = errors.New("boot script restart requested")

	// ErrAborted signals that the operator chose to abort the boot script.
	ErrAborted = errors.New("recovery aborted by operator")

	// ErrStepSkipped signals that the operator chose to skip a failed step
	// and let the boot script proceed.
	ErrStepSkipped = errors.New("step skipped by operator")

	// ErrAttemptsExhausted is returned when the interactive retry budget
	// for a volume is used up without a successful unlock.
	ErrAttemptsExhausted = errors.New("passphrase attempts exhausted")

	// ErrInvalidDescriptor is returned for descriptors that fail validation.
	ErrInvalidDescriptor = errors.New("invalid volume descriptor")
)

// VolumeDescriptor describes one encrypted volume to unlock and mount.
type VolumeDescriptor struct {
	// Device is the source block device path.
	Device string `json:"device"`

	// MapperName is the name the unlocked volume is exposed under in the
	// mapper directory.
	MapperName string `json:"mapper_name"`

	// MaxAttempts bounds the interactive passphrase rounds. It does not
	// apply to key-file unlocks, which get exactly one attempt.
	MaxAttempts int `json:"max_attempts"`

	// Header is an optional detached LUKS header path.
	Header string `json:"header,omitempty"`

	// Keyfile is an optional key-file path. Empty or NoKeyfile means
	// passphrase mode.
	Keyfile string `json:"keyfile,omitempty"`
}

// HasKeyfile reports whether the descriptor configures a key-file unlock.
func (d VolumeDescriptor) HasKeyfile() bool {
	return d.Keyfile != "" && d.Keyfile != NoKeyfile
}

// HasHeader reports whether the descriptor configures a detached header.
func (d VolumeDescriptor) HasHeader() bool {
	return d.Header != "" && d.Header != NoKeyfile
}

// Validate checks the descriptor for caller-argument errors. These are
// fatal, never silently defaulted.
func (d VolumeDescriptor) Validate() error {
	if d.Device == "" {
		return fmt.Errorf("%w: device is required", ErrInvalidDescriptor)
	}
	if d.MapperName == "" || d.MapperName != filepath.Base(d.MapperName) {
		return fmt.Errorf("%w: mapper name %q must be a bare name", ErrInvalidDescriptor, d.MapperName)
	}
	if !d.HasKeyfile() && d.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidDescriptor)
	}
	return nil
}

// Paths holds the filesystem conventions of the boot environment.
type Paths struct {
	// MapperDir is the virtual device directory unlocked volumes appear in.
	MapperDir string

	// MountRoot is the canonical directory mount points are created under.
	MountRoot string

	// RunDir holds session artifacts: the credential cache backing files
	// and recovery session markers.
	RunDir string

	// ProcMounts is the live mount table.
	ProcMounts string
}

// DefaultPaths returns the conventional early-boot paths.
func DefaultPaths() Paths {
	return Paths{
		MapperDir:  "/dev/mapper",
		MountRoot:  "/mnt",
		RunDir:     "/run/bootunlock",
		ProcMounts: "/proc/mounts",
	}
}

// MapperDevice returns the virtual device path for a mapper name.
func (p Paths) MapperDevice(mapperName string) string {
	return filepath.Join(p.MapperDir, mapperName)
}

// MountPoint returns the mount point path for a folder name.
func (p Paths) MountPoint(folder string) string {
	return filepath.Join(p.MountRoot, folder)
}
