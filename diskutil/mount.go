package diskutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryptboot/bootunlock/interfaces"
)

// Mount mounts a volume under the canonical mount root. ref is a mapper
// name when mapped is set, otherwise a raw device path. folder selects the
// mount point name and defaults to the device's base name. An
// already-mounted mount point returns success without invoking the mount
// backend.
func (m *Manager) Mount(ref string, mapped bool, folder string) error {
	if ref == "" {
		return fmt.Errorf("%w: empty volume reference", interfaces.ErrInvalidDescriptor)
	}

	device := ref
	if mapped {
		if ref != filepath.Base(ref) {
			return fmt.Errorf("%w: mapped reference %q must be a bare mapper name", interfaces.ErrInvalidDescriptor, ref)
		}
		device = m.Paths.MapperDevice(ref)
	}

	if folder == "" {
		folder = filepath.Base(device)
	}
	mountPoint := m.Paths.MountPoint(folder)

	if m.MountPointMounted(mountPoint) {
		m.Log.Debug("mount point already mounted, skipping", "mountpoint", mountPoint)
		return nil
	}

	fsType, err := m.Resolver.ResolveType(device)
	if err != nil {
		m.Display.Failure(fmt.Sprintf("Could not determine filesystem type of %s", device))
		return fmt.Errorf("could not resolve filesystem type: %w", err)
	}

	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		return fmt.Errorf("could not create mount point %s: %w", mountPoint, err)
	}

	if err := m.Runner.Run("mount", "-t", fsType, device, mountPoint); err != nil {
		m.Display.Failure(fmt.Sprintf("Could not mount %s on %s", device, mountPoint))
		return fmt.Errorf("could not mount %s on %s: %w", device, mountPoint, err)
	}

	m.Log.Info("volume mounted", "device", device, "mountpoint", mountPoint, "fstype", fsType)
	return nil
}

// UnlockAndMount sequences Unlock and Mount as one logical step,
// short-circuiting on unlock failure.
func (m *Manager) UnlockAndMount(desc interfaces.VolumeDescriptor, folder string) error {
	if err := m.Unlock(desc); err != nil {
		return err
	}
	return m.Mount(desc.MapperName, true, folder)
}
