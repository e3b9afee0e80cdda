package diskutil

import (
	"log/slog"
	"os"
	"strings"

	"github.com/cryptboot/bootunlock/interfaces"
)

// Manager performs unlock, mount and teardown operations for encrypted
// volumes. All external effects go through the collaborator interfaces so
// the orchestration logic can be tested without block devices.
type Manager struct {
	Paths    interfaces.Paths
	Runner   interfaces.Runner
	Resolver interfaces.FSTypeResolver
	Cache    interfaces.CredentialStore
	Prompter interfaces.Prompter
	Display  interfaces.Display
	Log      *slog.Logger
}

// MapperActive reports whether the mapper device exists, i.e. the volume
// is already unlocked.
func (m *Manager) MapperActive(mapperName string) bool {
	_, err := os.Stat(m.Paths.MapperDevice(mapperName))
	return err == nil
}

// MountPointMounted reports whether the mount point is in the live mount
// table.
func (m *Manager) MountPointMounted(mountPoint string) bool {
	data, err := os.ReadFile(m.Paths.ProcMounts)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), " "+mountPoint+" ")
}

// deviceMounted reports whether the device appears as a mount source in
// the live mount table.
func (m *Manager) deviceMounted(device string) bool {
	data, err := os.ReadFile(m.Paths.ProcMounts)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == device {
			return true
		}
	}
	return false
}
