package diskutil

import (
	"fmt"
)

// Teardown unmounts and closes a mapped volume. An unmount failure is
// returned immediately without attempting to close the mapper; a close
// failure is returned as well. If neither step is needed the call
// succeeds.
//
// Callers aggregating several independent teardowns must combine outcomes
// logically (success iff all succeeded), never by arithmetic on exit
// codes.
func (m *Manager) Teardown(mapperName string) error {
	device := m.Paths.MapperDevice(mapperName)

	if m.deviceMounted(device) {
		if err := m.Runner.Run("umount", device); err != nil {
			return fmt.Errorf("could not unmount %s: %w", device, err)
		}
		m.Log.Info("volume unmounted", "device", device)
	}

	if m.MapperActive(mapperName) {
		if err := m.Runner.Run("cryptsetup", "close", mapperName); err != nil {
			return fmt.Errorf("could not close mapper %s: %w", mapperName, err)
		}
		m.Log.Info("mapper closed", "mapper", mapperName)
	}

	return nil
}
