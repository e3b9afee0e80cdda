package diskutil

import (
	"fmt"

	"github.com/cryptboot/bootunlock/interfaces"
)

// Unlock opens the encrypted volume described by desc. If the mapper
// device already exists the call is a no-op: no prompts, no cache writes.
//
// With a key-file configured, exactly one unlock attempt is made and the
// credential cache is not touched in either direction. Otherwise cached
// passphrases are tried in insertion order first, then the operator is
// prompted for up to desc.MaxAttempts rounds; a passphrase that succeeds
// interactively is appended to the cache.
func (m *Manager) Unlock(desc interfaces.VolumeDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	if m.MapperActive(desc.MapperName) {
		m.Log.Debug("mapper already active, skipping unlock", "mapper", desc.MapperName)
		return nil
	}

	if desc.HasKeyfile() {
		return m.unlockWithKeyfile(desc)
	}
	return m.unlockWithPassphrases(desc)
}

// openArgs builds the cryptsetup argv. Discard pass-through is always
// requested; header and key-file options only when configured.
func openArgs(desc interfaces.VolumeDescriptor, withKeyfile bool) []string {
	args := []string{"open", "--allow-discards"}
	if desc.HasHeader() {
		args = append(args, "--header", desc.Header)
	}
	if withKeyfile {
		args = append(args, "--key-file", desc.Keyfile)
	}
	return append(args, desc.Device, desc.MapperName)
}

func (m *Manager) unlockWithKeyfile(desc interfaces.VolumeDescriptor) error {
	m.Log.Info("unlocking volume with key-file", "mapper", desc.MapperName, "keyfile", desc.Keyfile)
	if err := m.Runner.Run("cryptsetup", openArgs(desc, true)...); err != nil {
		m.Display.Failure(fmt.Sprintf("Could not unlock %s with key-file %s", desc.MapperName, desc.Keyfile))
		return fmt.Errorf("key-file unlock of %s failed: %w", desc.MapperName, err)
	}
	m.Log.Info("volume unlocked via key-file", "mapper", desc.MapperName)
	return nil
}

func (m *Manager) tryPassphrase(desc interfaces.VolumeDescriptor, passphrase string) bool {
	return m.Runner.RunWithInput(passphrase, "cryptsetup", openArgs(desc, false)...) == nil
}

func (m *Manager) unlockWithPassphrases(desc interfaces.VolumeDescriptor) error {
	if m.Cache.ForEach(func(passphrase string) bool {
		return m.tryPassphrase(desc, passphrase)
	}) {
		m.Log.Info("volume unlocked from credential cache", "mapper", desc.MapperName)
		return nil
	}

	for attempt := 1; attempt <= desc.MaxAttempts; attempt++ {
		passphrase, err := m.Prompter.ReadPassphrase(fmt.Sprintf("Enter passphrase for %s", desc.MapperName))
		if err != nil {
			return fmt.Errorf("could not read passphrase for %s: %w", desc.MapperName, err)
		}

		if m.tryPassphrase(desc, passphrase) {
			m.Cache.Append(passphrase)
			m.Log.Info("volume unlocked interactively", "mapper", desc.MapperName, "attempt", attempt)
			return nil
		}

		remaining := desc.MaxAttempts - attempt
		if remaining > 0 {
			m.Display.Message(fmt.Sprintf("Wrong passphrase for %s, %s", desc.MapperName, attemptsLeft(remaining)))
		}
	}

	m.Display.Failure(fmt.Sprintf("Could not unlock %s, no attempts left", desc.MapperName))
	return fmt.Errorf("unlock of %s: %w", desc.MapperName, interfaces.ErrAttemptsExhausted)
}

func attemptsLeft(remaining int) string {
	if remaining == 1 {
		return "1 attempt left"
	}
	return fmt.Sprintf("%d attempts left", remaining)
}
