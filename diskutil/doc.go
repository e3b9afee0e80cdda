// Package diskutil manages encrypted volume unlock, mount and teardown
// during early boot.
//
// The package wraps cryptsetup, mount and umount behind the collaborator
// interfaces declared in the interfaces package. All operations are
// strictly sequential and idempotent with respect to this component's own
// repeated calls: an already-active mapper or an already-mounted mount
// point short-circuits to success without invoking any backend.
//
// Main operations:
//   - Unlock: opens a LUKS volume via key-file or cached/interactive
//     passphrases under a bounded retry budget
//   - Mount: mounts a raw or mapped device under the canonical mount root
//   - UnlockAndMount: sequences the two as one logical step
//   - Teardown: unmounts and closes a mapped volume
//
// Predicates follow the boot environment's conventions: a mapper device's
// existence under the mapper directory is the "unlocked" state, membership
// in the live mount table is the "mounted" state.
package diskutil
