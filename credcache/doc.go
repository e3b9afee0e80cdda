// Package credcache implements the session-scoped credential cache shared
// across volume unlocks.
//
// The cache is an append-only ordered sequence of passphrases that
// previously unlocked a volume in this boot session. No deduplication is
// performed and correctness does not depend on uniqueness. Entries are
// consumed in insertion order by ForEach, stopping at the first success,
// so a passphrase that unlocked an earlier volume can unlock later ones
// without re-prompting the operator.
//
// Entries are persisted under the session run directory so that a boot
// script restarted mid-session (the rerun recovery policy) does not lose
// already-entered passphrases. The backing file is sealed with AES-GCM
// under an argon2id key derived from a random per-session seed file, so
// the at-rest artifact never contains plaintext passphrases.
//
// Erase destroys the backing storage by overwriting both files a number of
// times and removing them. It always reports success so that boot-sequence
// progress is never blocked by a cleanup failure; an empty cache is lazily
// recreated on next use. Nothing survives the boot session.
package credcache
