package credcache

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// cacheKeySalt binds derived keys to this cache; the seed itself is the
// secret input.
var cacheKeySalt = []byte("bootunlock-credential-cache")

// deriveCacheKey derives the AES key from the session seed.
// Parameters: time=1, memory=64*1024, threads=4, keyLen=32.
func deriveCacheKey(seed []byte) []byte {
	return argon2.IDKey(seed, cacheKeySalt, 1, 64*1024, 4, 32)
}

// sealEnvelope encrypts plaintext as nonce||ciphertext with AES-GCM.
func sealEnvelope(seed, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(deriveCacheKey(seed))
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("could not generate nonce: %w", err)
	}

	return append(nonce, aead.Seal(nil, nonce, plaintext, nil)...), nil
}

// openEnvelope decrypts data produced by sealEnvelope.
func openEnvelope(seed, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(deriveCacheKey(seed))
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	if len(data) < aead.NonceSize() {
		return nil, errors.New("sealed data too short")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
