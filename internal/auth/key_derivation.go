package auth

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// DerivedKeyLength is 32 bytes, an AES-256 key for the session store
	DerivedKeyLength = 32

	purposeSessionStore = "eventdesk-session-store-v1"
)

// ErrInvalidMasterSecret is returned when the master secret is empty
var ErrInvalidMasterSecret = errors.New("master secret cannot be empty")

// DeriveKey derives a key from a master secret using HKDF-SHA256.
// Different purpose strings give cryptographically independent keys.
func DeriveKey(masterSecret []byte, purpose string) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidMasterSecret
	}

	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(purpose))
	derivedKey := make([]byte, DerivedKeyLength)
	if _, err := io.ReadFull(reader, derivedKey); err != nil {
		return nil, err
	}
	return derivedKey, nil
}

// DeriveStoreKey derives the at-rest encryption key for the session store.
func DeriveStoreKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeSessionStore)
}
