package service

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const fingerprintBytes = 12

// Blake2bFingerprinter implements ports.Fingerprinter with keyed BLAKE2b-256.
type Blake2bFingerprinter struct {
	key []byte
}

// NewBlake2bFingerprinter creates a fingerprinter. key may be empty and must
// not exceed 64 bytes.
func NewBlake2bFingerprinter(key string) (*Blake2bFingerprinter, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("fingerprint key must be at most %d bytes, got %d", blake2b.Size, len(key))
	}
	return &Blake2bFingerprinter{key: []byte(key)}, nil
}

// Fingerprint returns a short hex token for value. Equal inputs under the
// same key always give equal tokens.
func (f *Blake2bFingerprinter) Fingerprint(value string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// Key length is checked in the constructor.
		panic(err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)[:fingerprintBytes])
}
