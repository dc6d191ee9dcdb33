package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Verifier checks presented keys against one configured hash. Argon2id costs
// tens of milliseconds, so accepted keys are remembered by digest.
type Verifier struct {
	hash     string
	mu       sync.RWMutex
	accepted map[string]struct{}
}

// NewVerifier validates the encoded hash up front.
func NewVerifier(encodedHash string) (*Verifier, error) {
	if _, err := decodeHash(encodedHash); err != nil {
		return nil, err
	}
	return &Verifier{hash: encodedHash, accepted: make(map[string]struct{})}, nil
}

// Verify reports whether key is the configured admin key.
func (v *Verifier) Verify(key string) bool {
	if _, err := KeyPrefix(key); err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(key))
	id := hex.EncodeToString(digest[:])

	v.mu.RLock()
	_, ok := v.accepted[id]
	v.mu.RUnlock()
	if ok {
		return true
	}

	match, err := VerifyKey(key, v.hash)
	if err != nil || !match {
		return false
	}

	v.mu.Lock()
	v.accepted[id] = struct{}{}
	v.mu.Unlock()
	return true
}
