package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Key format: rk_{env}_{prefix}_{secret}
// Example: rk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	EnvLive = "live"
	EnvTest = "test"
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid admin key format")

	keyFormat = regexp.MustCompile(`^rk_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedKey is a new admin key and the hash to put in ADMIN_API_KEY_HASH.
type GeneratedKey struct {
	Plaintext string
	Hash      string
	Prefix    string
}

// GenerateKey creates a new admin key for env ("live" or "test").
func GenerateKey(env string, p Params) (*GeneratedKey, error) {
	if env != EnvLive && env != EnvTest {
		return nil, fmt.Errorf("unknown key environment %q", env)
	}

	buf := make([]byte, 3+16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	prefix := hex.EncodeToString(buf[:3])
	plaintext := fmt.Sprintf("rk_%s_%s_%s", env, prefix, hex.EncodeToString(buf[3:]))

	hash, err := HashKey(plaintext, p)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// KeyPrefix returns the visible prefix of a well-formed key.
func KeyPrefix(key string) (string, error) {
	m := keyFormat.FindStringSubmatch(key)
	if m == nil {
		return "", ErrInvalidKeyFormat
	}
	return m[2], nil
}
