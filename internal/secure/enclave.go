package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer keeps a password encrypted in memory between uses.
// It wraps memguard.Enclave, so the plaintext only exists inside a
// LockedBuffer while the caller holds it open.
type SecureBuffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed tracks if this buffer has been destroyed to allow
	// idempotent Destroy() calls and prevent use after destroy
	destroyed bool
}

// NewSecureBuffer creates a protected buffer from secret bytes.
// memguard wipes data once it has been copied into the enclave.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	// memguard returns a nil enclave for empty input
	enclave := memguard.NewEnclave(data)

	return &SecureBuffer{
		enclave:   enclave,
		destroyed: false,
	}, nil
}

// NewSecureString creates a protected buffer from a string value.
func NewSecureString(value string) (*SecureBuffer, error) {
	return NewSecureBuffer([]byte(value))
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}

	return s.enclave.Open()
}

// Reveal returns a copy of the plaintext as a string.
// Database drivers take credentials as strings, so the copy is unavoidable;
// callers should keep its scope as small as possible.
func (s *SecureBuffer) Reveal() (string, error) {
	locked, err := s.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()

	// string(...) copies; locked.String() would alias memory freed by Destroy
	return string(locked.Bytes()), nil
}

// Destroy marks this SecureBuffer as destroyed and prevents further use.
// It is idempotent. After Destroy(), Open() returns an empty buffer.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.enclave = nil
	s.destroyed = true
}
