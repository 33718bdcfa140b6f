package credential

import (
	"errors"
	"sort"

	"switchclaude/internal/log"

	gokeyring "github.com/zalando/go-keyring"
)

// SecureBackend stores tokens in the OS keychain under one service, with the
// provider name as account.
type SecureBackend struct {
	service string
	known   []string
}

// NewSecureBackend creates a SecureBackend. known lists the providers checked
// by List, since keychains cannot be enumerated.
func NewSecureBackend(service string, known []string) *SecureBackend {
	return &SecureBackend{service: service, known: known}
}

// Name implements Store
func (b *SecureBackend) Name() Backend {
	return BackendSecure
}

// Get implements Store
func (b *SecureBackend) Get(provider string) (string, error) {
	token, err := gokeyring.Get(b.service, provider)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", notFound(BackendSecure, provider)
		}
		return "", &BackendError{Backend: BackendSecure, Op: OpRead, Err: err}
	}
	if token == "" {
		return "", notFound(BackendSecure, provider)
	}
	return token, nil
}

// Set implements Store. There is no fallback to another backend.
func (b *SecureBackend) Set(provider, token string) error {
	if err := gokeyring.Set(b.service, provider, token); err != nil {
		return &BackendError{Backend: BackendSecure, Op: OpWrite, Err: err}
	}
	log.Debug("token stored", "backend", BackendSecure, "provider", provider, "service", b.service)
	return nil
}

// List implements Store. It stops at the first keychain failure.
func (b *SecureBackend) List() ([]string, error) {
	var names []string
	for _, provider := range b.known {
		_, err := b.Get(provider)
		if err == nil {
			names = append(names, provider)
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsUnsupported reports whether err means no keychain is available on this
// platform.
func IsUnsupported(err error) bool {
	return errors.Is(err, gokeyring.ErrUnsupportedPlatform)
}
