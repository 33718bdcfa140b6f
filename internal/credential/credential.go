// Package credential stores provider tokens in one of two backends and
// resolves which one a token is read from.
//
// The file backend keeps one JSON record per provider in a private
// directory. The secure backend uses the OS keychain through go-keyring.
// Reads prefer the secure backend; writes go to exactly the backend asked for.
package credential

import (
	"errors"
	"fmt"
)

// Backend names a credential backend.
type Backend string

// Backends
const (
	BackendFile   Backend = "file"
	BackendSecure Backend = "keychain"
)

// Sentinel errors
var (
	// ErrNotFound is returned when a backend holds no token for a provider
	ErrNotFound = errors.New("token not found")
	// ErrInsecurePermissions is returned when a token record is readable by
	// group or others
	ErrInsecurePermissions = errors.New("token file has insecure permissions")
)

// Store is a token backend.
type Store interface {
	// Name identifies the backend
	Name() Backend
	// Get returns the token for provider or an error wrapping ErrNotFound
	Get(provider string) (string, error)
	// Set stores token for provider, replacing any previous token
	Set(provider, token string) error
	// List returns the providers that have a token, sorted
	List() ([]string, error)
}

// BackendError reports a backend failure other than a missing token.
type BackendError struct {
	Backend Backend
	// Op is "read" or "write"
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Operations recorded on BackendError
const (
	OpRead  = "read"
	OpWrite = "write"
)

func notFound(backend Backend, provider string) error {
	return fmt.Errorf("%w for %s in %s backend", ErrNotFound, provider, backend)
}
