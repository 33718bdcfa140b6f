package credential

import (
	"errors"
	"fmt"

	"switchclaude/internal/log"
)

// Presence describes whether a backend holds a token.
type Presence int

// Presence values
const (
	Absent Presence = iota
	Present
	Unavailable
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "stored"
	case Unavailable:
		return "unavailable"
	default:
		return "-"
	}
}

// TokenStatus reports where a provider's token is stored. It never carries
// the token itself.
type TokenStatus struct {
	Provider string
	Secure   Presence
	File     Presence
	// Resolved is the backend Resolve would read from, empty when neither
	// holds a token
	Resolved Backend
}

// Resolver reads tokens from the secure backend first, then the file backend.
type Resolver struct {
	secure Store
	file   Store
}

// NewResolver creates a Resolver
func NewResolver(secure, file Store) *Resolver {
	return &Resolver{secure: secure, file: file}
}

// Resolve returns the token for provider and the backend it came from. The
// file backend is consulted when the secure backend has no token or no
// keychain exists on this platform; any other secure failure is returned.
func (r *Resolver) Resolve(provider string) (string, Backend, error) {
	token, err := r.secure.Get(provider)
	switch {
	case err == nil:
		log.Debug("token resolved", "provider", provider, "backend", r.secure.Name())
		return token, r.secure.Name(), nil
	case errors.Is(err, ErrNotFound):
	case IsUnsupported(err):
		log.Debug("no keychain on this platform, using file backend", "provider", provider)
	default:
		return "", "", err
	}

	token, err = r.file.Get(provider)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", "", fmt.Errorf("%w for provider %s", ErrNotFound, provider)
		}
		return "", "", err
	}
	log.Debug("token resolved", "provider", provider, "backend", r.file.Name())
	return token, r.file.Name(), nil
}

func presence(s Store, provider string) (Presence, error) {
	_, err := s.Get(provider)
	switch {
	case err == nil:
		return Present, nil
	case errors.Is(err, ErrNotFound):
		return Absent, nil
	default:
		log.Debug("token status unavailable", "backend", s.Name(), "provider", provider, "error", err)
		return Unavailable, err
	}
}

// Status reports token presence for each provider in names
func (r *Resolver) Status(names []string) []TokenStatus {
	statuses := make([]TokenStatus, 0, len(names))
	for _, name := range names {
		st := TokenStatus{Provider: name}
		var secureErr error
		st.Secure, secureErr = presence(r.secure, name)
		st.File, _ = presence(r.file, name)
		switch {
		case st.Secure == Present:
			st.Resolved = r.secure.Name()
		case secureErr != nil && !IsUnsupported(secureErr):
			// Resolve fails until the keychain can be read
		case st.File == Present:
			st.Resolved = r.file.Name()
		}
		statuses = append(statuses, st)
	}
	return statuses
}
