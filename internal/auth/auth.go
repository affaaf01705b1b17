// Package auth validates inbound request credentials.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/berryhill/draftfly-wp/internal/config"
	"github.com/berryhill/draftfly-wp/internal/keystore"
)

var (
	// ErrMissingKey: the caller sent no credential header.
	ErrMissingKey = errors.New("api key is required")
	// ErrNotConfigured: no credential is stored server-side. Distinct from
	// ErrInvalidKey so misconfiguration surfaces as a server error, not a
	// caller error.
	ErrNotConfigured = errors.New("api key not configured")
	// ErrInvalidKey: the presented credential does not match.
	ErrInvalidKey = errors.New("invalid api key")

	ErrMissingAdminToken  = errors.New("admin token is required")
	ErrAdminNotConfigured = errors.New("admin token not configured")
	ErrInvalidAdminToken  = errors.New("invalid admin token")
)

// Provider validates the credential on an inbound request.
type Provider interface {
	Authenticate(r *http.Request) error
}

// KeySource yields the currently stored API key.
type KeySource interface {
	Current() (string, error)
}

// APIKeyProvider authenticates the x-api-key header against the key store.
type APIKeyProvider struct {
	keys KeySource
}

func NewAPIKeyProvider(keys KeySource) *APIKeyProvider {
	return &APIKeyProvider{keys: keys}
}

func (p *APIKeyProvider) Authenticate(r *http.Request) error {
	presented := r.Header.Get(config.HAPIKey)
	if presented == "" {
		return ErrMissingKey
	}

	stored, err := p.keys.Current()
	if err != nil {
		if errors.Is(err, keystore.ErrNoKey) {
			return ErrNotConfigured
		}
		return err
	}

	if !equalConstantTime(stored, presented) {
		return ErrInvalidKey
	}
	return nil
}

// AdminTokenProvider authenticates the x-admin-token header against a
// token fixed at process start. An empty token disables the admin surface.
type AdminTokenProvider struct {
	token string
}

func NewAdminTokenProvider(token string) *AdminTokenProvider {
	return &AdminTokenProvider{token: token}
}

func (p *AdminTokenProvider) Authenticate(r *http.Request) error {
	if p.token == "" {
		return ErrAdminNotConfigured
	}

	presented := r.Header.Get(config.HAdminToken)
	if presented == "" {
		return ErrMissingAdminToken
	}

	if !equalConstantTime(p.token, presented) {
		return ErrInvalidAdminToken
	}
	return nil
}

// equalConstantTime compares secrets in time independent of the position of
// the first mismatching byte. Hashing first also makes the comparison cost
// independent of the candidate's length.
func equalConstantTime(stored, presented string) bool {
	storedSum := sha256.Sum256([]byte(stored))
	presentedSum := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(storedSum[:], presentedSum[:]) == 1
}
