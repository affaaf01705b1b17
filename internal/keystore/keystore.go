// Package keystore persists the single shared API key used to authenticate
// publishing requests.
package keystore

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/berryhill/draftfly-wp/internal/db"
	"github.com/rs/zerolog"
)

// KeyPrefix marks generated keys so they are recognizable in caller configs.
const KeyPrefix = "dfwp_"

const keyRandomBytes = 32

// ErrNoKey is returned when no API key has been generated yet.
var ErrNoKey = errors.New("no api key configured")

var ksLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	ksLogger = l
}

type Store struct {
	db db.DB
}

func New(db db.DB) *Store {
	return &Store{db: db}
}

// Generate creates a new key from a cryptographically secure source and
// atomically replaces any existing one. The key is returned for one-time
// display.
func (s *Store) Generate() (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating key material: %w", err)
	}
	key := KeyPrefix + hex.EncodeToString(buf)

	tx, err := s.db.Get().Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM api_keys`); err != nil {
		return "", fmt.Errorf("removing previous key: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO api_keys (id, secret) VALUES (1, ?)`, key); err != nil {
		return "", fmt.Errorf("storing key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing key: %w", err)
	}

	ksLogger.Info().Msg("API key generated")
	return key, nil
}

// Current returns the active key, or ErrNoKey when none is stored.
func (s *Store) Current() (string, error) {
	var key string
	row := s.db.Get().QueryRow(`SELECT secret FROM api_keys WHERE id = 1`)
	if err := row.Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoKey
		}
		return "", fmt.Errorf("reading key: %w", err)
	}
	return key, nil
}

// Revoke deletes the active key. Revoking when no key exists is not an error.
func (s *Store) Revoke() error {
	if _, err := s.db.Exec(`DELETE FROM api_keys`); err != nil {
		return fmt.Errorf("revoking key: %w", err)
	}
	ksLogger.Info().Msg("API key revoked")
	return nil
}
