// Package store provides the local key-value persistence layer backed by
// BoltDB. Credentials and session markers live in separate buckets within a
// single DB file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

const (
	bucketCredentials = "credentials"
	bucketSessions    = "sessions"
	bucketMeta        = "meta"

	schemaVersionKey = "schema_version"

	// SchemaVersion is the current on-disk schema version.
	SchemaVersion = 1
)

// ErrSchemaTooNew is returned when the store was written by a newer binary.
var ErrSchemaTooNew = errors.New("store schema version is newer than this binary supports")

// Store wraps the BoltDB handle.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the store at path and verifies the
// schema version. A missing version tag is stamped with the current one; a
// newer tag fails the open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCredentials, bucketSessions, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		meta := tx.Bucket([]byte(bucketMeta))
		raw := meta.Get([]byte(schemaVersionKey))
		if raw == nil {
			return meta.Put([]byte(schemaVersionKey), []byte(strconv.Itoa(SchemaVersion)))
		}

		version, err := strconv.Atoi(string(raw))
		if err != nil {
			// Unreadable tag: reset it rather than refuse to start.
			return meta.Put([]byte(schemaVersionKey), []byte(strconv.Itoa(SchemaVersion)))
		}
		if version > SchemaVersion {
			return ErrSchemaTooNew
		}
		if version < SchemaVersion {
			// No migrations exist yet below version 1; stamp forward.
			return meta.Put([]byte(schemaVersionKey), []byte(strconv.Itoa(SchemaVersion)))
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying DB file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the DB handle is usable.
func (s *Store) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

// PutCredential stores a password hash for a username. Records are
// create-only; overwriting an existing credential is an error.
func (s *Store) PutCredential(username, passwordHash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCredentials))
		if b.Get([]byte(username)) != nil {
			return fmt.Errorf("credential for %q already exists", username)
		}
		return b.Put([]byte(username), []byte(passwordHash))
	})
}

// GetCredential returns the stored password hash for a username, or false
// when no credential exists.
func (s *Store) GetCredential(username string) (string, bool, error) {
	var hash string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketCredentials)).Get([]byte(username)); v != nil {
			hash = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return hash, found, nil
}

// HasCredential reports whether a credential exists for a username.
func (s *Store) HasCredential(username string) (bool, error) {
	_, found, err := s.GetCredential(username)
	return found, err
}

// PutSession persists the "current user" marker for a username.
func (s *Store) PutSession(rec *model.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(rec.Username), data)
	})
}

// GetSession reads the persisted session marker for a username. A corrupted
// record is deleted and treated as absent; the caller sees a logged-out
// state, never an error.
func (s *Store) GetSession(username string) (*model.SessionRecord, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketSessions)).Get([]byte(username)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var rec model.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		if delErr := s.DeleteSession(username); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}
	return &rec, nil
}

// DeleteSession removes the session marker for a username.
func (s *Store) DeleteSession(username string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Delete([]byte(username))
	})
}
