// Package report persists session summaries as an audit trail.
// Records are encrypted at rest using NaCl secretbox.
package report

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/veriface/livecheck/pkg/logging"
	"github.com/veriface/livecheck/pkg/session"
)

const (
	// NonceSize is the size of the nonce used for encryption
	NonceSize = 24
	// KeySize is the size of the encryption key
	KeySize = 32
)

// Record is one persisted session outcome.
type Record struct {
	SessionID  string          `json:"session_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	FinalState string          `json:"final_state"`
	Summary    session.Summary `json:"summary"`
}

// ErrRecordNotFound is returned when no record exists for a session.
var ErrRecordNotFound = errors.New("session record not found")

// ErrEncryption is returned when encryption/decryption fails.
var ErrEncryption = errors.New("encryption error")

// Store writes session records to per-file JSON, optionally encrypted.
type Store struct {
	dataDir           string
	encryptionEnabled bool
	encryptionKey     [KeySize]byte
}

// NewStore creates a report store rooted at dataDir.
func NewStore(dataDir string, encryptionEnabled bool) (*Store, error) {
	s := &Store{
		dataDir:           dataDir,
		encryptionEnabled: encryptionEnabled,
	}

	// The key is derived from machine identity so records cannot be read
	// off-device.
	if encryptionEnabled {
		key, err := deriveKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
		s.encryptionKey = key
	}

	sessionsDir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return s, nil
}

// deriveKey derives an encryption key from machine-specific information.
func deriveKey() ([KeySize]byte, error) {
	var key [KeySize]byte

	var identity strings.Builder

	// Machine ID (Linux specific)
	if machineID, err := os.ReadFile("/etc/machine-id"); err == nil {
		identity.Write(machineID)
	}

	if hostname, err := os.Hostname(); err == nil {
		identity.WriteString(hostname)
	}

	identity.WriteString(fmt.Sprintf("%d", os.Getuid()))
	identity.WriteString("livecheck-v1-salt")

	hash := sha256.Sum256([]byte(identity.String()))
	copy(key[:], hash[:])

	return key, nil
}

// recordPath returns the file path for a session record.
func (s *Store) recordPath(sessionID string) string {
	filename := sessionID + ".json"
	if s.encryptionEnabled {
		filename = sessionID + ".enc"
	}
	return filepath.Join(s.dataDir, "sessions", filename)
}

// Save writes a session record.
func (s *Store) Save(rec Record) error {
	path := s.recordPath(rec.SessionID)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if s.encryptionEnabled {
		data, err = s.encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt session record: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}

	logging.Debugf("Saved session record: %s", rec.SessionID)
	return nil
}

// Load reads a session record.
func (s *Store) Load(sessionID string) (*Record, error) {
	path := s.recordPath(sessionID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	if s.encryptionEnabled {
		data, err = s.decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt session record: %w", err)
		}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	return &rec, nil
}

// Delete removes a session record.
func (s *Store) Delete(sessionID string) error {
	path := s.recordPath(sessionID)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete session record: %w", err)
	}

	logging.Infof("Deleted session record: %s", sessionID)
	return nil
}

// List returns the IDs of all stored session records.
func (s *Store) List() ([]string, error) {
	sessionsDir := filepath.Join(s.dataDir, "sessions")

	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Handle both encrypted and unencrypted files
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		} else if strings.HasSuffix(name, ".enc") {
			ids = append(ids, strings.TrimSuffix(name, ".enc"))
		}
	}

	return ids, nil
}

// Clear removes every stored session record.
func (s *Store) Clear() (int, error) {
	ids, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := s.Delete(id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// encrypt encrypts data using NaCl secretbox.
func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}

	encrypted := secretbox.Seal(nonce[:], plaintext, &nonce, &s.encryptionKey)
	return encrypted, nil
}

// decrypt decrypts data using NaCl secretbox.
func (s *Store) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrEncryption
	}

	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, &s.encryptionKey)
	if !ok {
		return nil, ErrEncryption
	}

	return plaintext, nil
}
