// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/voidai-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// encryptedPrefix marks the session file as encrypted
// (format: ENC:base64(salt|nonce|ciphertext|tag)).
const encryptedPrefix = "ENC:"

// nonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits).
const nonceSize = 12

// keySize is the size of the AES-256 key (32 bytes / 256 bits).
const keySize = 32

// saltSize is the size of the salt for key derivation (32 bytes).
const saltSize = 32

// pbkdf2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256.
const pbkdf2Iterations = 600000

var (
	// errInvalidCiphertext indicates the session file format is invalid.
	errInvalidCiphertext = errors.New("invalid session file format")
	// errDecryptionFailed indicates decryption failed (wrong key or tampered data).
	errDecryptionFailed = errors.New("session decryption failed")
)

// =============================================================================
// TOKEN STORE
// =============================================================================

// TokenStore persists the auth session to disk so the client stays signed
// in across restarts, the way the web app's local storage did. The file is
// AES-256-GCM encrypted with a PBKDF2 key derived from a machine-local
// secret: the tokens are bearer credentials and must not sit on disk in
// the clear.
//
// Every operation is best effort from the caller's perspective: a store
// that cannot load degrades to "no session".
type TokenStore struct {
	path     string
	password string
	// writeFile is swappable for atomic-write injection.
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// NewTokenStore creates a store at the given path.
func NewTokenStore(path string, writeFile func(string, []byte, os.FileMode) error) *TokenStore {
	if writeFile == nil {
		writeFile = os.WriteFile
	}
	return &TokenStore{
		path:      path,
		password:  machineSecret(),
		writeFile: writeFile,
	}
}

// machineSecret derives a stable per-machine password for the session file.
// SECURITY: This is at-rest protection against casual file disclosure, not
// against an attacker who owns the account; that matches the threat model
// of a browser's local storage.
func machineSecret() string {
	host, err := os.Hostname()
	if err != nil {
		host = "voidai"
	}
	name := "voidai"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return "voidai:" + name + "@" + host
}

// deriveKey derives an encryption key from the password and salt using
// PBKDF2-SHA-256.
func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
}

// Save encrypts and writes the session to disk.
func (s *TokenStore) Save(sess *model.Session) error {
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(s.password, salt)
	defer zeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Layout: salt || nonce || ciphertext || tag
	blob := append(salt, gcm.Seal(nonce, nonce, plaintext, nil)...)
	out := []byte(encryptedPrefix + base64.StdEncoding.EncodeToString(blob))

	if err := s.writeFile(s.path, out, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads and decrypts the persisted session. A missing file returns
// (nil, nil); a corrupt or undecryptable file returns an error the caller
// logs and treats as "no session".
func (s *TokenStore) Load() (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, encryptedPrefix) {
		return nil, errInvalidCiphertext
	}

	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, encryptedPrefix))
	if err != nil {
		return nil, errInvalidCiphertext
	}
	if len(blob) < saltSize+nonceSize {
		return nil, errInvalidCiphertext
	}

	salt := blob[:saltSize]
	rest := blob[saltSize:]

	key := deriveKey(s.password, salt)
	defer zeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := rest[:nonceSize]
	plaintext, err := gcm.Open(nil, nonce, rest[nonceSize:], nil)
	if err != nil {
		return nil, errDecryptionFailed
	}

	var sess model.Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

// Clear removes the persisted session. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// newGCM builds the AES-GCM cipher for the given key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}

// zeroBytes securely zeros sensitive byte slices.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
