// Package cipher encrypts credential secrets under a user-scoped key.
//
// The key is a random 32-byte value stored next to the database with file
// permissions restricted to the owner. Ciphertext produced under one key
// file is not portable to another machine or user account; decrypting it
// there fails with errs.ErrCipher.
package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/nkoryagin/accountkeeper/internal/errs"
	"github.com/nkoryagin/accountkeeper/internal/model"
)

const (
	keyLen      = 32
	keyFileName = "secret.key"

	// blobVersion prefixes every ciphertext so the framing can evolve.
	blobVersion = 0x01
)

// hkdfInfo binds derived AEAD keys to this framing version.
var hkdfInfo = []byte("accountkeeper/secret-cipher/v1")

// SecretCipher performs XChaCha20-Poly1305 encryption of secret strings.
type SecretCipher struct {
	key []byte // AEAD key derived from the key file
}

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// LoadOrCreateKey reads the key file from dir, creating it with a fresh
// random key on first use. The file is written owner-only (0600).
func LoadOrCreateKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, keyFileName)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(raw) != keyLen {
			return nil, fmt.Errorf("%w: key file %s has wrong length %d", errs.ErrCipher, path, len(raw))
		}
		return raw, nil
	case os.IsNotExist(err):
		raw, err = Rand(keyLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrCipher, err)
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return nil, fmt.Errorf("%w: write key file: %v", errs.ErrCipher, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: read key file: %v", errs.ErrCipher, err)
	}
}

// New constructs a SecretCipher from a raw key-file key.
func New(raw []byte) (*SecretCipher, error) {
	if len(raw) != keyLen {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", errs.ErrCipher, keyLen, len(raw))
	}
	r := hkdf.New(sha256.New, raw, nil, hkdfInfo)
	key := make([]byte, keyLen)
	if _, err := r.Read(key); err != nil {
		return nil, fmt.Errorf("%w: derive key: %v", errs.ErrCipher, err)
	}
	return &SecretCipher{key: key}, nil
}

// Encrypt seals plaintext into ver||nonce||ct with a random nonce.
// The empty string maps to an empty blob without touching the AEAD.
func (c *SecretCipher) Encrypt(plaintext string) (model.EncryptedSecret, error) {
	if plaintext == "" {
		return model.EncryptedSecret{}, nil
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCipher, err)
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCipher, err)
	}
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, blobVersion)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt under the same key file.
// The empty blob maps to the empty string.
func (c *SecretCipher) Decrypt(blob model.EncryptedSecret) (string, error) {
	if len(blob) == 0 {
		return "", nil
	}
	if blob[0] != blobVersion {
		return "", fmt.Errorf("%w: unknown blob version %d", errs.ErrCipher, blob[0])
	}
	if len(blob) < 1+chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: blob too short", errs.ErrCipher)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrCipher, err)
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ct := blob[1+chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrCipher, err)
	}
	return string(plain), nil
}
