// Package keyring seals provider credentials at rest. Secrets are encrypted
// with AES-256-GCM under a passphrase-derived key and stored alongside run
// data; the narrative adapters only ever see the opened plaintext.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/mtzanidakis/hacksim/internal/store"
)

// Keyring derives its AES-256 key from the passphrase via Argon2id. The salt
// is deterministic (SHA-256 of the passphrase), so the same passphrase
// always produces the same key across restarts.
type Keyring struct {
	key   [32]byte
	store *store.Store
}

func New(passphrase string, st *store.Store) *Keyring {
	salt := sha256.Sum256([]byte(passphrase))
	key := argon2.IDKey([]byte(passphrase), salt[:16], 1, 64*1024, 4, 32)

	k := &Keyring{store: st}
	copy(k.key[:], key)
	return k
}

// Seal encrypts plaintext with a random nonce.
func (k *Keyring) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := k.aead()
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open decrypts a sealed value with its nonce.
func (k *Keyring) Open(ciphertext, nonce []byte) ([]byte, error) {
	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plaintext, nil
}

// StoreCredential seals a named credential and persists it.
func (k *Keyring) StoreCredential(name, value string) error {
	if k.store == nil {
		return fmt.Errorf("keyring has no backing store")
	}
	ciphertext, nonce, err := k.Seal([]byte(value))
	if err != nil {
		return fmt.Errorf("seal credential %s: %w", name, err)
	}
	return k.store.SaveSecret(&store.Secret{Name: name, Value: ciphertext, Nonce: nonce})
}

// Credential opens a persisted credential. A missing credential returns an
// empty string without error, so callers can fall back to the environment.
func (k *Keyring) Credential(name string) (string, error) {
	if k.store == nil {
		return "", fmt.Errorf("keyring has no backing store")
	}
	sec, err := k.store.GetSecret(name)
	if err != nil {
		return "", err
	}
	if sec == nil {
		return "", nil
	}
	plaintext, err := k.Open(sec.Value, sec.Nonce)
	if err != nil {
		return "", fmt.Errorf("open credential %s: %w", name, err)
	}
	return string(plaintext), nil
}

func (k *Keyring) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
