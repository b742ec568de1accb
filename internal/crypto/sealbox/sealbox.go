// Package sealbox seals persisted session documents under a passphrase.
//
// Layout of a sealed document: magic(4) || salt(16) || nonce(24) || XChaCha20-Poly1305 ciphertext.
// The AEAD key is HKDF-SHA256(Argon2id(passphrase, salt), info=profile), and the profile is also
// bound as associated data so a document cannot be replayed under another profile.
package sealbox

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	SaltLen = 16
	KeyLen  = 32

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

var magic = []byte("LDS1")

// ErrOpen is returned for any document that fails authentication.
var ErrOpen = errors.New("sealbox: cannot open document (wrong passphrase or corrupted)")

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKey stretches passphrase with Argon2id and binds the result to profile via HKDF.
func DeriveKey(passphrase, salt []byte, profile string) ([]byte, error) {
	master := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
	r := hkdf.New(sha256.New, master, nil, []byte(profile))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// IsSealed reports whether doc carries the sealed-document header.
func IsSealed(doc []byte) bool {
	return bytes.HasPrefix(doc, magic)
}

// Seal encrypts plaintext for profile with a fresh salt and nonce.
func Seal(passphrase []byte, profile string, plaintext []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("sealbox: empty passphrase")
	}
	salt, err := Rand(SaltLen)
	if err != nil {
		return nil, err
	}
	key, err := DeriveKey(passphrase, salt, profile)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(magic)+SaltLen+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(profile))...)
	return out, nil
}

// Open reverses Seal.
func Open(passphrase []byte, profile string, doc []byte) ([]byte, error) {
	if !IsSealed(doc) || len(doc) < len(magic)+SaltLen+chacha20poly1305.NonceSizeX {
		return nil, ErrOpen
	}
	rest := doc[len(magic):]
	salt, rest := rest[:SaltLen], rest[SaltLen:]
	nonce, ct := rest[:chacha20poly1305.NonceSizeX], rest[chacha20poly1305.NonceSizeX:]

	key, err := DeriveKey(passphrase, salt, profile)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, []byte(profile))
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}
