package cache

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"time"
)

var (
	encryptionMagic = []byte("UE1")

	ErrEncryptionKey = errors.New("cache: encryption key must be 16, 24, or 32 bytes")
	ErrDecryptFailed = errors.New("cache: decrypt failed")
)

// encryptingStore seals values with AES-GCM. Cached user lists include e-mail
// addresses, so shared backends can be configured to hold ciphertext only.
type encryptingStore struct {
	inner Store
	aead  cipher.AEAD
}

func newEncryptingStore(inner Store, key []byte) (Store, error) {
	if len(key) == 0 {
		return inner, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrEncryptionKey
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &encryptingStore{inner: inner, aead: aead}, nil
}

func (s *encryptingStore) Driver() Driver { return s.inner.Driver() }

func (s *encryptingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return body, ok, err
	}
	plain, err := s.decrypt(body)
	if err != nil {
		return nil, false, err
	}
	return plain, true, nil
}

func (s *encryptingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sealed, err := s.encrypt(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed, ttl)
}

func (s *encryptingStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *encryptingStore) DeleteMany(ctx context.Context, keys ...string) error {
	return s.inner.DeleteMany(ctx, keys...)
}

func (s *encryptingStore) Flush(ctx context.Context) error {
	return s.inner.Flush(ctx)
}

func (s *encryptingStore) Close() error { return closeStore(s.inner) }

// Sealed layout: magic | nonce | ciphertext.
func (s *encryptingStore) encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(encryptionMagic)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, encryptionMagic...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, nil), nil
}

func (s *encryptingStore) decrypt(in []byte) ([]byte, error) {
	if !bytes.HasPrefix(in, encryptionMagic) {
		return nil, ErrDecryptFailed
	}
	rest := in[len(encryptionMagic):]
	if len(rest) < s.aead.NonceSize() {
		return nil, ErrDecryptFailed
	}
	nonce, sealed := rest[:s.aead.NonceSize()], rest[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
