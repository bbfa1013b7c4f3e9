package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerLen = 2
	nonceLen  = 12
	keyLen    = 32
)

var (
	ErrPlaintextEmpty   = errors.New("secretbox: plaintext is empty")
	ErrInvalidKeyLength = errors.New("secretbox: key must be 32 bytes")
	ErrUnknownVersion   = errors.New("secretbox: unknown key version")
	ErrDecryptFailed    = errors.New("secretbox: decrypt failed")
)

// Scope binds a ciphertext to the contact and flow it was created for.
type Scope struct {
	Contact string
	Purpose string
}

func (s Scope) aad() []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "contact=%s\npurpose=%s\n", s.Contact, s.Purpose))
	return sum[:]
}

type Box interface {
	Encrypt(scope Scope, plaintext string) (string, error)
	Decrypt(scope Scope, ciphertext string) (string, error)
}

// KeyRing seals with the current key and opens with any known version, which
// lets the key rotate while records sealed under the old one are still live.
type KeyRing struct {
	current uint16
	aeads   map[uint16]cipher.AEAD
}

// NewKeyRing builds a ring whose current key is keys[current].
func NewKeyRing(current uint16, keys map[uint16][]byte) (*KeyRing, error) {
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, current)
	}

	kr := &KeyRing{current: current, aeads: make(map[uint16]cipher.AEAD, len(keys))}
	for version, key := range keys {
		if len(key) != keyLen {
			return nil, fmt.Errorf("%w: version %d has %d bytes", ErrInvalidKeyLength, version, len(key))
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		kr.aeads[version] = aead
	}

	return kr, nil
}

// NewStatic builds a single-key ring at version 1.
func NewStatic(key []byte) (*KeyRing, error) {
	return NewKeyRing(1, map[uint16][]byte{1: key})
}

func (k *KeyRing) Encrypt(scope Scope, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrPlaintextEmpty
	}

	out := make([]byte, headerLen+nonceLen, headerLen+nonceLen+len(plaintext)+16)
	binary.BigEndian.PutUint16(out, k.current)
	if _, err := rand.Read(out[headerLen:]); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}

	out = k.aeads[k.current].Seal(out, out[headerLen:], []byte(plaintext), scope.aad())
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt never tells the caller why opening failed.
func (k *KeyRing) Decrypt(scope Scope, ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < headerLen+nonceLen+1 {
		return "", ErrDecryptFailed
	}

	aead, ok := k.aeads[binary.BigEndian.Uint16(raw)]
	if !ok {
		return "", ErrDecryptFailed
	}

	plain, err := aead.Open(nil, raw[headerLen:headerLen+nonceLen], raw[headerLen+nonceLen:], scope.aad())
	if err != nil || len(plain) == 0 {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
