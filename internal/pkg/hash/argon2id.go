package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errMalformedArgon2 = errors.New("hash: malformed argon2id digest")

// Argon2id hashes passwords in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key). At most maxConcurrent
// derivations run at once since each one allocates memory KiB.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
	sem         chan struct{}
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:      32 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      pepper,
		sem:         make(chan struct{}, 2),
	}
}

func (a *Argon2id) derive(str string, salt []byte, t, m uint32, p uint8, n uint32) []byte {
	a.sem <- struct{}{}
	defer func() { <-a.sem }()
	return argon2.IDKey([]byte(str+a.pepper), salt, t, m, p, n)
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: generate salt: %w", err)
	}

	key := a.derive(str, salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memory, a.iterations, a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(hashed, str string) bool {
	if hashed == "" || str == "" {
		return false
	}

	d, err := parseArgon2(hashed)
	if err != nil {
		return false
	}

	computed := a.derive(str, d.salt, d.iterations, d.memory, d.parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(d.key, computed) == 1
}

type argon2Digest struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2(encoded string) (*argon2Digest, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errMalformedArgon2
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, errMalformedArgon2
	}

	d := &argon2Digest{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.iterations, &d.parallelism); err != nil {
		return nil, errMalformedArgon2
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errMalformedArgon2
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, errMalformedArgon2
	}

	return d, nil
}
