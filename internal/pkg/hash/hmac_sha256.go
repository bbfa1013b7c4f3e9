package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a keyed digest for short secrets such as verification codes.
// The key must never leave the server, otherwise a six digit code can be
// brute forced from its digest.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex encoded MAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.mac(str), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), s.mac(str))
}

func (s *HMACSHA256) mac(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return []byte(hex.EncodeToString(h.Sum(nil)))
}
