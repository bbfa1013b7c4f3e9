// Package otpcode generates the numeric codes sent to a contact. Each code is
// an HOTP value over a fresh random secret and counter, so codes are never
// derivable from one another.
package otpcode

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	MinLength = 4
	MaxLength = 9

	secretSize = 20
)

var ErrInvalidLength = errors.New("otpcode: length must be between 4 and 9")

type Generator interface {
	Generate() (string, error)
}

type HOTP struct {
	digits otp.Digits
}

func NewHOTP(length int) (*HOTP, error) {
	if length < MinLength || length > MaxLength {
		return nil, ErrInvalidLength
	}
	return &HOTP{digits: otp.Digits(length)}, nil
}

// Length is the number of digits in every generated code.
func (h *HOTP) Length() int {
	return h.digits.Length()
}

func (h *HOTP) Generate() (string, error) {
	buf := make([]byte, secretSize+8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("otpcode: entropy: %w", err)
	}

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:secretSize])
	counter := binary.BigEndian.Uint64(buf[secretSize:])

	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    h.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
