package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInvitationCode is returned when a code does not match its hash.
var ErrInvalidInvitationCode = errors.New("invalid invitation code")

// invitationAlphabet omits characters easily confused when read aloud.
const invitationAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// InvitationCodeLength is the number of characters in a generated code.
const InvitationCodeLength = 8

// InvitationCost is the bcrypt cost for invitation code hashes.
var InvitationCost = bcrypt.DefaultCost

// GenerateInvitationCode returns a random code and its bcrypt hash.
// Only the hash should be stored.
func GenerateInvitationCode() (code, hash string, err error) {
	code, err = randomCode(rand.Reader, InvitationCodeLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate invitation code: %w", err)
	}

	hash, err = HashInvitationCode(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}

// randomCode draws n alphabet characters from r. Bytes at or above the
// largest multiple of the alphabet size are discarded so every character is
// equally likely.
func randomCode(r io.Reader, n int) (string, error) {
	limit := 256 - 256%len(invitationAlphabet)
	var b strings.Builder
	buf := make([]byte, n)
	for b.Len() < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			if int(v) >= limit {
				continue
			}
			b.WriteByte(invitationAlphabet[int(v)%len(invitationAlphabet)])
			if b.Len() == n {
				break
			}
		}
	}
	return b.String(), nil
}

// HashInvitationCode hashes a code for storage.
func HashInvitationCode(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(normalizeCode(code)), InvitationCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash invitation code: %w", err)
	}
	return string(hashed), nil
}

// VerifyInvitationCode compares a code entered by a user with its hash.
// Case and surrounding whitespace are ignored.
func VerifyInvitationCode(hash, code string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeCode(code))); err != nil {
		return ErrInvalidInvitationCode
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
