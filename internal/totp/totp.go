// Package totp implements the time-based one-time-password scheme of
// RFC 4226/6238: 6-digit codes over a 30-second step with a ±1-step
// clock-skew window.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"time"
)

// SecretLen is the raw secret size in bytes.
const SecretLen = 20

// Step is the TOTP time step.
const Step = 30 * time.Second

// GenerateSecret returns SecretLen cryptographically random bytes. There
// is no safe fallback when the random source fails; callers must treat an
// error as fatal.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("read random source: %w", err)
	}
	return secret, nil
}

// CodeAt computes the 6-digit code for the given time step counter.
func CodeAt(secret []byte, step uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], step)

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return code % 1000000
}

// Verify reports whether input matches the code for the current step or
// its immediate neighbors (±30s skew tolerance). Input must be exactly six
// ASCII digits; anything else is rejected without computing codes.
func Verify(secret []byte, input string, now time.Time) bool {
	if len(input) != 6 {
		return false
	}
	var code uint32
	for i := 0; i < 6; i++ {
		c := input[i]
		if c < '0' || c > '9' {
			return false
		}
		code = code*10 + uint32(c-'0')
	}

	step := now.Unix() / int64(Step/time.Second)
	for d := int64(-1); d <= 1; d++ {
		if CodeAt(secret, uint64(step+d)) == code {
			return true
		}
	}
	return false
}

// EnrollmentURI formats the otpauth URI for the secret. The secret is
// base32-encoded without padding, the alphabet authenticator apps expect.
func EnrollmentURI(secret []byte, label string) string {
	b32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s", label, b32, label)
}
