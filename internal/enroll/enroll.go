// Package enroll handles the one-time TOTP enrollment: generating and
// persisting the secret, and showing it to the operator as a scannable QR
// code on the terminal.
package enroll

import (
	"encoding/base32"
	"fmt"
	"io"
	"os"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/ehrlich-b/termbot/internal/totp"
)

// Issuer is the otpauth label shown in authenticator apps.
const Issuer = "termbot"

// Store is the slice of the settings store enrollment needs.
type Store interface {
	TOTPSecret() ([]byte, error)
	SetTOTPSecret([]byte) error
}

// EnsureSecret returns the stored TOTP secret, generating, persisting and
// displaying it when none exists yet. The QR code is printed exactly once
// in the process lifetime of the first start.
func EnsureSecret(store Store, out io.Writer) ([]byte, error) {
	secret, err := store.TOTPSecret()
	if err != nil {
		return nil, fmt.Errorf("load totp secret: %w", err)
	}
	if len(secret) == totp.SecretLen {
		return secret, nil
	}

	secret, err = totp.GenerateSecret()
	if err != nil {
		// No safe fallback: the caller must abort startup.
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	if err := store.SetTOTPSecret(secret); err != nil {
		return nil, fmt.Errorf("persist totp secret: %w", err)
	}

	printEnrollment(secret, out)
	return secret, nil
}

func printEnrollment(secret []byte, out io.Writer) {
	uri := totp.EnrollmentURI(secret, Issuer)
	b32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)

	fmt.Fprintln(out, "\n=== TOTP Setup ===")
	fmt.Fprintln(out, "Scan this QR code with your authenticator app:")
	fmt.Fprintln(out)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if art, err := qrASCII(uri); err == nil {
			fmt.Fprint(out, art)
		} else {
			fmt.Fprintln(out, uri)
		}
	} else {
		fmt.Fprintln(out, uri)
	}

	fmt.Fprintf(out, "\nOr enter this secret manually: %s\n", b32)
	fmt.Fprintln(out, "==================")
}

// qrASCII renders the QR matrix two rows per text line using half-block
// characters, with a one-module quiet zone.
func qrASCII(text string) (string, error) {
	qr, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	grid := qr.Bitmap() // includes the quiet zone border

	var out []byte
	for y := 0; y < len(grid); y += 2 {
		for x := 0; x < len(grid[y]); x++ {
			top := grid[y][x]
			bot := y+1 < len(grid) && grid[y+1][x]
			switch {
			case top && bot:
				out = append(out, "█"...)
			case top:
				out = append(out, "▀"...)
			case bot:
				out = append(out, "▄"...)
			default:
				out = append(out, ' ')
			}
		}
		out = append(out, '\n')
	}
	return string(out), nil
}
