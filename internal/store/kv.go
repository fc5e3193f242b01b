package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Keys used in the kv table.
const (
	keyOwnerID    = "owner_id"
	keyTOTPSecret = "totp_secret"
	keyOTPTimeout = "otp_timeout"
)

// Get returns the value for key, or ok=false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes key=value, replacing any prior value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// OwnerID returns the bound owner id, 0 when nobody is bound yet.
func (s *Store) OwnerID() (int64, error) {
	v, ok, err := s.Get(keyOwnerID)
	if err != nil || !ok {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse owner id %q: %w", v, err)
	}
	return id, nil
}

// SetOwnerID binds the owner. Called exactly once, on the first inbound
// event ever received.
func (s *Store) SetOwnerID(id int64) error {
	return s.Set(keyOwnerID, strconv.FormatInt(id, 10))
}

// TOTPSecret returns the raw secret bytes, or nil when not yet generated.
func (s *Store) TOTPSecret() ([]byte, error) {
	v, ok, err := s.Get(keyTOTPSecret)
	if err != nil || !ok {
		return nil, err
	}
	raw, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return raw, nil
}

// SetTOTPSecret persists the secret hex-encoded.
func (s *Store) SetTOTPSecret(secret []byte) error {
	return s.Set(keyTOTPSecret, hex.EncodeToString(secret))
}

// OTPTimeout returns the persisted inactivity timeout in seconds, or 0
// when none is stored.
func (s *Store) OTPTimeout() (int, error) {
	v, ok, err := s.Get(keyOTPTimeout)
	if err != nil || !ok {
		return 0, err
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse otp timeout %q: %w", v, err)
	}
	return secs, nil
}

// SetOTPTimeout persists the inactivity timeout in seconds.
func (s *Store) SetOTPTimeout(secs int) error {
	return s.Set(keyOTPTimeout, strconv.Itoa(secs))
}
