package store

import (
	"path/filepath"
	"testing"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVRoundtrip(t *testing.T) {
	s := open(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Errorf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get("k"); !ok || v != "v1" {
		t.Errorf("Get(k) = %q/%v, want v1", v, ok)
	}

	// Overwrite wins.
	if err := s.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get("k"); v != "v2" {
		t.Errorf("Get(k) after overwrite = %q, want v2", v)
	}
}

func TestOwnerBinding(t *testing.T) {
	s := open(t)

	id, err := s.OwnerID()
	if err != nil || id != 0 {
		t.Errorf("unbound owner = %d/%v, want 0", id, err)
	}
	if err := s.SetOwnerID(12345); err != nil {
		t.Fatal(err)
	}
	if id, _ := s.OwnerID(); id != 12345 {
		t.Errorf("owner = %d, want 12345", id)
	}
}

func TestTOTPSecretHexRoundtrip(t *testing.T) {
	s := open(t)

	if sec, err := s.TOTPSecret(); err != nil || sec != nil {
		t.Errorf("missing secret = %v/%v, want nil", sec, err)
	}

	raw := []byte("12345678901234567890")
	if err := s.SetTOTPSecret(raw); err != nil {
		t.Fatal(err)
	}
	got, err := s.TOTPSecret()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(raw) {
		t.Errorf("secret roundtrip = %x, want %x", got, raw)
	}
}

func TestOTPTimeoutRoundtrip(t *testing.T) {
	s := open(t)

	if secs, err := s.OTPTimeout(); err != nil || secs != 0 {
		t.Errorf("unset timeout = %d/%v, want 0", secs, err)
	}
	if err := s.SetOTPTimeout(600); err != nil {
		t.Fatal(err)
	}
	if secs, _ := s.OTPTimeout(); secs != 600 {
		t.Errorf("timeout = %d, want 600", secs)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.sqlite")

	s1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok, _ := s2.Get("k"); !ok || v != "v" {
		t.Errorf("data lost across reopen: %q/%v", v, ok)
	}
}
