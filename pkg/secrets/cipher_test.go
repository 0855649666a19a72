package secrets

import (
	"strings"
	"testing"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKeyHex)
	if err != nil {
		t.Fatalf("NewCipher returned error: %v", err)
	}
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("whsec_test_secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if parts := strings.Split(sealed, "."); len(parts) != 3 {
		t.Fatalf("expected three-part ciphertext, got %q", sealed)
	}

	opened, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if opened != "whsec_test_secret" {
		t.Fatalf("round trip mismatch: %q", opened)
	}
}

func TestCipher_LegacyPlaintextPassthrough(t *testing.T) {
	c := newTestCipher(t)

	opened, err := c.Decrypt("sk_live_plaintext_key")
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if opened != "sk_live_plaintext_key" {
		t.Fatalf("expected legacy value unchanged, got %q", opened)
	}
}

func TestCipher_TamperedCiphertextFails(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	parts := strings.Split(sealed, ".")
	parts[1] = strings.Repeat("00", 16)
	if _, err := c.Decrypt(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected tampered tag to fail decryption")
	}
}

func TestCipher_EmptyValues(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("expected empty encrypt passthrough, got %q, %v", sealed, err)
	}

	opened, err := c.Decrypt("")
	if err != nil || opened != "" {
		t.Fatalf("expected empty decrypt passthrough, got %q, %v", opened, err)
	}
}

func TestNewCipher_RejectsBadKeys(t *testing.T) {
	if _, err := NewCipher("not-hex"); err == nil {
		t.Fatal("expected error for non-hex key")
	}
	if _, err := NewCipher("abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
}
