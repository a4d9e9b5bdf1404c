package catalog

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestKey(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "authkey.p8")
	data := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	return path
}

func TestStaticTokenProvider(t *testing.T) {
	token, err := NewStaticTokenProvider("abc").Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "abc" {
		t.Errorf("Expected token abc, got %q", token)
	}

	if _, err := NewStaticTokenProvider("").Token(); err == nil {
		t.Error("Expected error for empty token")
	}
}

func TestGeneratedTokenProvider(t *testing.T) {
	provider, err := NewGeneratedTokenProvider("TEAM123456", "KEY1234567", writeTestKey(t))
	if err != nil {
		t.Fatalf("NewGeneratedTokenProvider failed: %v", err)
	}

	token, err := provider.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("Expected a three-part JWT, got %d parts", len(parts))
	}

	// Second call must serve the cached token without touching the key file
	again, err := provider.Token()
	if err != nil {
		t.Fatalf("Token failed on second call: %v", err)
	}
	if again != token {
		t.Error("Expected cached token to be reused")
	}
}

func TestGeneratedTokenProviderValidation(t *testing.T) {
	if _, err := NewGeneratedTokenProvider("", "KEY1234567", "key.p8"); err == nil {
		t.Error("Expected error for missing team id")
	}
	if _, err := NewGeneratedTokenProvider("TEAM123456", "", "key.p8"); err == nil {
		t.Error("Expected error for missing key id")
	}
	if _, err := NewGeneratedTokenProvider("TEAM123456", "KEY1234567", ""); err == nil {
		t.Error("Expected error for missing key path")
	}

	provider, err := NewGeneratedTokenProvider("TEAM123456", "KEY1234567", "/does/not/exist.p8")
	if err != nil {
		t.Fatalf("NewGeneratedTokenProvider failed: %v", err)
	}
	if _, err := provider.Token(); err == nil {
		t.Error("Expected error for unreadable key file")
	}
}
