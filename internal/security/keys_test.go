package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPEMInline(t *testing.T) {
	got, err := LoadPEM(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if !strings.Contains(string(got), "-----BEGIN") {
		t.Error("LoadPEM did not return PEM content")
	}
}

func TestLoadPEMNormalizesEscapedNewlines(t *testing.T) {
	escaped := strings.ReplaceAll(testPrivateKeyPEM, "\n", `\n`)
	got, err := LoadPEM(escaped)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if string(got) != testPrivateKeyPEM {
		t.Error("LoadPEM did not normalize \\n sequences")
	}
}

func TestLoadPEMFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte(testPrivateKeyPEM), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := LoadPEM(path)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if string(got) != testPrivateKeyPEM {
		t.Error("LoadPEM file content mismatch")
	}
}

func TestLoadPEMEmpty(t *testing.T) {
	if _, err := LoadPEM("   "); err != ErrInvalidKey {
		t.Errorf("LoadPEM(blank) err = %v, want ErrInvalidKey", err)
	}
}

func TestParsePrivateKey(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if signer == nil {
		t.Fatal("ParsePrivateKey returned nil signer")
	}
}

func TestParsePrivateKeyGarbage(t *testing.T) {
	if _, err := ParsePrivateKey("not a key"); err == nil {
		t.Error("ParsePrivateKey(garbage) expected error")
	}
	if _, err := ParsePrivateKey(testPublicKeyPEM); err != ErrInvalidKey {
		t.Errorf("ParsePrivateKey(public key) err = %v, want ErrInvalidKey", err)
	}
}

func TestParsePublicKey(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if got := KeyAlg(pub); got != "RS256" {
		t.Errorf("KeyAlg = %q, want %q", got, "RS256")
	}
}

func TestParsePublicKeyRejectsPrivate(t *testing.T) {
	if _, err := ParsePublicKey(testPrivateKeyPEM); err != ErrInvalidKey {
		t.Errorf("ParsePublicKey(private key) err = %v, want ErrInvalidKey", err)
	}
}

func TestKeyAlgUnknown(t *testing.T) {
	if got := KeyAlg("not a key"); got != "" {
		t.Errorf("KeyAlg = %q, want empty", got)
	}
}
