package crypto

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	sealed, err := Seal("sk-test-12345", "hunter2")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	secret, err := Unseal(sealed, "hunter2")
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if secret != "sk-test-12345" {
		t.Fatalf("round trip corrupted the secret: %q", secret)
	}
}

func TestUnsealWrongPassphrase(t *testing.T) {
	sealed, err := Seal("sk-test-12345", "hunter2")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Unseal(sealed, "wrong"); err == nil {
		t.Fatal("wrong passphrase must fail")
	}
}

func TestSealRejectsEmptyInputs(t *testing.T) {
	if _, err := Seal("", "hunter2"); err == nil {
		t.Error("empty secret must fail")
	}
	if _, err := Seal("sk-test", ""); err == nil {
		t.Error("empty passphrase must fail")
	}
}

func TestLoadAPIKeyPrecedence(t *testing.T) {
	key, err := LoadAPIKey(KeySource{APIKey: "sk-plain"})
	if err != nil || key != "sk-plain" {
		t.Fatalf("plaintext key must win: %q, %v", key, err)
	}

	sealed, err := Seal("sk-sealed", "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "llm.key.json")
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		t.Fatalf("write sealed file: %v", err)
	}

	key, err = LoadAPIKey(KeySource{SealedKeyPath: path, Passphrase: "pw"})
	if err != nil || key != "sk-sealed" {
		t.Fatalf("sealed file path failed: %q, %v", key, err)
	}

	if _, err := LoadAPIKey(KeySource{}); err == nil {
		t.Fatal("no source must fail")
	}
}
