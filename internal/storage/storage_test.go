package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewClientFromKeyfile(t *testing.T) {
	dir := t.TempDir()
	keypath := filepath.Join(dir, "s3.json")
	if err := os.WriteFile(keypath, []byte(`{"Endpoint":"s3.example.com","Key":"k","Secret":"s"}`), 0600); err != nil {
		t.Fatalf("writing keyfile: %v", err)
	}

	client, err := NewClient(keypath)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client == nil {
		t.Fatal("expected a non-nil client")
	}
}

func TestNewClientFromEnv(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "s3.example.com")
	t.Setenv("S3_KEY", "k")
	t.Setenv("S3_SECRET", "s")

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client == nil {
		t.Fatal("expected a non-nil client")
	}
}

func TestNewClientRejectsMissingKeyfile(t *testing.T) {
	if _, err := NewClient("/does/not/exist.json"); err == nil {
		t.Fatal("expected an error for a missing keyfile")
	}
}
