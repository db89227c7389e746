package handlers

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStoreUploadWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := storeUpload(path, []byte("head-"), bytes.NewReader([]byte("body"))); err != nil {
		t.Fatalf("storeUpload: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "head-body" {
		t.Fatalf("content = %q", got)
	}
}

func TestStoreUploadRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.png")
	r := io.MultiReader(bytes.NewReader([]byte("some bytes")), failingReader{})
	if err := storeUpload(path, []byte("head"), r); err == nil {
		t.Fatal("expected the copy error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}
