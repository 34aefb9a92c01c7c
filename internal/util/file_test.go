package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddUniquePrefixToFileName(t *testing.T) {
	filename := "testfile.txt"
	result := AddUniquePrefixToFileName(filename)

	if !strings.HasSuffix(result, "_testfile.txt") {
		t.Errorf("Expected filename to have unique prefix, got %s", result)
	}

	prefix := strings.Split(result, "_")[0]
	if len(prefix) == 0 {
		t.Errorf("Expected a non-empty unique prefix, got %s", prefix)
	}
}

func TestEnsureTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tmp")
	got, err := EnsureTempDir(dir)
	if err != nil {
		t.Fatalf("EnsureTempDir() failed: %v", err)
	}
	if got != dir {
		t.Errorf("Expected %s, got %s", dir, got)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to be a directory, got %v", dir, err)
	}

	got, err = EnsureTempDir("")
	if err != nil {
		t.Fatalf("EnsureTempDir(\"\") failed: %v", err)
	}
	if got != GetTempDir() {
		t.Errorf("Expected the default temp dir %s, got %s", GetTempDir(), got)
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		extensions []string
		expected   bool
	}{
		{"Lower case", "doc.pdf", []string{".pdf"}, true},
		{"Upper case", "DOC.PDF", []string{".pdf"}, true},
		{"One of many", "firma.pfx", []string{".p12", ".pfx"}, true},
		{"Wrong extension", "doc.docx", []string{".pdf"}, false},
		{"No extension", "doc", []string{".pdf"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasExtension(tt.fileName, tt.extensions...); got != tt.expected {
				t.Errorf("HasExtension(%q) = %v, want %v", tt.fileName, got, tt.expected)
			}
		})
	}
}
