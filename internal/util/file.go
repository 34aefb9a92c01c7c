package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Example output for "ex.txt": "21313123123_ex.txt"
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix := fmt.Sprintf("%d", time.Now().UnixNano())
	return fmt.Sprintf("%s_%s", uniquePrefix, fileName)
}

// GetTempDir is the working directory used when PDF_TMP_DIR is not set.
func GetTempDir() string {
	return filepath.Join(os.TempDir(), "basicpdf", "tmp")
}

// EnsureTempDir creates dir, or GetTempDir when dir is empty, and returns its path.
func EnsureTempDir(dir string) (string, error) {
	if dir == "" {
		dir = GetTempDir()
	}
	// 0755 mean owner can read, write and execute
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return dir, nil
}

// HasExtension reports whether fileName ends with one of the extensions, case-insensitive.
func HasExtension(fileName string, extensions ...string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
