package main

import (
	"os"
	"path/filepath"
	"testing"
)

func getBinaryPath(t *testing.T) string {
	binaryName := "resume_tailor"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/resume_tailor ./cmd/resume_tailor'", binaryPath)
	}

	return binaryPath
}
