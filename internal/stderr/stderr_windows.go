//go:build windows

// Package stderr is a no-op on Windows, where the audio stack does not
// write to fd 2.
package stderr

import "os"

// Start is a no-op on Windows.
func Start() error {
	return nil
}

// WriteOriginal writes to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op on Windows.
func Stop() {}
