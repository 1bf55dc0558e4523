//go:build !windows

// Package stderr captures output that the audio stack writes straight to
// file descriptor 2 (ALSA warnings, mostly) and sends it to the log file,
// so it never lands on top of the TUI.
package stderr

import (
	"os"
	"syscall"

	"github.com/rs/zerolog/log"
)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	drained    chan struct{}
)

// Start redirects fd 2 into the log.
// Call it early in main, before the speaker is initialized. On error the
// program can continue and output goes to the original stderr.
func Start() error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	drained = make(chan struct{})

	go func() {
		defer close(drained)
		forward(pipeRead, log.Logger)
	}()

	return nil
}

// WriteOriginal writes to the original stderr, bypassing capture.
// Use it for fatal errors that must stay visible.
func WriteOriginal(msg string) {
	if origStderr > 0 {
		_, _ = syscall.Write(origStderr, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr and flushes pending lines.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)

	pipeWrite.Close()
	<-drained
	pipeRead.Close()
	origStderr = 0
	started = false
}
