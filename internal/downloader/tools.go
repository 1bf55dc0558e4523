package downloader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
)

// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// Tools locates the yt-dlp and ffmpeg binaries once and shares them.
type Tools struct {
	mu          sync.Mutex
	ytdlpPath   string
	ffmpegPath  string
	autoInstall bool
	resolved    bool

	lookPath func(string) (string, error)
	install  func(context.Context) (string, error)
}

// NewTools creates a tool resolver. Empty paths are looked up on PATH.
func NewTools(ytdlpPath, ffmpegPath string, autoInstall bool) *Tools {
	return &Tools{
		ytdlpPath:   ytdlpPath,
		ffmpegPath:  ffmpegPath,
		autoInstall: autoInstall,
		lookPath:    exec.LookPath,
		install:     installYtdlp,
	}
}

func installYtdlp(ctx context.Context) (string, error) {
	res, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", err
	}
	return res.Executable, nil
}

// Resolve finds both binaries. Later calls return immediately once
// a resolution has succeeded.
func (t *Tools) Resolve(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resolved {
		return nil
	}

	if t.ytdlpPath == "" {
		p, err := t.lookPath("yt-dlp")
		switch {
		case err == nil:
			t.ytdlpPath = p
		case t.autoInstall:
			log.Info().Msg("yt-dlp not found on PATH, installing")
			p, err = t.install(ctx)
			if err != nil {
				return errmsg.New(errmsg.KindDownload, errmsg.OpToolResolve,
					fmt.Errorf("installing yt-dlp: %w", err))
			}
			t.ytdlpPath = p
		default:
			return errmsg.New(errmsg.KindDownload, errmsg.OpToolResolve,
				fmt.Errorf("yt-dlp not found: %w", err))
		}
	}

	if t.ffmpegPath == "" {
		p, err := t.lookPath("ffmpeg")
		if err != nil {
			return errmsg.New(errmsg.KindDownload, errmsg.OpToolResolve, ErrFFmpegNotFound)
		}
		t.ffmpegPath = p
	}

	t.resolved = true
	log.Debug().Str("yt-dlp", t.ytdlpPath).Str("ffmpeg", t.ffmpegPath).Msg("tools resolved")
	return nil
}

// Ytdlp returns the resolved yt-dlp path, or "" before resolution.
func (t *Tools) Ytdlp() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ytdlpPath
}

// Ffmpeg returns the resolved ffmpeg path, or "ffmpeg" before resolution.
func (t *Tools) Ffmpeg() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ffmpegPath == "" {
		return "ffmpeg"
	}
	return t.ffmpegPath
}

func (t *Tools) ffmpegCommand(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, t.Ffmpeg(), args...)
}

// defaultUpdateTimeout bounds "yt-dlp -U" when no timeout is given.
const defaultUpdateTimeout = 30 * time.Second

// Update asks yt-dlp to update itself and returns its last output line.
// The run is killed after timeout. Failures are reported but never fatal.
func (t *Tools) Update(ctx context.Context, timeout time.Duration) (string, error) {
	if err := t.Resolve(ctx); err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = defaultUpdateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := ytdlp.New().
		SetExecutable(t.Ytdlp()).
		Run(ctx, "-U")
	if err != nil {
		return "", errmsg.New(errmsg.KindDownload, errmsg.OpToolUpdate, toolError(res, err))
	}
	return lastLine(strings.TrimSpace(res.Stdout)), nil
}
