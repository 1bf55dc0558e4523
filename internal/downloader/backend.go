package downloader

import (
	"context"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// Backend runs the external extractor.
type Backend interface {
	// DumpInfo returns the JSON info dict of a single item.
	DumpInfo(ctx context.Context, url string) ([]byte, error)
	// DumpPlaylist returns one flat JSON record per line.
	DumpPlaylist(ctx context.Context, url string) ([]byte, error)
	// Fetch downloads the best audio stream to the output template.
	Fetch(ctx context.Context, url, outputTemplate string, progress func(percent float64)) error
}

// ToolError wraps a failed external tool run with its captured stderr.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := e.Tool + ": " + e.Err.Error()
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Output returns the text used for failure classification.
func (e *ToolError) Output() string {
	return e.Err.Error() + "\n" + e.Stderr
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// YtdlpBackend drives yt-dlp through go-ytdlp.
type YtdlpBackend struct {
	tools  *Tools
	format string
}

// NewYtdlpBackend creates a backend that resolves its binary from tools.
func NewYtdlpBackend(tools *Tools, format string) *YtdlpBackend {
	if format == "" {
		format = "bestaudio/best"
	}
	return &YtdlpBackend{tools: tools, format: format}
}

func (b *YtdlpBackend) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if p := b.tools.Ytdlp(); p != "" {
		cmd.SetExecutable(p)
	}
	return cmd
}

func (b *YtdlpBackend) DumpInfo(ctx context.Context, url string) ([]byte, error) {
	res, err := b.command().
		DumpJSON().
		NoPlaylist().
		SkipDownload().
		Run(ctx, url)
	if err != nil {
		return nil, toolError(res, err)
	}
	return []byte(res.Stdout), nil
}

func (b *YtdlpBackend) DumpPlaylist(ctx context.Context, url string) ([]byte, error) {
	res, err := b.command().
		DumpJSON().
		FlatPlaylist().
		Run(ctx, url)
	if err != nil {
		return nil, toolError(res, err)
	}
	return []byte(res.Stdout), nil
}

func (b *YtdlpBackend) Fetch(
	ctx context.Context,
	url, outputTemplate string,
	progress func(percent float64),
) error {
	cmd := b.command().
		Format(b.format).
		NoPlaylist().
		Output(outputTemplate).
		Progress().
		Newline()

	if progress != nil {
		cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				progress(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
			}
		})
	}

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return toolError(res, err)
	}
	return nil
}

func toolError(res *ytdlp.Result, err error) error {
	te := &ToolError{Tool: "yt-dlp", Err: err}
	if res != nil {
		te.Stderr = res.Stderr
	}
	return te
}
