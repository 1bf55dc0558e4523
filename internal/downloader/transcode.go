package downloader

import (
	"bytes"
	"context"
	"strconv"
)

// Profile describes the cached audio format.
type Profile struct {
	Codec      string // libopus or libvorbis
	Bitrate    string
	SampleRate int
	Channels   int
}

// DefaultProfile is Opus at 128k, 48 kHz stereo.
var DefaultProfile = Profile{Codec: "libopus", Bitrate: "128k", SampleRate: 48000, Channels: 2}

// Transcoder converts a raw download into the cached format.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// FFmpegTranscoder runs ffmpeg to produce an Ogg container.
type FFmpegTranscoder struct {
	tools   *Tools
	profile Profile
}

// NewFFmpegTranscoder creates a transcoder using the given profile.
func NewFFmpegTranscoder(tools *Tools, profile Profile) *FFmpegTranscoder {
	return &FFmpegTranscoder{tools: tools, profile: profile}
}

// Args returns the ffmpeg arguments for one conversion. The output is
// forced to Ogg since dst may carry a temporary suffix.
func (t *FFmpegTranscoder) Args(src, dst string) []string {
	p := t.profile
	args := []string{
		"-i", src,
		"-vn",
		"-c:a", p.Codec,
		"-b:a", p.Bitrate,
	}
	if p.Codec == "libopus" {
		args = append(args, "-vbr", "on", "-application", "audio")
	}
	args = append(args,
		"-ar", strconv.Itoa(p.SampleRate),
		"-ac", strconv.Itoa(p.Channels),
		"-loglevel", "error",
		"-f", "ogg",
		"-y", dst,
	)
	return args
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, src, dst string) error {
	cmd := t.tools.ffmpegCommand(ctx, t.Args(src, dst)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: "ffmpeg", Stderr: stderr.String(), Err: err}
	}
	return nil
}
