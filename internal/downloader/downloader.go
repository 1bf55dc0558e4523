// Package downloader resolves remote media with yt-dlp and transcodes it
// into the local cache format with ffmpeg.
package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/errmsg"
)

// ErrEmptyPlaylist is returned when a playlist yields no playable entry.
var ErrEmptyPlaylist = errors.New("playlist is empty or could not be parsed")

const emptyPlaylistMessage = "無法解析播放清單或播放清單為空"

// rawSuffix marks untranscoded downloads. Cache entries never carry it.
const rawSuffix = ".raw"

// InfoCache stores extracted metadata by URL.
type InfoCache interface {
	Get(url string) (*Info, bool)
	Set(url string, info Info) error
}

// Options configures a Downloader.
type Options struct {
	Dir       string // cache directory
	Extension string // cached file extension, with dot

	ExtractTimeout  time.Duration
	PlaylistTimeout time.Duration
	DownloadTimeout time.Duration

	Classifier *Classifier
	InfoCache  InfoCache

	// OnProgress receives download percentages.
	OnProgress func(id string, percent float64)
}

// Downloader extracts metadata and produces cached audio files.
type Downloader struct {
	backend    Backend
	transcoder Transcoder
	opts       Options
}

// New creates a downloader over the given backend and transcoder.
func New(backend Backend, transcoder Transcoder, opts Options) *Downloader {
	if opts.Extension == "" {
		opts.Extension = ".opus"
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = 30 * time.Second
	}
	if opts.PlaylistTimeout <= 0 {
		opts.PlaylistTimeout = 120 * time.Second
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 180 * time.Second
	}
	if opts.Classifier == nil {
		opts.Classifier = NewDefaultClassifier()
	}
	return &Downloader{backend: backend, transcoder: transcoder, opts: opts}
}

// Dir returns the output directory.
func (d *Downloader) Dir() string { return d.opts.Dir }

// Extension returns the cached file extension.
func (d *Downloader) Extension() string { return d.opts.Extension }

// PathFor returns the cache path for an id.
func (d *Downloader) PathFor(id string) string {
	return filepath.Join(d.opts.Dir, id+d.opts.Extension)
}

// ExtractInfo returns validated metadata for a single item.
func (d *Downloader) ExtractInfo(ctx context.Context, url string) (*Info, error) {
	if d.opts.InfoCache != nil {
		if info, ok := d.opts.InfoCache.Get(url); ok {
			log.Debug().Str("url", url).Msg("metadata cache hit")
			return info, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.ExtractTimeout)
	defer cancel()

	data, err := d.backend.DumpInfo(ctx, url)
	if err != nil {
		return nil, d.classify(ctx, errmsg.OpExtractInfo, url, err)
	}

	raw, err := parseInfo(bytes.TrimSpace(data))
	if err != nil {
		return nil, errmsg.New(errmsg.KindDownload, errmsg.OpExtractInfo,
			fmt.Errorf("parsing metadata: %w", err))
	}
	if !raw.valid() {
		log.Debug().Str("url", url).Str("title", raw.Title).Msg("rejected invalid media")
		return nil, errmsg.Unavailable(errmsg.ReasonUnavailable, url, errInvalidMedia)
	}

	info := raw.normalize()
	if d.opts.InfoCache != nil {
		if err := d.opts.InfoCache.Set(url, info); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to cache metadata")
		}
	}
	return &info, nil
}

// ExtractPlaylist returns the valid entries of a playlist in order.
// Unparsable and invalid entries are skipped.
func (d *Downloader) ExtractPlaylist(ctx context.Context, url string) ([]Info, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.PlaylistTimeout)
	defer cancel()

	data, err := d.backend.DumpPlaylist(ctx, url)
	if err != nil {
		return nil, d.classify(ctx, errmsg.OpExtractPlaylist, url, err)
	}

	var infos []Info
	skipped := 0
	for line := range bytes.Lines(data) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		raw, err := parseInfo(line)
		if err != nil || !raw.valid() {
			skipped++
			continue
		}
		infos = append(infos, raw.normalize())
	}

	if skipped > 0 {
		log.Debug().Str("url", url).Int("skipped", skipped).Msg("skipped playlist entries")
	}
	if len(infos) == 0 {
		return nil, &errmsg.Error{
			Kind:    errmsg.KindDownload,
			Op:      errmsg.OpExtractPlaylist,
			Subject: url,
			Message: emptyPlaylistMessage,
			Err:     ErrEmptyPlaylist,
		}
	}
	return infos, nil
}

// Download produces the cached file for url and returns its path.
// If id is empty the metadata is extracted first; the returned Info is
// nil when it was not needed. An existing cache file short-circuits.
func (d *Downloader) Download(ctx context.Context, url, id string) (*Info, string, error) {
	var info *Info
	if id == "" {
		var err error
		info, err = d.ExtractInfo(ctx, url)
		if err != nil {
			return nil, "", err
		}
		id = info.ID
	}

	final := d.PathFor(id)
	if _, err := os.Stat(final); err == nil {
		return info, final, nil
	}

	if err := os.MkdirAll(d.opts.Dir, 0o755); err != nil {
		return info, "", errmsg.New(errmsg.KindDownload, errmsg.OpDownload, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.DownloadTimeout)
	defer cancel()

	if err := d.fetchAndTranscode(ctx, url, id, final); err != nil {
		d.removePartials(id)
		return info, "", err
	}

	log.Debug().Str("id", id).Str("path", final).Msg("downloaded")
	return info, final, nil
}

func (d *Downloader) fetchAndTranscode(ctx context.Context, url, id, final string) error {
	var progress func(float64)
	if d.opts.OnProgress != nil {
		progress = func(p float64) { d.opts.OnProgress(id, p) }
	}

	template := filepath.Join(d.opts.Dir, id+".%(ext)s"+rawSuffix)
	if err := d.backend.Fetch(ctx, url, template, progress); err != nil {
		return d.classify(ctx, errmsg.OpDownload, url, err)
	}

	raw, err := d.findRaw(id)
	if err != nil {
		return errmsg.New(errmsg.KindDownload, errmsg.OpDownload, err)
	}
	defer os.Remove(raw)

	tmp := final + ".part"
	if err := d.transcoder.Transcode(ctx, raw, tmp); err != nil {
		if ctx.Err() != nil {
			return d.contextError(ctx, errmsg.OpTranscode, url)
		}
		return errmsg.New(errmsg.KindDownload, errmsg.OpTranscode, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errmsg.New(errmsg.KindDownload, errmsg.OpTranscode, err)
	}
	return nil
}

// Fetch downloads and returns only the path.
func (d *Downloader) Fetch(ctx context.Context, url, id string) (string, error) {
	_, path, err := d.Download(ctx, url, id)
	return path, err
}

// findRaw locates the file yt-dlp wrote for id.
func (d *Downloader) findRaw(id string) (string, error) {
	entries, err := os.ReadDir(d.opts.Dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, id+".") && strings.HasSuffix(name, rawSuffix) {
			return filepath.Join(d.opts.Dir, name), nil
		}
	}
	return "", fmt.Errorf("no downloaded file for %s", id)
}

// removePartials deletes every file for id except the finished one.
func (d *Downloader) removePartials(id string) {
	entries, err := os.ReadDir(d.opts.Dir)
	if err != nil {
		return
	}
	final := id + d.opts.Extension
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == final || !strings.HasPrefix(name, id+".") {
			continue
		}
		if err := os.Remove(filepath.Join(d.opts.Dir, name)); err == nil {
			log.Debug().Str("file", name).Msg("removed partial download")
		}
	}
}

// classify converts a backend failure into a classified error.
func (d *Downloader) classify(ctx context.Context, op errmsg.Op, url string, err error) error {
	if ctx.Err() != nil {
		return d.contextError(ctx, op, url)
	}

	text := err.Error()
	var te *ToolError
	if errors.As(err, &te) {
		text = te.Output()
	}
	reason := d.opts.Classifier.Classify(text)
	log.Debug().Err(err).Str("url", url).Str("reason", string(reason)).Msg("extractor failed")

	e := errmsg.Unavailable(reason, url, err)
	e.Op = op
	return e
}

func (d *Downloader) contextError(ctx context.Context, op errmsg.Op, url string) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		e := errmsg.New(errmsg.KindTimeout, op, err)
		e.Subject = url
		return e
	}
	return err
}
