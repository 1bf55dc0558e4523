package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/wavecast/internal/app"
	"github.com/llehouerou/wavecast/internal/cache"
	"github.com/llehouerou/wavecast/internal/config"
	"github.com/llehouerou/wavecast/internal/downloader"
	"github.com/llehouerou/wavecast/internal/icons"
	"github.com/llehouerou/wavecast/internal/logging"
	"github.com/llehouerou/wavecast/internal/metacache"
	"github.com/llehouerou/wavecast/internal/mpris"
	"github.com/llehouerou/wavecast/internal/notify"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/playlist"
	"github.com/llehouerou/wavecast/internal/stderr"
)

// session owns everything that must be released on exit.
type session struct {
	svc     playback.Service
	cache   *cache.Manager
	closers []io.Closer
}

func (s *session) close() {
	if s.svc != nil {
		if err := s.svc.Close(); err != nil {
			log.Warn().Err(err).Msg("close playback service")
		}
	}
	if s.cache != nil {
		s.cache.Cleanup()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

func setup(ctx context.Context, cfg *config.Config) (*session, app.Options, error) {
	s := &session{}
	fail := func(err error) (*session, app.Options, error) {
		s.close()
		return nil, app.Options{}, err
	}

	dlCfg := cfg.GetDownloaderConfig()
	tools := downloader.NewTools(dlCfg.YtdlpPath, dlCfg.FfmpegPath, *dlCfg.AutoInstall)
	if err := tools.Resolve(ctx); err != nil {
		return fail(err)
	}
	if *dlCfg.UpdateCheck {
		if out, err := tools.Update(ctx, dlCfg.ExtractTimeout); err != nil {
			log.Warn().Err(err).Msg("yt-dlp update check failed")
		} else {
			log.Info().Str("output", out).Msg("yt-dlp update check")
		}
	}

	cacheCfg := cfg.GetCacheConfig()
	opts := downloader.Options{
		Dir:             cacheCfg.Dir,
		Extension:       dlCfg.Extension,
		ExtractTimeout:  dlCfg.ExtractTimeout,
		PlaylistTimeout: dlCfg.PlaylistTimeout,
		DownloadTimeout: dlCfg.DownloadTimeout,
		Classifier:      downloader.NewDefaultClassifier().WithOverrides(dlCfg.ErrorPatterns),
		OnProgress: func(id string, percent float64) {
			log.Debug().Str("id", id).Float64("percent", percent).Msg("download progress")
		},
	}
	if *dlCfg.InfoCache {
		path, err := config.DataPath("metadata.db")
		if err != nil {
			return fail(err)
		}
		store, err := metacache.Open(path, time.Duration(dlCfg.InfoCacheTTLHours)*time.Hour)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("metadata cache disabled")
		} else {
			s.closers = append(s.closers, store)
			opts.InfoCache = store
		}
	}

	transcoder := downloader.NewFFmpegTranscoder(tools, downloader.Profile{
		Codec:      dlCfg.Codec,
		Bitrate:    dlCfg.Bitrate,
		SampleRate: dlCfg.SampleRate,
		Channels:   dlCfg.Channels,
	})
	dl := downloader.New(downloader.NewYtdlpBackend(tools, dlCfg.Format), transcoder, opts)

	var err error
	s.cache, err = cache.New(cache.Options{
		Dir:       cacheCfg.Dir,
		Extension: dlCfg.Extension,
		Behind:    *cacheCfg.Behind,
		Ahead:     *cacheCfg.Ahead,
	})
	if err != nil {
		return fail(err)
	}

	playerCfg := cfg.GetPlayerConfig()
	speaker := player.NewSpeaker()
	speaker.SetVolume(*playerCfg.Volume)

	s.svc = playback.New(speaker, playlist.NewQueue(), dl, s.cache, playback.Options{
		Debounce:             playerCfg.Debounce,
		ReconnectInterval:    playerCfg.ReconnectInterval,
		ReconnectMaxAttempts: playerCfg.ReconnectMaxAttempts,
		PreloadWait:          cacheCfg.PreloadWait,
	})
	if err := s.svc.Connect(ctx, playerCfg.Channel); err != nil {
		// The UI can retry with "r".
		log.Error().Err(err).Str("channel", playerCfg.Channel).Msg("initial connect failed")
	}

	if cfg.NotificationsEnabled() {
		n, err := notify.New()
		if err != nil {
			log.Warn().Err(err).Msg("notifications disabled")
		} else {
			go notify.NewRelay(n).Run(s.svc.Subscribe())
		}
	}

	if adapter, err := mpris.New(s.svc, speaker); err != nil {
		log.Warn().Err(err).Msg("mpris disabled")
	} else {
		s.closers = append(s.closers, adapter)
	}

	return s, app.Options{
		Service:   s.svc,
		Volume:    speaker,
		Cache:     s.cache,
		Channel:   playerCfg.Channel,
		Requester: requester(),
		PageSize:  playerCfg.PageSize,
	}, nil
}

func requester() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath, err := config.StatePath("wavecast.log")
	if err != nil {
		return err
	}
	logFile, err := logging.Setup(logging.Options{
		Path:  logPath,
		Level: cfg.GetLogLevel(),
		JSON:  cfg.UseJSONLogs(),
	})
	if err != nil {
		return err
	}
	defer logFile.Close()

	// ffmpeg and the audio backend write to fd 2, which would corrupt the TUI.
	if err := stderr.Start(); err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	}
	defer stderr.Stop()

	s, opts, err := setup(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer s.close()

	icons.Init(cfg.Icons)
	log.Info().Str("channel", opts.Channel).Msg("wavecast started")
	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("Error: %v\n", err))
		os.Exit(1)
	}
}
