package downloader

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/llehouerou/wavecast/internal/playlist"
)

const (
	defaultTitle    = "未知標題"
	defaultUploader = "未知上傳者"
)

var errInvalidMedia = errors.New("media is deleted, private or otherwise unplayable")

// Info is the normalized metadata of one remote media item.
type Info struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Duration    int    `json:"duration"`
	Uploader    string `json:"uploader"`
	UploaderURL string `json:"uploader_url"`
	Thumbnail   string `json:"thumbnail"`
}

// Song converts the metadata into a queue entry.
func (i Info) Song(requestedBy string) playlist.Song {
	return playlist.Song{
		ID:          i.ID,
		Title:       i.Title,
		URL:         i.URL,
		Duration:    i.Duration,
		Uploader:    i.Uploader,
		UploaderURL: i.UploaderURL,
		Thumbnail:   i.Thumbnail,
		RequestedBy: requestedBy,
	}
}

// rawInfo is the subset of yt-dlp's JSON info dict we read.
type rawInfo struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Duration    *float64       `json:"duration"`
	Uploader    string         `json:"uploader"`
	Artist      string         `json:"artist"`
	ChannelURL  string         `json:"channel_url"`
	UploaderURL string         `json:"uploader_url"`
	ArtistURL   string         `json:"artist_url"`
	CreatorURL  string         `json:"creator_url"`
	WebpageURL  string         `json:"webpage_url"`
	URL         string         `json:"url"`
	Extractor   string         `json:"extractor"`
	IEKey       string         `json:"ie_key"`
	Thumbnail   string         `json:"thumbnail"`
	Thumbnails  []rawThumbnail `json:"thumbnails"`
}

type rawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var placeholderTitles = map[string]bool{
	"unknown title": true,
	"未知標題":          true,
	"untitled":      true,
}

var invalidTitlePatterns = []string{
	"deleted video",
	"private video",
	"video unavailable",
	"track not found",
	"private track",
	"removed track",
	"track unavailable",
	"not available",
	"not found",
	"removed by artist",
	"content not available",
	"no longer exists",
}

// parseInfo decodes one JSON record.
func parseInfo(data []byte) (*rawInfo, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// valid reports whether the record describes playable media.
func (r *rawInfo) valid() bool {
	title := strings.ToLower(strings.TrimSpace(r.Title))
	if title == "" || placeholderTitles[title] {
		return false
	}
	for _, p := range invalidTitlePatterns {
		if strings.Contains(title, p) {
			return false
		}
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return false
	}
	return true
}

// normalize fills fallbacks and picks the best fields.
func (r *rawInfo) normalize() Info {
	info := Info{
		ID:        r.ID,
		Title:     firstNonEmpty(r.Title, defaultTitle),
		Uploader:  firstNonEmpty(r.Uploader, r.Artist, defaultUploader),
		Thumbnail: r.Thumbnail,
	}
	if r.Duration != nil && *r.Duration > 0 {
		info.Duration = int(*r.Duration)
	}
	info.UploaderURL = firstNonEmpty(r.ChannelURL, r.UploaderURL, r.ArtistURL, r.CreatorURL)

	info.URL = firstNonEmpty(r.WebpageURL, r.URL)
	if info.URL == "" && r.ID != "" {
		extractor := strings.ToLower(firstNonEmpty(r.Extractor, r.IEKey))
		if extractor == "" || strings.Contains(extractor, "youtube") {
			info.URL = "https://www.youtube.com/watch?v=" + r.ID
		}
	}

	if info.Thumbnail == "" {
		info.Thumbnail = largestThumbnail(r.Thumbnails)
	}
	return info
}

func largestThumbnail(thumbs []rawThumbnail) string {
	best, bestArea := "", -1
	for _, t := range thumbs {
		if t.URL == "" {
			continue
		}
		if area := t.Width * t.Height; area > bestArea {
			best, bestArea = t.URL, area
		}
	}
	return best
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
