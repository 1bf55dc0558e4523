package downloader

import "strings"

// playlistMarkers lists host and path pairs that identify playlist URLs.
// An empty host matches any host.
var playlistMarkers = []struct {
	host  string
	paths []string
}{
	{"", []string{"list="}},
	{"music.youtube.com", []string{"/playlist"}},
	{"spotify.com", []string{"/playlist/", "/album/"}},
	{"soundcloud.com", []string{"/sets/"}},
}

// IsPlaylist reports whether the URL refers to a playlist.
// It only inspects the string and never touches the network.
func IsPlaylist(url string) bool {
	lower := strings.ToLower(url)
	for _, m := range playlistMarkers {
		if m.host != "" && !strings.Contains(lower, m.host) {
			continue
		}
		for _, p := range m.paths {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	return false
}
