package playlist

import "fmt"

// Song represents a single playable remote media item.
type Song struct {
	ID          string // stable identifier from the extractor
	Title       string
	URL         string
	Duration    int // seconds, never negative
	Uploader    string
	UploaderURL string
	Thumbnail   string
	RequestedBy string // optional requester identifier
	CachePath   string // set once when the local file is ready
}

// IsCached returns true if a local file has been attached to the song.
func (s Song) IsCached() bool {
	return s.CachePath != ""
}

// String returns a short description for logs.
func (s Song) String() string {
	return fmt.Sprintf("%s [%s]", s.Title, s.ID)
}

// Playlist holds an ordered collection of songs.
type Playlist struct {
	songs []Song
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		songs: make([]Song, 0),
	}
}

// Add appends songs to the playlist.
func (p *Playlist) Add(songs ...Song) {
	for _, s := range songs {
		if s.Duration < 0 {
			s.Duration = 0
		}
		p.songs = append(p.songs, s)
	}
}

// Remove removes the song at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.songs) {
		return false
	}
	p.songs = append(p.songs[:index], p.songs[index+1:]...)
	return true
}

// IndexOf returns the index of the first song with the given id, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i := range p.songs {
		if p.songs[i].ID == id {
			return i
		}
	}
	return -1
}

// Clear removes all songs from the playlist.
func (p *Playlist) Clear() {
	p.songs = p.songs[:0]
}

// Songs returns a copy of all songs.
func (p *Playlist) Songs() []Song {
	result := make([]Song, len(p.songs))
	copy(result, p.songs)
	return result
}

// Slice returns a copy of songs in [from, to), clamped to bounds.
func (p *Playlist) Slice(from, to int) []Song {
	from = max(from, 0)
	to = min(to, len(p.songs))
	if from >= to {
		return []Song{}
	}
	result := make([]Song, to-from)
	copy(result, p.songs[from:to])
	return result
}

// Song returns the song at the given index, or nil if out of bounds.
func (p *Playlist) Song(index int) *Song {
	if index < 0 || index >= len(p.songs) {
		return nil
	}
	return &p.songs[index]
}

// Len returns the number of songs.
func (p *Playlist) Len() int {
	return len(p.songs)
}
