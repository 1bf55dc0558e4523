package playlist

import "sync"

// Queue wraps a Playlist with a cursor and loop flag.
//
// All methods are safe for concurrent use. Mutations hold the same lock as
// reads, so a second mutator waits for the first one to finish before it
// observes the index.
type Queue struct {
	mu           sync.Mutex
	playlist     *Playlist
	currentIndex int // -1 if empty
	loop         bool
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
	}
}

// Current returns a copy of the current song, or nil if the queue is empty.
func (q *Queue) Current() *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentLocked()
}

func (q *Queue) currentLocked() *Song {
	s := q.playlist.Song(q.currentIndex)
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// CurrentIndex returns the zero-based cursor (-1 if empty).
func (q *Queue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentIndex
}

// Loop returns whether loop mode is enabled.
func (q *Queue) Loop() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loop
}

// SetLoop enables or disables loop mode.
func (q *Queue) SetLoop(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loop = enabled
}

// ToggleLoop flips loop mode and returns the new value.
func (q *Queue) ToggleLoop() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loop = !q.loop
	return q.loop
}

// Add appends a song. The first song added to an empty queue becomes current.
func (q *Queue) Add(song Song) {
	q.AddMany([]Song{song})
}

// AddMany appends songs in order.
func (q *Queue) AddMany(songs []Song) {
	if len(songs) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.playlist.Add(songs...)
	if q.currentIndex < 0 {
		q.currentIndex = 0
	}
}

// Remove removes the first song with the given id.
// Returns the removed song, or nil if no song matched.
func (q *Queue) Remove(id string) *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(q.playlist.IndexOf(id))
}

// RemoveAt removes the song at the given 1-based position.
// Returns the removed song, or nil if the position is out of range.
func (q *Queue) RemoveAt(position int) *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(position - 1)
}

func (q *Queue) removeLocked(index int) *Song {
	s := q.playlist.Song(index)
	if s == nil {
		return nil
	}
	removed := *s
	q.playlist.Remove(index)

	switch {
	case q.playlist.Len() == 0:
		q.currentIndex = -1
	case q.currentIndex > index:
		q.currentIndex--
	case q.currentIndex >= q.playlist.Len():
		// Removed the last song while it was current
		q.currentIndex = q.playlist.Len() - 1
	}
	return &removed
}

// Clear removes all songs and returns how many were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.playlist.Len()
	q.playlist.Clear()
	q.currentIndex = -1
	return n
}

// Next advances the cursor and returns the new current song.
// Wraps to the start only in loop mode with at least two songs.
// Returns nil at the end; the cursor stays where it was.
func (q *Queue) Next() *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.playlist.Len()
	switch {
	case n == 0:
		return nil
	case q.currentIndex < n-1:
		q.currentIndex++
	case q.loop && n >= 2:
		q.currentIndex = 0
	default:
		return nil
	}
	return q.currentLocked()
}

// Previous moves the cursor back and returns the new current song.
// Wraps to the end only in loop mode with at least two songs.
func (q *Queue) Previous() *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.playlist.Len()
	switch {
	case n == 0:
		return nil
	case q.currentIndex > 0:
		q.currentIndex--
	case q.loop && n >= 2:
		q.currentIndex = n - 1
	default:
		return nil
	}
	return q.currentLocked()
}

// HasNext returns true if Next would return a song.
func (q *Queue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.playlist.Len()
	if q.loop {
		return n > 1
	}
	return q.currentIndex >= 0 && q.currentIndex < n-1
}

// HasPrevious returns true if Previous would return a song.
func (q *Queue) HasPrevious() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.loop {
		return q.playlist.Len() > 1
	}
	return q.currentIndex > 0
}

// JumpTo sets the cursor to a zero-based index and returns that song.
// Returns nil and leaves the cursor unchanged if the index is invalid.
func (q *Queue) JumpTo(index int) *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	return q.currentLocked()
}

// MarkCached records the local file for a song.
// The path is only set once; later calls for the same song are ignored.
func (q *Queue) MarkCached(id, path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.playlist.IndexOf(id)
	s := q.playlist.Song(i)
	if s == nil || s.CachePath != "" || path == "" {
		return false
	}
	s.CachePath = path
	return true
}

// Song returns a copy of the song at the 1-based position, or nil.
func (q *Queue) Song(position int) *Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.playlist.Song(position - 1)
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Songs returns a copy of all songs in order.
func (q *Queue) Songs() []Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playlist.Songs()
}

// Snapshot returns the songs and the cursor read under one lock.
func (q *Queue) Snapshot() ([]Song, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playlist.Songs(), q.currentIndex
}

// Upcoming returns up to n songs after the cursor (no wrap).
func (q *Queue) Upcoming(n int) []Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.currentIndex < 0 {
		return []Song{}
	}
	return q.playlist.Slice(q.currentIndex+1, q.currentIndex+1+n)
}

// PreviousSongs returns up to n songs before the cursor, oldest first.
func (q *Queue) PreviousSongs(n int) []Song {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.currentIndex <= 0 {
		return []Song{}
	}
	return q.playlist.Slice(q.currentIndex-n, q.currentIndex)
}

// Len returns the number of songs in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no songs.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}
