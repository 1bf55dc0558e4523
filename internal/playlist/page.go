package playlist

// DefaultPerPage is the page size used when a caller passes zero.
const DefaultPerPage = 5

// Page is one page of the queue listing.
type Page struct {
	Songs        []Song
	StartIndex   int // zero-based index of Songs[0]
	CurrentPage  int // 1-based, clamped into [1, TotalPages]
	TotalPages   int // at least 1
	TotalSongs   int
	CurrentIndex int // queue cursor at the time of the snapshot
}

// Page returns the given 1-based page of the queue.
func (q *Queue) Page(page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	total := q.playlist.Len()
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	start := (page - 1) * perPage

	return Page{
		Songs:        q.playlist.Slice(start, start+perPage),
		StartIndex:   start,
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalSongs:   total,
		CurrentIndex: q.currentIndex,
	}
}

// PageOf returns the 1-based page containing the zero-based index.
func PageOf(index, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if index < 0 {
		return 1
	}
	return index/perPage + 1
}
