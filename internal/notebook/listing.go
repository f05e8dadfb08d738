package notebook

import (
	"context"
	"net/url"
	"sync"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
)

// ListingStatus is what the listing page renders.
type ListingStatus int

const (
	// ListingNotLoaded renders nothing.
	ListingNotLoaded ListingStatus = iota
	// ListingEmpty renders MessageNoNotes.
	ListingEmpty
	// ListingPopulated renders the notes.
	ListingPopulated
)

// Fetcher reads the full notes collection.
type Fetcher interface {
	Fetch(ctx context.Context) ([]notes.Note, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]notes.Note, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) ([]notes.Note, error) {
	return f(ctx)
}

// Listing is the notes listing page. A nil list means not loaded yet.
type Listing struct {
	mu      sync.Mutex
	notes   []notes.Note
	loading bool
	inbox   *Inbox
}

// NewListing returns a listing that has not loaded yet.
func NewListing(inbox *Inbox) *Listing {
	return &Listing{inbox: inbox}
}

// Begin marks a fetch as in flight.
func (l *Listing) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = true
}

// Abort clears the loading flag and keeps the previous result. Used when the
// fetch never ran, such as a write that failed before its re-fetch.
func (l *Listing) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
}

// Finish stores the fetch result. On failure the previous result stays and
// the error is published.
func (l *Listing) Finish(result []notes.Note, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		text := err.Error()
		if text == "" {
			text = MessageLoadFailed
		}
		l.inbox.Error(text)
		return
	}
	if result == nil {
		result = []notes.Note{}
	}
	l.notes = result
}

// Load fetches and stores the collection.
func (l *Listing) Load(ctx context.Context, fetcher Fetcher) error {
	l.Begin()
	result, err := fetcher.Fetch(ctx)
	l.Finish(result, err)
	return err
}

// Loading reports whether a fetch is in flight.
func (l *Listing) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Notes returns the loaded notes, nil before the first successful fetch.
func (l *Listing) Notes() []notes.Note {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.notes == nil {
		return nil
	}
	return append([]notes.Note{}, l.notes...)
}

// Status reports which of the three listing renderings applies.
func (l *Listing) Status() ListingStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.notes == nil:
		return ListingNotLoaded
	case len(l.notes) == 0:
		return ListingEmpty
	default:
		return ListingPopulated
	}
}

// Empty reports whether a fetch completed with no notes.
func (l *Listing) Empty() bool {
	return l.Status() == ListingEmpty
}

// DetailPath is the route of the note published under slug.
func DetailPath(slug string) string {
	return "/1/" + url.PathEscape(slug)
}
