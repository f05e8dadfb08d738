package notebook

import (
	"context"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
)

// NoteService is the read side of the notes service the listing drives.
type NoteService interface {
	FetchNotes(ctx context.Context, orderBy notes.OrderField) ([]notes.Note, error)
}

// ServiceFetcher reads the collection through the notes service.
type ServiceFetcher struct {
	Service NoteService
	OrderBy notes.OrderField
}

// Fetch implements Fetcher.
func (f ServiceFetcher) Fetch(ctx context.Context) ([]notes.Note, error) {
	return f.Service.FetchNotes(ctx, f.OrderBy)
}
