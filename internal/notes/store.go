package notes

import "context"

//go:generate mockgen -source=store.go -destination=../mock/notes_store_mock.go -package=mock

// Store is the document collection holding notes.
type Store interface {
	// AddDocument writes one note and returns the identifier assigned by the store.
	AddDocument(ctx context.Context, note Note) (NoteID, error)
	// GetDocuments reads the whole collection, ascending by the order field.
	GetDocuments(ctx context.Context, orderBy OrderField) ([]Note, error)
	// FindBySlug returns the note with the slug or ErrNoteNotFound.
	FindBySlug(ctx context.Context, slug string) (Note, error)
}
