package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidNoteID indicates that a note identifier is empty or exceeds storage bounds.
	ErrInvalidNoteID = errors.New("notes: invalid note id")
	// ErrMissingFields indicates that the title or description is blank.
	ErrMissingFields = errors.New("notes: title and description are required")
	// ErrInvalidOrderField indicates an order field outside the supported set.
	ErrInvalidOrderField = errors.New("notes: invalid order field")
	// ErrNoteNotFound indicates that no note carries the requested slug.
	ErrNoteNotFound = errors.New("notes: note not found")
	// ErrDuplicateSlug indicates that a note with the same slug already exists.
	ErrDuplicateSlug = errors.New("notes: duplicate slug")
	// ErrMissingAuthor indicates that a write was attempted without a signed-in user.
	ErrMissingAuthor = errors.New("notes: author is required")
)

// NoteID represents a validated note identifier.
type NoteID string

// NewNoteID validates raw input and returns a NoteID.
func NewNoteID(rawInput string) (NoteID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNoteID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidNoteID, maxIdentifierLength)
	}
	return NoteID(trimmed), nil
}

// String returns the underlying string identifier.
func (id NoteID) String() string {
	return string(id)
}

// Author is the snapshot of the uploader taken when the note was written.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Note is a persisted note. Notes are immutable once written.
type Note struct {
	ID          NoteID    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Time        time.Time `json:"time"`
	UploadedBy  Author    `json:"uploaded_by"`
}

// Draft holds user input that passed the required-fields check.
type Draft struct {
	title       string
	description string
}

// NewDraft validates the panel input. Whitespace-only values count as empty.
func NewDraft(title, description string) (Draft, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return Draft{}, ErrMissingFields
	}
	return Draft{title: title, description: description}, nil
}

// Title returns the title as typed.
func (d Draft) Title() string {
	return d.title
}

// Description returns the description as typed.
func (d Draft) Description() string {
	return d.description
}

// OrderField names the field a listing is sorted by.
type OrderField string

const (
	// OrderNone keeps the store order, which is creation order.
	OrderNone  OrderField = ""
	OrderTitle OrderField = "title"
	OrderTime  OrderField = "time"
	OrderSlug  OrderField = "slug"
)

// ParseOrderField validates raw input and returns an OrderField.
func ParseOrderField(rawInput string) (OrderField, error) {
	field := OrderField(strings.ToLower(strings.TrimSpace(rawInput)))
	if !field.Valid() {
		return OrderNone, fmt.Errorf("%w: %q", ErrInvalidOrderField, rawInput)
	}
	return field, nil
}

// Valid reports whether the field is one of the supported order fields.
func (f OrderField) Valid() bool {
	switch f {
	case OrderNone, OrderTitle, OrderTime, OrderSlug:
		return true
	default:
		return false
	}
}
