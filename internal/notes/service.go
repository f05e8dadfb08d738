package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxSlugAttempts bounds slug regeneration when a write collides with an existing slug.
const MaxSlugAttempts = 3

var (
	errMissingStore   = errors.New("note store is required")
	errMissingSlugger = errors.New("slug generator is required")
	noOpLogger        = zap.NewNop()
)

// ServiceError carries a dotted operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "notes.service.new"
	opFetchNotes  = "notes.fetch_notes"
	opCreateNote  = "notes.create_note"
	opComposeNote = "notes.compose_note"
	opFindBySlug  = "notes.find_by_slug"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// Slugger derives the per-note URL identifier from a title.
type Slugger interface {
	Generate(title string) (string, error)
}

// ServiceConfig describes the dependencies of the notes service.
type ServiceConfig struct {
	Store   Store
	Clock   func() time.Time
	Slugger Slugger
	Logger  *zap.Logger
}

// Service orchestrates reads and writes against the notes collection.
type Service struct {
	store   Store
	clock   func() time.Time
	slugger Slugger
	logger  *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}
	if cfg.Slugger == nil {
		return nil, newServiceError(opServiceNew, "missing_slugger", errMissingSlugger)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		store:   cfg.Store,
		clock:   clock,
		slugger: cfg.Slugger,
		logger:  logger,
	}, nil
}

// FetchNotes reads the whole collection, ascending by orderBy when set.
// An empty collection yields an empty, non-nil slice.
func (s *Service) FetchNotes(ctx context.Context, orderBy OrderField) ([]Note, error) {
	if !orderBy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderField, string(orderBy))
	}
	result, err := s.store.GetDocuments(ctx, orderBy)
	if err != nil {
		s.logError(opFetchNotes, "query_failed", err, zap.String("order_by", string(orderBy)))
		return nil, newServiceError(opFetchNotes, "query_failed", err)
	}
	if result == nil {
		result = []Note{}
	}
	return result, nil
}

// CreateNote writes a fully populated record and returns the store-assigned id.
func (s *Service) CreateNote(ctx context.Context, record Note) (NoteID, error) {
	if strings.TrimSpace(record.Title) == "" || strings.TrimSpace(record.Description) == "" {
		return "", ErrMissingFields
	}
	id, err := s.store.AddDocument(ctx, record)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return "", newServiceError(opCreateNote, "duplicate_slug", err)
		}
		s.logError(opCreateNote, "insert_failed", err, zap.String("slug", record.Slug))
		return "", newServiceError(opCreateNote, "insert_failed", err)
	}
	return id, nil
}

// ComposeNote builds the record for author from draft and writes it.
// A colliding slug is regenerated up to MaxSlugAttempts times.
func (s *Service) ComposeNote(ctx context.Context, author Author, draft Draft) (Note, error) {
	if strings.TrimSpace(author.ID) == "" {
		return Note{}, ErrMissingAuthor
	}
	if _, err := NewDraft(draft.Title(), draft.Description()); err != nil {
		return Note{}, err
	}

	record := Note{
		Title:       strings.ToUpper(draft.Title()),
		Description: draft.Description(),
		Time:        s.clock().UTC().Truncate(time.Millisecond),
		UploadedBy:  author,
	}

	var lastErr error
	for attempt := 1; attempt <= MaxSlugAttempts; attempt++ {
		generated, err := s.slugger.Generate(draft.Title())
		if err != nil {
			s.logError(opComposeNote, "slug_failed", err)
			return Note{}, newServiceError(opComposeNote, "slug_failed", err)
		}
		record.Slug = generated

		id, err := s.CreateNote(ctx, record)
		if err == nil {
			record.ID = id
			return record, nil
		}
		if !errors.Is(err, ErrDuplicateSlug) {
			return Note{}, err
		}
		lastErr = err
		s.logger.Warn("slug collision",
			zap.String("operation", opComposeNote),
			zap.String("slug", generated),
			zap.Int("attempt", attempt))
	}

	s.logError(opComposeNote, "slug_exhausted", lastErr, zap.Int("attempts", MaxSlugAttempts))
	return Note{}, newServiceError(opComposeNote, "slug_exhausted", lastErr)
}

// FindBySlug returns the note published under slug.
func (s *Service) FindBySlug(ctx context.Context, slug string) (Note, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Note{}, ErrNoteNotFound
	}
	note, err := s.store.FindBySlug(ctx, slug)
	if errors.Is(err, ErrNoteNotFound) {
		return Note{}, err
	}
	if err != nil {
		s.logError(opFindBySlug, "query_failed", err, zap.String("slug", slug))
		return Note{}, newServiceError(opFindBySlug, "query_failed", err)
	}
	return note, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notes service error", attrs...)
}
