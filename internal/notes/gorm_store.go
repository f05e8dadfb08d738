package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var errMissingDatabase = errors.New("database handle is required")

// Record is the relational row backing a note.
type Record struct {
	NoteID         string `gorm:"column:note_id;primaryKey;size:190;not null"`
	Title          string `gorm:"column:title;type:text;not null"`
	Description    string `gorm:"column:description;type:text;not null"`
	Slug           string `gorm:"column:slug;size:255;not null;uniqueIndex:idx_notes_slug"`
	CreatedAtMs    int64  `gorm:"column:created_at_ms;not null;index:idx_notes_created"`
	UploadedByID   string `gorm:"column:uploaded_by_id;size:190;not null"`
	UploadedByName string `gorm:"column:uploaded_by_name;size:320;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "notes"
}

func recordFromNote(id NoteID, note Note) Record {
	return Record{
		NoteID:         id.String(),
		Title:          note.Title,
		Description:    note.Description,
		Slug:           note.Slug,
		CreatedAtMs:    note.Time.UnixMilli(),
		UploadedByID:   note.UploadedBy.ID,
		UploadedByName: note.UploadedBy.Name,
	}
}

func (r Record) toNote() Note {
	return Note{
		ID:          NoteID(r.NoteID),
		Title:       r.Title,
		Description: r.Description,
		Slug:        r.Slug,
		Time:        time.UnixMilli(r.CreatedAtMs).UTC(),
		UploadedBy:  Author{ID: r.UploadedByID, Name: r.UploadedByName},
	}
}

// GormStore keeps notes in a relational database through GORM.
type GormStore struct {
	db  *gorm.DB
	ids IDProvider
}

// NewGormStore constructs a GormStore issuing identifiers from ids.
func NewGormStore(db *gorm.DB, ids IDProvider) (*GormStore, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if ids == nil {
		ids = NewUUIDProvider()
	}
	return &GormStore{db: db, ids: ids}, nil
}

// AddDocument inserts the note under a freshly issued identifier.
func (s *GormStore) AddDocument(ctx context.Context, note Note) (NoteID, error) {
	rawID, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("issue note id: %w", err)
	}
	id, err := NewNoteID(rawID)
	if err != nil {
		return "", err
	}
	record := recordFromNote(id, note)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, note.Slug)
		}
		return "", err
	}
	return id, nil
}

// GetDocuments returns every note. UUIDv7 identifiers sort in creation order.
func (s *GormStore) GetDocuments(ctx context.Context, orderBy OrderField) ([]Note, error) {
	var records []Record
	if err := s.db.WithContext(ctx).
		Order(gormOrderClause(orderBy)).
		Find(&records).Error; err != nil {
		return nil, err
	}
	result := make([]Note, 0, len(records))
	for _, record := range records {
		result = append(result, record.toNote())
	}
	return result, nil
}

// FindBySlug returns the note stored under slug.
func (s *GormStore) FindBySlug(ctx context.Context, slug string) (Note, error) {
	var record Record
	err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return record.toNote(), nil
}

func gormOrderClause(orderBy OrderField) string {
	switch orderBy {
	case OrderTitle:
		return "title ASC, note_id ASC"
	case OrderTime:
		return "created_at_ms ASC, note_id ASC"
	case OrderSlug:
		return "slug ASC"
	default:
		return "note_id ASC"
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
