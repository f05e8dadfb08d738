package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errMissingCollection = errors.New("mongo collection is required")

type mongoAuthor struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

type mongoNote struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Slug        string             `bson:"slug"`
	Time        time.Time          `bson:"time"`
	UploadedBy  mongoAuthor        `bson:"uploadedBy"`
}

func (d mongoNote) toNote() Note {
	return Note{
		ID:          NoteID(d.ID.Hex()),
		Title:       d.Title,
		Description: d.Description,
		Slug:        d.Slug,
		Time:        d.Time.UTC(),
		UploadedBy:  Author{ID: d.UploadedBy.ID, Name: d.UploadedBy.Name},
	}
}

// MongoStore keeps notes as documents in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps the notes collection.
func NewMongoStore(coll *mongo.Collection) (*MongoStore, error) {
	if coll == nil {
		return nil, errMissingCollection
	}
	return &MongoStore{coll: coll}, nil
}

// AddDocument inserts the note; the ObjectID becomes the note id.
func (s *MongoStore) AddDocument(ctx context.Context, note Note) (NoteID, error) {
	doc := mongoNote{
		ID:          primitive.NewObjectID(),
		Title:       note.Title,
		Description: note.Description,
		Slug:        note.Slug,
		Time:        note.Time,
		UploadedBy:  mongoAuthor{ID: note.UploadedBy.ID, Name: note.UploadedBy.Name},
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, note.Slug)
		}
		return "", err
	}
	return NoteID(doc.ID.Hex()), nil
}

// GetDocuments returns every document. ObjectIDs ascend in insertion order.
func (s *MongoStore) GetDocuments(ctx context.Context, orderBy OrderField) ([]Note, error) {
	opts := options.Find().SetSort(mongoSort(orderBy))
	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoNote
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	result := make([]Note, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toNote())
	}
	return result, nil
}

// FindBySlug returns the document stored under slug.
func (s *MongoStore) FindBySlug(ctx context.Context, slug string) (Note, error) {
	var doc mongoNote
	err := s.coll.FindOne(ctx, bson.D{{Key: "slug", Value: slug}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return doc.toNote(), nil
}

func mongoSort(orderBy OrderField) bson.D {
	switch orderBy {
	case OrderTitle:
		return bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}
	case OrderTime:
		return bson.D{{Key: "time", Value: 1}, {Key: "_id", Value: 1}}
	case OrderSlug:
		return bson.D{{Key: "slug", Value: 1}}
	default:
		return bson.D{{Key: "_id", Value: 1}}
	}
}
