package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mongoFixture(id primitive.ObjectID, title, slug string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "description", Value: "body of " + title},
		{Key: "slug", Value: slug},
		{Key: "time", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "uploadedBy", Value: bson.D{{Key: "id", Value: "u1"}, {Key: "name", Value: "Ada"}}},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("add document returns object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store, err := NewMongoStore(mt.Coll)
		if err != nil {
			mt.Fatalf("failed to build store: %v", err)
		}

		id, err := store.AddDocument(context.Background(), sampleNote("FIRST", "first_aaaaaaaaaa", time.Now().UTC()))
		if err != nil {
			mt.Fatalf("unexpected insert error: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(id.String()); err != nil {
			mt.Fatalf("expected hex object id, got %q", id)
		}
	})

	mt.Run("add document maps duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: quicknote.notes index: slug_1",
		}))
		store, _ := NewMongoStore(mt.Coll)

		_, err := store.AddDocument(context.Background(), sampleNote("DUP", "dup_aaaaaaaaaa", time.Now().UTC()))
		if !errors.Is(err, ErrDuplicateSlug) {
			mt.Fatalf("expected duplicate slug, got %v", err)
		}
	})

	mt.Run("get documents decodes batch", func(mt *mtest.T) {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		first := primitive.NewObjectID()
		second := primitive.NewObjectID()
		namespace := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, namespace, mtest.FirstBatch,
				mongoFixture(first, "ALPHA", "alpha_0000000000", at),
				mongoFixture(second, "BRAVO", "bravo_0000000000", at.Add(time.Second)),
			),
			mtest.CreateCursorResponse(0, namespace, mtest.NextBatch),
		)
		store, _ := NewMongoStore(mt.Coll)

		got, err := store.GetDocuments(context.Background(), OrderTitle)
		if err != nil {
			mt.Fatalf("unexpected query error: %v", err)
		}
		if len(got) != 2 {
			mt.Fatalf("expected two notes, got %d", len(got))
		}
		if got[0].ID != NoteID(first.Hex()) || got[0].Title != "ALPHA" {
			mt.Fatalf("unexpected first note %+v", got[0])
		}
		if got[1].UploadedBy != (Author{ID: "u1", Name: "Ada"}) || !got[1].Time.Equal(at.Add(time.Second)) {
			mt.Fatalf("unexpected second note %+v", got[1])
		}
	})

	mt.Run("get documents on empty collection", func(mt *mtest.T) {
		namespace := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch))
		store, _ := NewMongoStore(mt.Coll)

		got, err := store.GetDocuments(context.Background(), OrderNone)
		if err != nil {
			mt.Fatalf("unexpected query error: %v", err)
		}
		if got == nil || len(got) != 0 {
			mt.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	mt.Run("find by slug missing", func(mt *mtest.T) {
		namespace := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch))
		store, _ := NewMongoStore(mt.Coll)

		if _, err := store.FindBySlug(context.Background(), "nope"); !errors.Is(err, ErrNoteNotFound) {
			mt.Fatalf("expected not found, got %v", err)
		}
	})

	mt.Run("find by slug", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		namespace := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace, mtest.FirstBatch,
			mongoFixture(id, "ALPHA", "alpha_0000000000", time.Now().UTC())))
		store, _ := NewMongoStore(mt.Coll)

		got, err := store.FindBySlug(context.Background(), "alpha_0000000000")
		if err != nil {
			mt.Fatalf("unexpected lookup error: %v", err)
		}
		if got.ID != NoteID(id.Hex()) || got.Slug != "alpha_0000000000" {
			mt.Fatalf("unexpected note %+v", got)
		}
	})
}

func TestNewMongoStoreRequiresCollection(t *testing.T) {
	if _, err := NewMongoStore(nil); err == nil {
		t.Fatalf("expected error for missing collection")
	}
}
