package database

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNoteIndexesDeclareUniqueSlug(t *testing.T) {
	indexes := NoteIndexes()
	if len(indexes) == 0 {
		t.Fatalf("expected note indexes")
	}
	keys, ok := indexes[0].Keys.(bson.D)
	if !ok || len(keys) != 1 || keys[0].Key != "slug" {
		t.Fatalf("expected first index on slug, got %#v", indexes[0].Keys)
	}
	if indexes[0].Options == nil || indexes[0].Options.Unique == nil || !*indexes[0].Options.Unique {
		t.Fatalf("expected slug index to be unique")
	}
}

func TestEnsureNoteIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := EnsureNoteIndexes(context.Background(), mt.Coll); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "index already exists with different options",
		}))
		if err := EnsureNoteIndexes(context.Background(), mt.Coll); err == nil {
			mt.Fatalf("expected index creation error")
		}
	})
}

func TestConnectMongoRequiresURI(t *testing.T) {
	if _, err := ConnectMongo(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty uri")
	}
}
