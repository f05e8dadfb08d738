package main

import (
	"context"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/config"
	"github.com/MarcoPoloResearchLab/quicknote/internal/database"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"go.uber.org/zap"
)

const storeCloseTimeout = 5 * time.Second

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (notes.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMongo {
		return openMongoStore(ctx, cfg, logger)
	}
	return openSQLiteStore(cfg, logger)
}

func openSQLiteStore(cfg config.AppConfig, logger *zap.Logger) (notes.Store, func(), error) {
	db, err := database.OpenSQLite(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("sqlite close failed", zap.Error(err))
		}
	}
	store, err := notes.NewGormStore(db, notes.NewUUIDProvider())
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}

func openMongoStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (notes.Store, func(), error) {
	client, err := database.ConnectMongo(ctx, cfg.MongoURI, logger)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
		defer cancel()
		if err := client.Disconnect(closeCtx); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}

	collection := client.Database(cfg.MongoDatabase).Collection(cfg.NotesCollection)
	if err := database.EnsureNoteIndexes(ctx, collection); err != nil {
		disconnect()
		return nil, nil, err
	}
	store, err := notes.NewMongoStore(collection)
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	return store, disconnect, nil
}
