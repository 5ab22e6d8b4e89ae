package main

import (
	"context"

	"github.com/hackcelestial/sports-bridge/data_loader"
	"github.com/hackcelestial/sports-bridge/initializer"
)

// seedStore loads the configured seed source (file, mongo or none) into the store.
func seedStore(ctx context.Context, b *initializer.Bridge) error {
	loader, err := data_loader.CreateDataLoader(b.Conf.Seed)
	if err != nil {
		mainLogger.Error("Couldn't initialise seed loader: ", err)
		return err
	}
	return loader.LoadIntoStore(ctx, data_loader.NewSeeder(b.Store, b.Cipher))
}

// backupStore flushes a snapshot of sports and users to the configured seed source.
func backupStore(ctx context.Context, b *initializer.Bridge) error {
	loader, err := data_loader.CreateDataLoader(b.Conf.Seed)
	if err != nil {
		mainLogger.Error("Couldn't initialise backup loader: ", err)
		return err
	}
	if err := loader.Flush(ctx, b.Store); err != nil {
		mainLogger.Error("Backup failed: ", err)
		return err
	}
	mainLogger.Info("Backup written")
	return nil
}
