package data_loader

import (
	"context"

	"github.com/hackcelestial/sports-bridge/store"
)

// DumbLoader does nothing, use for deployments whose database is provisioned elsewhere
// so seeding and backups are not this service's job
type DumbLoader struct{}

func (DumbLoader) Init(conf interface{}) error {
	return nil
}

func (DumbLoader) LoadIntoStore(context.Context, *Seeder) error {
	return nil
}

func (DumbLoader) Flush(context.Context, store.Store) error {
	return nil
}
