package data_loader

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hackcelestial/sports-bridge/store"
)

var (
	mongoPrefix          = "mongo"
	sportsCollection     = "sports"
	usersCollection      = "users"
	backupsCollection    = "backups"
	defaultMongoDatabase = "sportsbridge"
)

// MongoLoaderConf is the configuration struct for a MongoLoader
type MongoLoaderConf struct {
	URL      string
	Database string
}

// MongoLoader implements DataLoader and reads seed collections from MongoDB.
// Flush stores backups in the backups collection.
type MongoLoader struct {
	config MongoLoaderConf
	db     *mongo.Database
}

// CreateMongoLoaderFromConnection wraps an already connected database.
func CreateMongoLoaderFromConnection(db *mongo.Database) DataLoader {
	reloadDataLoaderLogger()
	dataLogger.Info("Set mongo loader")
	return &MongoLoader{db: db}
}

// Init initialises the mongo loader
func (m *MongoLoader) Init(conf interface{}) error {
	m.config = conf.(MongoLoaderConf)
	if m.config.Database == "" {
		m.config.Database = defaultMongoDatabase
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.config.URL))
	if err != nil {
		dataLogger.WithError(err).WithField("prefix", mongoPrefix).Error("failed to init MongoDB connection")
		return err
	}
	m.db = client.Database(m.config.Database)
	return nil
}

// handleEmptySeedError treats missing documents as an empty seed.
func handleEmptySeedError(err error) error {
	if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

func (m *MongoLoader) read(ctx context.Context) (*Seed, error) {
	seed := &Seed{}
	cur, err := m.db.Collection(sportsCollection).Find(ctx, bson.D{})
	if err = handleEmptySeedError(err); err != nil {
		return nil, err
	}
	if cur != nil {
		if err := handleEmptySeedError(cur.All(ctx, &seed.Sports)); err != nil {
			return nil, err
		}
	}
	cur, err = m.db.Collection(usersCollection).Find(ctx, bson.D{})
	if err = handleEmptySeedError(err); err != nil {
		return nil, err
	}
	if cur != nil {
		if err := handleEmptySeedError(cur.All(ctx, &seed.Users)); err != nil {
			return nil, err
		}
	}
	return seed, nil
}

// LoadIntoStore copies the seed collections into the store
func (m *MongoLoader) LoadIntoStore(ctx context.Context, s *Seeder) error {
	seed, err := m.read(ctx)
	if err != nil {
		dataLogger.Error("error reading seed from mongo: " + err.Error())
		return err
	}
	if _, err := s.Apply(ctx, seed); err != nil {
		return err
	}
	dataLogger.Info("Loaded seed from Mongo")
	return nil
}

// Flush inserts a backup document of sports and users
func (m *MongoLoader) Flush(ctx context.Context, s store.Store) error {
	b, err := snapshot(ctx, s, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := m.db.Collection(backupsCollection).InsertOne(ctx, b); err != nil {
		dataLogger.WithError(err).Error("error writing backup to mongo")
		return err
	}
	dataLogger.WithField("timestamp", b.Timestamp).Info("Backup stored in Mongo")
	return nil
}
