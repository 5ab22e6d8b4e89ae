package data_loader

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hackcelestial/sports-bridge/store"
)

//go:embed demo.yaml
var demoSeed []byte

// FileLoaderConf is the configuration struct for a FileLoader, takes a filename as main init
type FileLoaderConf struct {
	FileName  string
	BackupDir string
}

// FileLoader implements DataLoader and will load seed data from a JSON or YAML file.
// Without a file name the built in demo data is used.
type FileLoader struct {
	config FileLoaderConf
}

// Init initialises the file loader
func (f *FileLoader) Init(conf interface{}) error {
	f.config = conf.(FileLoaderConf)
	if f.config.BackupDir == "" {
		f.config.BackupDir = "."
	}
	return nil
}

// parseSeed decodes YAML unless the name ends in .json.
func parseSeed(name string, raw []byte) (*Seed, error) {
	seed := &Seed{}
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return seed, json.Unmarshal(raw, seed)
	}
	return seed, yaml.Unmarshal(raw, seed)
}

func (f *FileLoader) read() (*Seed, error) {
	if f.config.FileName == "" {
		return parseSeed("demo.yaml", demoSeed)
	}
	raw, err := os.ReadFile(f.config.FileName)
	if err != nil {
		dataLogger.WithFields(logrus.Fields{
			"filename": f.config.FileName,
			"error":    err,
		}).Error("Load failure")
		return nil, err
	}
	seed, err := parseSeed(f.config.FileName, raw)
	if err != nil {
		dataLogger.WithField("error", err).Error("Couldn't unmarshal seed file")
		return nil, err
	}
	return seed, nil
}

// LoadIntoStore will load, unmarshal and copy the seed into the store
func (f *FileLoader) LoadIntoStore(ctx context.Context, s *Seeder) error {
	seed, err := f.read()
	if err != nil {
		return err
	}
	res, err := s.Apply(ctx, seed)
	if err != nil {
		return err
	}
	dataLogger.WithField("filename", f.config.FileName).Infof("Loaded %d users, %d sports", res.UsersAdded, res.SportsAdded)
	return nil
}

// Flush writes a timestamped JSON backup of sports and users into the backup directory.
func (f *FileLoader) Flush(ctx context.Context, s store.Store) error {
	now := time.Now().UTC()
	b, err := snapshot(ctx, s, now)
	if err != nil {
		return err
	}
	asJson, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		dataLogger.WithField("error", err).Error("Encoding failed!")
		return err
	}
	if err := os.MkdirAll(f.config.BackupDir, 0o755); err != nil {
		return err
	}
	bkFilename := "sportsbridge_backup_" + strconv.FormatInt(now.UnixNano(), 10) + ".json"
	bkLocation := path.Join(f.config.BackupDir, bkFilename)
	if err := os.WriteFile(bkLocation, asJson, 0o644); err != nil {
		dataLogger.WithFields(logrus.Fields{
			"bk_filename": bkFilename,
			"error":       err,
		}).Error("backup failed!")
		return err
	}
	dataLogger.WithField("file", bkLocation).Info("Backup written")
	return nil
}
