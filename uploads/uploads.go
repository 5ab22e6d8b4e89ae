// Package uploads stores user images on disk or in S3.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/segmentio/ksuid"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/configuration"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()
var uploadLogger = log.WithField("prefix", "UPLOADS")

const DefaultMaxBytes = 10 << 20

// Storage persists a named object and returns the URL clients use to fetch it.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

type Service struct {
	storage  Storage
	maxBytes int64
}

func NewService(storage Storage, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{storage: storage, maxBytes: maxBytes}
}

// FromConfig builds the storage named in the Uploads section.
func FromConfig(ctx context.Context, conf configuration.Uploads) (*Service, error) {
	switch conf.Backend {
	case "", "local":
		return NewService(NewLocalStorage(conf.Dir, conf.PublicPrefix), conf.MaxBytes), nil
	case "s3":
		st, err := NewS3Storage(ctx, conf.S3)
		if err != nil {
			return nil, err
		}
		return NewService(st, conf.MaxBytes), nil
	}
	return nil, fmt.Errorf("unknown upload backend %q", conf.Backend)
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// SaveImage sniffs the content, rejects anything that is not an image and stores it under folder.
func (s *Service) SaveImage(ctx context.Context, folder string, r io.Reader) (string, *bridge.HttpError) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", bridge.BadRequest("Could not read upload", err)
	}
	if len(data) == 0 {
		return "", bridge.BadRequest("Empty upload", nil)
	}
	if int64(len(data)) > s.maxBytes {
		return "", bridge.NewHttpError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload exceeds %d bytes", s.maxBytes), nil)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", bridge.BadRequest("Only image uploads are accepted", fmt.Errorf("detected %s", mt.String()))
	}

	name := path.Join(folder, ksuid.New().String()+mt.Extension())
	url, err := s.storage.Save(ctx, name, mt.String(), bytes.NewReader(data))
	if err != nil {
		return "", bridge.Internal("Could not store upload", err)
	}
	uploadLogger.WithField("name", name).Debug("Stored upload")
	return url, nil
}
