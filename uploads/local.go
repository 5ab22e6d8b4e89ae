package uploads

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hackcelestial/sports-bridge/constants"
)

// LocalStorage writes files below Dir; they are served under PublicPrefix.
type LocalStorage struct {
	Dir          string
	PublicPrefix string
}

func NewLocalStorage(dir, prefix string) *LocalStorage {
	if dir == "" {
		dir = "uploads"
	}
	if prefix == "" {
		prefix = constants.UploadsPath
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &LocalStorage{Dir: dir, PublicPrefix: prefix}
}

func (l *LocalStorage) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	target := filepath.Join(l.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.PublicPrefix + name, nil
}
