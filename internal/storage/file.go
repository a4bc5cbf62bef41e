package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

// FileStore persists each key as a file under dir. It is the default
// on-device backend.
type FileStore struct {
	dir string
}

func NewFileStore(c context.Context, dir string) (*FileStore, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewFileStore").
		Str("dir", dir).
		Logger()

	logger.Info().Msg("creating storage directory")
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		err = fmt.Errorf("failed creating storage directory with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("created storage directory")

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	value, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed reading key=%s with error=%w", key, err)
	}
	return value, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	err := os.WriteFile(s.path(key), value, 0o644)
	if err != nil {
		return fmt.Errorf("failed writing key=%s with error=%w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed deleting key=%s with error=%w", key, err)
	}
	return nil
}
