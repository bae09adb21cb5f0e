package scratch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

// Store keeps request-scoped temp files on local disk. Files are written when
// a submission is received and deleted by name before the request returns.
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore ensures the scratch directory exists.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: log.Named("ScratchStore")}, nil
}

// Save streams one multipart file part to disk under a fresh uuid name,
// keeping the original extension.
func (s *Store) Save(fieldKey, originalName string, r io.Reader) (domain.Attachment, error) {
	name := uuid.New().String() + filepath.Ext(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to create scratch file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return domain.Attachment{}, fmt.Errorf("failed to write scratch file: %w", err)
	}

	return domain.Attachment{
		FieldKey:   fieldKey,
		StoredName: name,
		Path:       path,
		Size:       size,
	}, nil
}

// Remove deletes one scratch file by stored name. A file that is already gone
// is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Failed to remove scratch file", zap.String("name", name), zap.Error(err))
		return err
	}
	return nil
}
