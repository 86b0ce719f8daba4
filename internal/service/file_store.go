package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore keeps the original uploads on disk so records can be
// reviewed against their source document and reprocessed later.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Failed to create upload directory", zap.String("dir", dir), zap.Error(err))
	}
	return &FileStore{dir: dir, logger: logger}
}

func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) Save(name string, content []byte) error {
	if err := os.WriteFile(filepath.Join(f.dir, name), content, 0o644); err != nil {
		return fmt.Errorf("failed to save file %s: %w", name, err)
	}
	return nil
}

func (f *FileStore) Read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(f.dir, name))
}

func (f *FileStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

// Delete is best effort: a record without its file is still useful, a
// dangling file is not worth failing a delete for.
func (f *FileStore) Delete(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to delete stored file", zap.String("file", name), zap.Error(err))
	}
}

// SlipFileName builds the stored name of an uploaded bank slip.
func SlipFileName(periodID uuid.UUID, original string) string {
	return periodID.String() + "_" + safeName(original)
}

// CardFileName builds the stored name of an uploaded identity card.
func CardFileName(periodID uuid.UUID, original string) string {
	return "CIN_" + periodID.String() + "_" + safeName(original)
}

func safeName(original string) string {
	return strings.ReplaceAll(filepath.Base(original), " ", "_")
}

// contentTypeFor maps a stored file name back to the content type the
// extraction adapter branches on.
func contentTypeFor(fileName string) string {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return "application/pdf"
	}
	return "image/jpeg"
}
