package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BlobStorage stores image blobs under a key derived from the owning
// user and the file name, and hands back a retrieval URL. Deleting a
// blob that is already gone reports success.
type BlobStorage interface {
	Save(ctx context.Context, userID, filename string, data []byte) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

type LocalBlobStorage struct {
	Directory string
	BaseURL   string
	Log       *zap.Logger
}

// Save writes the blob to <Directory>/<userID>/<filename> and returns
// the URL it will be served under.
func (s *LocalBlobStorage) Save(ctx context.Context, userID, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.Directory, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filePath := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", err
	}

	url := s.BaseURL + path.Join("/images", userID, filepath.Base(filename))
	s.Log.Info("blob stored", zap.String("path", filePath), zap.String("url", url))
	return url, nil
}

// Delete removes the blob addressed by a URL previously returned from
// Save. A missing file is treated as already deleted.
func (s *LocalBlobStorage) Delete(ctx context.Context, imageURL string) error {
	rel, ok := strings.CutPrefix(imageURL, s.BaseURL+"/images/")
	if !ok {
		return fmt.Errorf("not a blob URL of this store: %s", imageURL)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("not a blob URL of this store: %s", imageURL)
	}

	err := os.Remove(filepath.Join(s.Directory, rel))
	if errors.Is(err, fs.ErrNotExist) {
		s.Log.Info("blob already absent", zap.String("url", imageURL))
		return nil
	}
	return err
}
