package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateFolder makes every given directory, parents included.
func CreateFolder(folders ...string) error {
	for _, folder := range folders {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
	}
	return nil
}

// RemoveFile deletes the given paths, logging but not failing on error.
// Missing files are ignored so cleanup can run unconditionally.
func RemoveFile(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("failed to remove file %s: %v", path, err)
		}
	}
}

// TempFilePath returns a unique path under dir for one downloaded update.
func TempFilePath(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext))
}
