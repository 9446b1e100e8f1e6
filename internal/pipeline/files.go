package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// listFiles returns the regular files in dir accepted by match, sorted by
// name. A missing directory is treated as empty.
func (s *Service) listFiles(dir string, match func(name string) bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fields := logrus.Fields{"dir": dir}
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.WithFields(fields).Info("Source directory does not exist")
		} else {
			s.logger.WithFields(fields).WithError(err).Error("Failed to list source directory")
		}
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files
}
