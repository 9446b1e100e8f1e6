package pipeline

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"bizdash/internal/models"
)

var snapshotName = regexp.MustCompile(`^(\d{4})-(\d{2}) Customer Snapshot\.csv$`)

type snapshotFile struct {
	path  string
	month time.Time
}

// snapshotMonth extracts the roster month from a snapshot file name.
func snapshotMonth(name string) (time.Time, bool) {
	m := snapshotName.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

func (s *Service) snapshotFiles() []snapshotFile {
	paths := s.listFiles(s.opts.SnapshotDir, func(name string) bool {
		_, ok := snapshotMonth(name)
		return ok
	})
	files := make([]snapshotFile, 0, len(paths))
	for _, p := range paths {
		month, _ := snapshotMonth(filepath.Base(p))
		files = append(files, snapshotFile{path: p, month: month})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].month.Before(files[j].month) })
	return files
}

// CustomerSnapshots produces one point per monthly roster file, oldest first.
func (s *Service) CustomerSnapshots(ctx context.Context) SnapshotResult {
	started := time.Now()
	files := s.snapshotFiles()

	result := SnapshotResult{
		Points:  make([]models.SnapshotDataPoint, 0, len(files)),
		Quality: s.emptyReport(NameCustomers, len(files)),
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			s.logger.WithError(err).Warn("Customer snapshot pipeline cancelled")
			break
		}
		point, rows, err := s.readSnapshot(f)
		if err != nil {
			result.Quality.FilesFailed = append(result.Quality.FilesFailed, filepath.Base(f.path))
			continue
		}
		result.Quality.FilesRead++
		result.Quality.RowsRead += rows
		result.Points = append(result.Points, point)
	}
	if result.Quality.RowsRead > 0 {
		result.Quality.QualityScore = 100
	}

	s.record(NameCustomers, started, len(result.Points), Real, result.Quality)
	return result
}

// SnapshotSummary returns the latest snapshot whose file month lies within
// [start, end]. When that file cannot be read the next latest is tried.
func (s *Service) SnapshotSummary(ctx context.Context, start, end time.Time) (models.SnapshotDataPoint, bool) {
	files := s.snapshotFiles()
	for i := len(files) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			break
		}
		f := files[i]
		if f.month.Before(start) || f.month.After(end) {
			continue
		}
		point, _, err := s.readSnapshot(f)
		if err != nil {
			continue
		}
		return point, true
	}
	return models.SnapshotDataPoint{}, false
}

func (s *Service) readSnapshot(f snapshotFile) (models.SnapshotDataPoint, int, error) {
	logger := s.logger.WithFields(logrus.Fields{"pipeline": NameCustomers, "file": filepath.Base(f.path)})

	rows, err := s.reader.Read(f.path)
	if err != nil {
		logger.WithError(err).Error("Failed to read customer snapshot, skipping file")
		return models.SnapshotDataPoint{}, 0, err
	}

	var clients []models.SnapshotClient
	if len(rows) > 0 {
		schema := s.snapshotAliases.Probe(rows[0])
		logger.WithField("columns", schema.Resolved()).Debug("Resolved snapshot module columns")
		clients = s.transformer.NormalizeSnapshot(rows, schema)
	}
	return s.calculator.CalculateSnapshotMetrics(f.month, clients), len(rows), nil
}
