package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bizdash/internal/columns"
	"bizdash/internal/models"
	"bizdash/internal/tabular"
	"bizdash/internal/transformer"
)

func isSalesExport(name string) bool {
	if _, err := tabular.FormatOf(name); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(name), "salesforce")
}

// Sales aggregates the CRM deal export. When several exports match, the last
// one by name is used. A file without a date or amount column yields no
// points at all.
func (s *Service) Sales(ctx context.Context) SalesResult {
	started := time.Now()
	result := s.sales(ctx)
	s.record(NameSales, started, len(result.Points), Real, result.Quality)
	return result
}

func (s *Service) sales(ctx context.Context) SalesResult {
	files := s.listFiles(s.opts.SalesDir, isSalesExport)
	result := SalesResult{
		Points:  make([]models.SalesDataPoint, 0),
		Quality: s.emptyReport(NameSales, len(files)),
	}
	if len(files) == 0 {
		s.logger.WithField("dir", s.opts.SalesDir).Warn("No sales export found")
		return result
	}
	if err := ctx.Err(); err != nil {
		s.logger.WithError(err).Warn("Sales pipeline cancelled")
		return result
	}

	path := files[len(files)-1]
	logger := s.logger.WithFields(logrus.Fields{"pipeline": NameSales, "file": filepath.Base(path)})

	rows, err := s.reader.Read(path)
	if err != nil {
		logger.WithError(err).Error("Failed to read sales export")
		result.Quality.FilesFailed = append(result.Quality.FilesFailed, filepath.Base(path))
		return result
	}
	result.Quality.FilesRead = 1
	if len(rows) == 0 {
		logger.Warn("Sales export has no rows")
		return result
	}

	schema := s.salesAliases.Probe(rows[0])
	for _, required := range []columns.Field{columns.SalesDate, columns.SalesAmount} {
		if !schema.Has(required) {
			logger.WithFields(logrus.Fields{
				"column":  required,
				"headers": rows[0].Keys(),
			}).Error("Required sales column not found, no sales metrics produced")
			return result
		}
	}
	logger.WithField("columns", schema.Resolved()).Debug("Resolved sales columns")

	sales := s.transformer.NormalizeSales(path, rows, schema)
	quality := s.transformer.GenerateQualityReport(NameSales, transformer.SalesQuality(sales))
	quality.FilesFound = result.Quality.FilesFound
	quality.FilesRead = result.Quality.FilesRead

	result.Points = s.calculator.CalculateSalesMetrics(sales)
	result.Quality = quality
	return result
}
