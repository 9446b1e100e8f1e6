package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bizdash/internal/columns"
	"bizdash/internal/models"
	"bizdash/internal/transformer"
)

const (
	reasonNoFiles = "no support ticket exports found"
	reasonNoRows  = "no parseable ticket rows in support exports"
)

func isSupportExport(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx") &&
		strings.Contains(strings.ToLower(name), "freshdesk")
}

// CSAT aggregates every ticket export in the support directory. A file that
// fails to read is skipped. With no usable ticket rows at all, the result is a
// fully synthetic demo series.
func (s *Service) CSAT(ctx context.Context) CSATResult {
	started := time.Now()
	result := s.csat(ctx)
	s.record(NameCSAT, started, len(result.Points), result.Origin, result.Quality)
	return result
}

func (s *Service) csat(ctx context.Context) CSATResult {
	files := s.listFiles(s.opts.SupportDir, isSupportExport)

	var (
		tickets []models.NormalizedTicket
		failed  = make([]string, 0)
		read    int
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			s.logger.WithError(err).Warn("CSAT pipeline cancelled")
			break
		}
		name := filepath.Base(path)
		logger := s.logger.WithFields(logrus.Fields{"pipeline": NameCSAT, "file": name})

		rows, err := s.reader.Read(path)
		if err != nil {
			logger.WithError(err).Error("Failed to read support export, skipping file")
			failed = append(failed, name)
			continue
		}
		read++
		if len(rows) == 0 {
			continue
		}

		schema := s.supportAliases.Probe(rows[0])
		if !schema.Has(columns.TicketCreated) {
			logger.WithField("headers", rows[0].Keys()).Warn("No created-date column in support export, skipping file")
			continue
		}
		tickets = append(tickets, s.transformer.NormalizeTickets(path, rows, schema)...)
	}

	quality := s.transformer.GenerateQualityReport(NameCSAT, transformer.TicketQuality(tickets))
	quality.FilesFound = len(files)
	quality.FilesRead = read
	quality.FilesFailed = failed

	result := CSATResult{
		Points:  s.calculator.CalculateCSATMetrics(tickets),
		Origin:  Real,
		Quality: quality,
	}
	if len(result.Points) == 0 {
		result.Origin = Synthetic
		result.Reason = reasonNoRows
		if len(files) == 0 {
			result.Reason = reasonNoFiles
		}
		s.logger.WithFields(logrus.Fields{
			"pipeline": NameCSAT,
			"reason":   result.Reason,
		}).Warn("Falling back to synthetic CSAT data")
		result.Points = s.calculator.SyntheticCSAT(result.Reason)
	}
	return result
}
