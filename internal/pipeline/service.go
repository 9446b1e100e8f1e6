// Package pipeline discovers source exports on disk and runs the sales, CSAT
// and customer-snapshot aggregations over them. Every call re-reads the files;
// nothing is cached between runs.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bizdash/internal/columns"
	"bizdash/internal/metrics"
	"bizdash/internal/models"
	"bizdash/internal/tabular"
	"bizdash/internal/transformer"
)

const (
	NameSales     = "sales"
	NameCSAT      = "csat"
	NameCustomers = "customers"
)

// Origin tells whether a result was read from source files or fabricated.
type Origin int

const (
	Real Origin = iota
	Synthetic
)

func (o Origin) String() string {
	if o == Synthetic {
		return "synthetic"
	}
	return "real"
}

type SalesResult struct {
	Points  []models.SalesDataPoint
	Quality models.QualityReport
}

type CSATResult struct {
	Points  []models.CSATDataPoint
	Origin  Origin
	Reason  string
	Quality models.QualityReport
}

type SnapshotResult struct {
	Points  []models.SnapshotDataPoint
	Quality models.QualityReport
}

// RunRecorder receives metadata about each completed run.
type RunRecorder interface {
	Add(record models.RunRecord)
}

type Options struct {
	SalesDir    string
	SupportDir  string
	SnapshotDir string
	// Aliases overrides default column candidates per source
	// ("sales", "support", "snapshot") and logical field.
	Aliases map[string]map[string][]string
}

type Service struct {
	opts        Options
	reader      *tabular.Reader
	transformer *transformer.Transformer
	calculator  *metrics.Calculator
	recorder    RunRecorder
	logger      logrus.FieldLogger

	salesAliases    columns.AliasTable
	supportAliases  columns.AliasTable
	snapshotAliases columns.AliasTable
}

func New(opts Options, calculator *metrics.Calculator, recorder RunRecorder, logger logrus.FieldLogger) *Service {
	return &Service{
		opts:            opts,
		reader:          tabular.NewReader(logger),
		transformer:     transformer.New(logger),
		calculator:      calculator,
		recorder:        recorder,
		logger:          logger,
		salesAliases:    columns.SalesAliases().WithOverrides(opts.Aliases["sales"]),
		supportAliases:  columns.SupportAliases().WithOverrides(opts.Aliases["support"]),
		snapshotAliases: columns.SnapshotAliases().WithOverrides(opts.Aliases["snapshot"]),
	}
}

// QualityReports runs every pipeline and returns their quality reports.
func (s *Service) QualityReports(ctx context.Context) []models.QualityReport {
	return []models.QualityReport{
		s.Sales(ctx).Quality,
		s.CSAT(ctx).Quality,
		s.CustomerSnapshots(ctx).Quality,
	}
}

func (s *Service) record(pipeline string, started time.Time, points int, origin Origin, report models.QualityReport) {
	duration := time.Since(started)

	s.logger.WithFields(logrus.Fields{
		"pipeline":     pipeline,
		"points":       points,
		"origin":       origin.String(),
		"files_read":   report.FilesRead,
		"rows_read":    report.RowsRead,
		"rows_skipped": report.RowsSkipped,
		"duration":     duration,
	}).Info("Pipeline completed")

	if s.recorder == nil {
		return
	}
	s.recorder.Add(models.RunRecord{
		ID:          uuid.NewString(),
		Pipeline:    pipeline,
		StartedAt:   started,
		Duration:    duration,
		DurationMS:  duration.Milliseconds(),
		Points:      points,
		Synthetic:   origin == Synthetic,
		RowsRead:    report.RowsRead,
		RowsSkipped: report.RowsSkipped,
	})
}

func (s *Service) emptyReport(pipeline string, found int) models.QualityReport {
	report := s.transformer.GenerateQualityReport(pipeline, nil)
	report.FilesFound = found
	return report
}
