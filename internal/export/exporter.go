package export

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bizdash/internal/models"
	"bizdash/internal/pipeline"
)

var (
	ErrNoSink    = errors.New("no export sink configured")
	ErrNoRecords = errors.New("no records to export")
)

// Source runs the aggregation pipelines.
type Source interface {
	Sales(ctx context.Context) pipeline.SalesResult
	CSAT(ctx context.Context) pipeline.CSATResult
	CustomerSnapshots(ctx context.Context) pipeline.SnapshotResult
}

// Poster delivers one signed payload to the sink.
type Poster interface {
	PostExportData(ctx context.Context, url string, data interface{}, signature string) error
}

type Exporter struct {
	sinkURL    string
	secret     string
	source     Source
	httpClient Poster
	logger     logrus.FieldLogger
}

func NewExporter(sinkURL, secret string, source Source, httpClient Poster, logger logrus.FieldLogger) *Exporter {
	return &Exporter{
		sinkURL:    sinkURL,
		secret:     secret,
		source:     source,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Run recomputes every pipeline and pushes the monthly points as one batch.
func (e *Exporter) Run(ctx context.Context) (models.ExportResponse, error) {
	if e.sinkURL == "" {
		return models.ExportResponse{}, ErrNoSink
	}

	batchID := uuid.NewString()
	var records []models.ExportRecord
	records = append(records, ConvertSales(batchID, e.source.Sales(ctx).Points)...)
	records = append(records, ConvertCSAT(batchID, e.source.CSAT(ctx).Points)...)
	records = append(records, ConvertSnapshots(batchID, e.source.CustomerSnapshots(ctx).Points)...)

	if err := e.Export(ctx, records); err != nil {
		return models.ExportResponse{}, err
	}

	return models.ExportResponse{
		Status:       "success",
		BatchID:      batchID,
		RecordsCount: len(records),
		ExportedAt:   time.Now().Format(time.RFC3339),
		SinkURL:      e.sinkURL,
	}, nil
}

// Export signs and posts each record, stopping at the first failure.
func (e *Exporter) Export(ctx context.Context, records []models.ExportRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	for _, record := range records {
		signature, err := e.createSignature(record)
		if err != nil {
			e.logger.WithError(err).Error("Failed to create signature")
			return fmt.Errorf("failed to create signature: %w", err)
		}

		if err := e.httpClient.PostExportData(ctx, e.sinkURL, record, signature); err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"source": record.Source,
				"month":  record.Month,
			}).Error("Failed to export record")
			return fmt.Errorf("failed to export record: %w", err)
		}

		e.logger.WithFields(logrus.Fields{
			"batch_id": record.BatchID,
			"source":   record.Source,
			"month":    record.Month,
		}).Debug("Exported record")
	}

	e.logger.WithFields(logrus.Fields{
		"batch_id": records[0].BatchID,
		"records":  len(records),
	}).Info("Export batch delivered")
	return nil
}

func ConvertSales(batchID string, points []models.SalesDataPoint) []models.ExportRecord {
	records := make([]models.ExportRecord, 0, len(points))
	for _, p := range points {
		records = append(records, models.ExportRecord{
			BatchID: batchID,
			Source:  pipeline.NameSales,
			Month:   p.Date,
			Metrics: map[string]float64{
				"new_direct_sales_count":       float64(p.NewDirectSalesCount),
				"new_direct_sales_value":       p.NewDirectSalesValue,
				"new_partner_sales_count":      float64(p.NewPartnerSalesCount),
				"new_partner_sales_value":      p.NewPartnerSalesValue,
				"existing_client_upsell_count": float64(p.ExistingClientUpsellCount),
				"existing_client_upsell_value": p.ExistingClientUpsellValue,
				"existing_partner_sales_count": float64(p.ExistingPartnerSalesCount),
				"existing_partner_sales_value": p.ExistingPartnerSalesValue,
				"self_service_sales_count":     float64(p.SelfServiceSalesCount),
				"self_service_sales_value":     p.SelfServiceSalesValue,
				"unknown_sales_count":          float64(p.UnknownSalesCount),
				"unknown_sales_value":          p.UnknownSalesValue,
				"total_modules":                p.TotalModules,
				"total_sales_count":            float64(p.TotalSalesCount),
				"total_sales_value":            p.TotalSalesValue,
				"average_order_value":          p.AverageOrderValue,
				"average_modules_per_client":   p.AverageModulesPerClient,
				"arpa":                         p.ARPA,
				"arr_growth":                   p.ARRGrowth,
				"arr_growth_smoothed":          p.ARRGrowthSmoothed,
			},
			Synthetic: p.Synthetic,
		})
	}
	return records
}

func ConvertCSAT(batchID string, points []models.CSATDataPoint) []models.ExportRecord {
	records := make([]models.ExportRecord, 0, len(points))
	for _, p := range points {
		records = append(records, models.ExportRecord{
			BatchID: batchID,
			Source:  pipeline.NameCSAT,
			Month:   p.Date,
			Metrics: map[string]float64{
				"nps":             p.NPS,
				"churn":           p.Churn,
				"total_tickets":   float64(p.TotalTickets),
				"severity_low":    float64(p.Severity.Low),
				"severity_medium": float64(p.Severity.Medium),
				"severity_high":   float64(p.Severity.High),
				"severity_urgent": float64(p.Severity.Urgent),
			},
			Synthetic: p.Synthetic.NPS || p.Synthetic.Churn || p.Synthetic.Tickets,
		})
	}
	return records
}

func ConvertSnapshots(batchID string, points []models.SnapshotDataPoint) []models.ExportRecord {
	records := make([]models.ExportRecord, 0, len(points))
	for _, p := range points {
		records = append(records, models.ExportRecord{
			BatchID: batchID,
			Source:  pipeline.NameCustomers,
			Month:   p.Date[:7],
			Metrics: map[string]float64{
				"average_modules_per_client": p.AverageModulesPerClient,
				"total_clients":              float64(p.TotalClients),
			},
		})
	}
	return records
}

func (e *Exporter) createSignature(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(e.secret))
	h.Write(jsonData)
	signature := hex.EncodeToString(h.Sum(nil))

	return "sha256=" + signature, nil
}
