package transformer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bizdash/internal/columns"
	"bizdash/internal/dates"
	"bizdash/internal/models"
	"bizdash/internal/tabular"
)

// Transformer turns raw spreadsheet rows into typed records, tracking the
// quality of every field it reads.
type Transformer struct {
	logger      logrus.FieldLogger
	amountStrip *regexp.Regexp
}

func New(logger logrus.FieldLogger) *Transformer {
	return &Transformer{
		logger:      logger,
		amountStrip: regexp.MustCompile(`[^0-9.\-]`),
	}
}

// NormalizeSales reads deal rows. Rows with an unusable date or amount are
// returned with Quality.IsValid=false so the caller can skip and report them.
func (t *Transformer) NormalizeSales(file string, rows []tabular.Row, schema columns.Schema) []models.NormalizedSale {
	normalized := make([]models.NormalizedSale, 0, len(rows))
	name := filepath.Base(file)

	for i, row := range rows {
		line := i + 2
		quality := models.NewRecordQuality(fmt.Sprintf("%s:%d", name, line))

		date := t.validateAndParseDate(schema.Value(row, columns.SalesDate), "date", &quality)
		amount := t.validateAmount(schema.Value(row, columns.SalesAmount), "amount", &quality)
		channel := strings.TrimSpace(schema.Value(row, columns.SalesChannel).String())
		category, classified := ClassifyChannel(schema.Value(row, columns.SalesChannel).String())

		record := models.NormalizedSale{
			File:       name,
			Row:        line,
			Date:       date,
			Amount:     amount,
			Channel:    channel,
			Category:   category,
			Classified: classified,
			Account:    strings.TrimSpace(schema.Value(row, columns.SalesAccount).String()),
			Licenses: models.LicenseCounts{
				User:      tabular.ParseLooseFloat(schema.Value(row, columns.LicenseUser)),
				Leaver:    tabular.ParseLooseFloat(schema.Value(row, columns.LicenseLeaver)),
				Timesheet: tabular.ParseLooseFloat(schema.Value(row, columns.LicenseTimesheet)),
				Directory: tabular.ParseLooseFloat(schema.Value(row, columns.LicenseDirectory)),
				Workflow:  tabular.ParseLooseFloat(schema.Value(row, columns.LicenseWorkflow)),
				Other:     tabular.ParseLooseFloat(schema.Value(row, columns.LicenseOther)),
			},
			Quality: quality,
		}
		record.Modules = ModuleCount(record.Licenses, tabular.ParseLooseFloat(schema.Value(row, columns.SalesModules)))

		if !record.Quality.IsValid {
			t.logger.WithFields(logrus.Fields{
				"file":   name,
				"row":    line,
				"errors": record.Quality.ErrorCount,
			}).Warn("Skipping sales row with invalid fields")
		} else {
			record.Month = dates.MonthKey(record.Date)
			if !classified {
				t.logger.WithFields(logrus.Fields{
					"file":    name,
					"row":     line,
					"channel": channel,
				}).Warn("Unrecognized sales channel, counting as unknown")
				record.Quality.FieldErrors["channel"] = models.FieldQuality{
					IsValid:       false,
					Description:   fmt.Sprintf("Unknown channel: %s", channel),
					OriginalValue: channel,
				}
			}
		}

		normalized = append(normalized, record)
	}

	return normalized
}

// NormalizeTickets reads support ticket rows; only the created date is required.
func (t *Transformer) NormalizeTickets(file string, rows []tabular.Row, schema columns.Schema) []models.NormalizedTicket {
	normalized := make([]models.NormalizedTicket, 0, len(rows))
	name := filepath.Base(file)

	for i, row := range rows {
		line := i + 2
		quality := models.NewRecordQuality(fmt.Sprintf("%s:%d", name, line))

		record := models.NormalizedTicket{
			File:     name,
			Row:      line,
			Date:     t.validateAndParseDate(schema.Value(row, columns.TicketCreated), "created", &quality),
			Severity: ClassifySeverity(schema.Value(row, columns.TicketPriority).String()),
			Topic:    TopicKey(schema.Value(row, columns.TicketTopic).String()),
			Type:     orDefault(schema.Value(row, columns.TicketType), "Other"),
			Group:    orDefault(schema.Value(row, columns.TicketGroup), "No Group"),
			Quality:  quality,
		}

		if record.Quality.IsValid {
			record.Month = dates.MonthKey(record.Date)
		} else {
			t.logger.WithFields(logrus.Fields{
				"file": name,
				"row":  line,
			}).Warn("Skipping ticket row with unparseable created date")
		}

		normalized = append(normalized, record)
	}

	return normalized
}

// NormalizeSnapshot counts the distinct modules each client row has active.
func (t *Transformer) NormalizeSnapshot(rows []tabular.Row, schema columns.Schema) []models.SnapshotClient {
	clients := make([]models.SnapshotClient, 0, len(rows))
	for i, row := range rows {
		modules := 0
		for _, field := range columns.SnapshotModules {
			if !schema.Has(field) {
				continue
			}
			if tabular.ParseLooseFloat(schema.Value(row, field)) > 0 {
				modules++
			}
		}
		clients = append(clients, models.SnapshotClient{Row: i + 2, Modules: modules})
	}
	return clients
}

func (t *Transformer) validateAndParseDate(v tabular.Value, fieldName string, quality *models.RecordQuality) time.Time {
	if v.IsMissing() {
		quality.Fail(fieldName, "Missing - Date field is empty", nil)
		return time.Time{}
	}

	date, err := dates.Parse(v)
	if err != nil {
		quality.Fail(fieldName, "Invalid date format", v.Raw())
		return time.Time{}
	}

	quality.Pass(fieldName, "Valid date", v.Raw())
	return date
}

func (t *Transformer) validateAmount(v tabular.Value, fieldName string, quality *models.RecordQuality) decimal.Decimal {
	if f, ok := v.Float(); ok {
		quality.Pass(fieldName, "Valid amount", f)
		return decimal.NewFromFloat(f)
	}
	if v.IsMissing() {
		quality.Fail(fieldName, "Missing - Amount is empty", nil)
		return decimal.Zero
	}

	raw := strings.TrimSpace(v.String())
	negative := strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")")
	cleaned := t.amountStrip.ReplaceAllString(raw, "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		quality.Fail(fieldName, "Invalid amount - not a number", v.Raw())
		return decimal.Zero
	}
	if negative {
		amount = amount.Neg()
	}

	quality.Pass(fieldName, "Valid amount", v.Raw())
	return amount
}

func orDefault(v tabular.Value, fallback string) string {
	if v.IsMissing() || strings.TrimSpace(v.String()) == "" {
		return fallback
	}
	return v.String()
}
