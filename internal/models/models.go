package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Data Quality Tracking Structures
type FieldQuality struct {
	IsValid       bool        `json:"is_valid"`
	Description   string      `json:"description"`
	OriginalValue interface{} `json:"original_value,omitempty"`
}

type RecordQuality struct {
	RecordID    string                  `json:"record_id"`
	IsValid     bool                    `json:"is_valid"`
	FieldErrors map[string]FieldQuality `json:"field_errors"`
	ErrorCount  int                     `json:"error_count"`
}

// NewRecordQuality starts a valid record; validators flip it as they find problems.
func NewRecordQuality(id string) RecordQuality {
	return RecordQuality{
		RecordID:    id,
		IsValid:     true,
		FieldErrors: make(map[string]FieldQuality),
	}
}

// Fail records an invalid field.
func (q *RecordQuality) Fail(field, description string, original interface{}) {
	q.FieldErrors[field] = FieldQuality{
		IsValid:       false,
		Description:   description,
		OriginalValue: original,
	}
	q.ErrorCount++
	q.IsValid = false
}

// Pass records a field that was read as expected.
func (q *RecordQuality) Pass(field, description string, original interface{}) {
	q.FieldErrors[field] = FieldQuality{
		IsValid:       true,
		Description:   description,
		OriginalValue: original,
	}
}

// Sales monthly metrics. Field names are what the dashboard charts key off.
type SalesDataPoint struct {
	Date string `json:"date"`

	NewDirectSalesCount       int     `json:"newDirectSalesCount"`
	NewDirectSalesValue       float64 `json:"newDirectSalesValue"`
	NewPartnerSalesCount      int     `json:"newPartnerSalesCount"`
	NewPartnerSalesValue      float64 `json:"newPartnerSalesValue"`
	ExistingClientUpsellCount int     `json:"existingClientUpsellCount"`
	ExistingClientUpsellValue float64 `json:"existingClientUpsellValue"`
	ExistingPartnerSalesCount int     `json:"existingPartnerSalesCount"`
	ExistingPartnerSalesValue float64 `json:"existingPartnerSalesValue"`
	SelfServiceSalesCount     int     `json:"selfServiceSalesCount"`
	SelfServiceSalesValue     float64 `json:"selfServiceSalesValue"`
	UnknownSalesCount         int     `json:"unknownSalesCount"`
	UnknownSalesValue         float64 `json:"unknownSalesValue"`

	UserLicenses      float64 `json:"userLicenses"`
	LeaverLicenses    float64 `json:"leaverLicenses"`
	TimesheetLicenses float64 `json:"timesheetLicenses"`
	DirectoryLicenses float64 `json:"directoryLicenses"`
	WorkflowLicenses  float64 `json:"workflowLicenses"`
	OtherLicenses     float64 `json:"otherLicenses"`
	TotalModules      float64 `json:"totalModules"`

	TotalSalesCount         int       `json:"totalSalesCount"`
	TotalSalesValue         float64   `json:"totalSalesValue"`
	AverageOrderValue       float64   `json:"averageOrderValue"`
	AverageModulesPerClient float64   `json:"averageModulesPerClient"`
	ARPA                    float64   `json:"arpa"`
	ARRGrowth               float64   `json:"arrGrowth"`
	ARRGrowthSmoothed       float64   `json:"arrGrowthSmoothed"`
	ARRGrowthHistory        []float64 `json:"arrGrowthHistory"`
	Synthetic               bool      `json:"synthetic"`
}

type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Urgent int `json:"urgent"`
}

func (s SeverityCounts) Total() int {
	return s.Low + s.Medium + s.High + s.Urgent
}

// Synthetic discloses which CSAT fields were fabricated rather than read.
type Synthetic struct {
	NPS     bool   `json:"nps"`
	Churn   bool   `json:"churn"`
	Tickets bool   `json:"tickets"`
	Reason  string `json:"reason,omitempty"`
}

type CSATDataPoint struct {
	Date         string         `json:"date"`
	NPS          float64        `json:"nps"`
	Churn        float64        `json:"churn"`
	TotalTickets int            `json:"totalTickets"`
	Severity     SeverityCounts `json:"severity"`
	Topics       map[string]int `json:"topics"`
	TicketTypes  map[string]int `json:"ticketTypes"`
	Groups       map[string]int `json:"groups"`
	Synthetic    Synthetic      `json:"synthetic"`
}

type SnapshotDataPoint struct {
	Date                    string  `json:"date"`
	AverageModulesPerClient float64 `json:"averageModulesPerClient"`
	TotalClients            int     `json:"totalClients"`
}

// Data Quality Report Structures
type QualityIssue struct {
	File          string      `json:"file"`
	Row           int         `json:"row"`
	Field         string      `json:"field"`
	Description   string      `json:"description"`
	OriginalValue interface{} `json:"original_value,omitempty"`
}

type QualityReport struct {
	Pipeline     string         `json:"pipeline"`
	FilesFound   int            `json:"files_found"`
	FilesRead    int            `json:"files_read"`
	FilesFailed  []string       `json:"files_failed"`
	RowsRead     int            `json:"rows_read"`
	RowsSkipped  int            `json:"rows_skipped"`
	QualityScore float64        `json:"quality_score"`
	Issues       []QualityIssue `json:"issues"`
	CommonIssues []string       `json:"common_issues"`
	Timestamp    string         `json:"timestamp"`
}

// API response structures
type MetricsResponse struct {
	Data      interface{}   `json:"data"`
	Total     int           `json:"total"`
	Synthetic bool          `json:"synthetic"`
	Quality   QualityReport `json:"quality"`
}

type QualityResponse struct {
	Reports   []QualityReport `json:"reports"`
	Timestamp string          `json:"timestamp"`
}

// RunRecord is the metadata kept about one pipeline execution.
type RunRecord struct {
	ID          string        `json:"id"`
	Pipeline    string        `json:"pipeline"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
	Points      int           `json:"points"`
	Synthetic   bool          `json:"synthetic"`
	RowsRead    int           `json:"rows_read"`
	RowsSkipped int           `json:"rows_skipped"`
}

type ExportRecord struct {
	BatchID   string             `json:"batch_id"`
	Source    string             `json:"source"`
	Month     string             `json:"month"`
	Metrics   map[string]float64 `json:"metrics"`
	Synthetic bool               `json:"synthetic"`
}

type ExportResponse struct {
	Status       string `json:"status"`
	BatchID      string `json:"batch_id"`
	RecordsCount int    `json:"records_count"`
	ExportedAt   string `json:"exported_at"`
	SinkURL      string `json:"sink_url"`
}

// ChannelCategory is the sales-classification bucket of a deal.
type ChannelCategory string

const (
	CategoryNewDirect       ChannelCategory = "new-direct"
	CategoryNewPartner      ChannelCategory = "new-partner"
	CategoryExistingClient  ChannelCategory = "existing-client-upsell"
	CategoryExistingPartner ChannelCategory = "existing-partner"
	CategorySelfService     ChannelCategory = "self-service"
	CategoryUnknown         ChannelCategory = "unknown"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeverityUrgent Severity = "urgent"
)

type LicenseCounts struct {
	User      float64 `json:"user"`
	Leaver    float64 `json:"leaver"`
	Timesheet float64 `json:"timesheet"`
	Directory float64 `json:"directory"`
	Workflow  float64 `json:"workflow"`
	Other     float64 `json:"other"`
}

func (l LicenseCounts) Sum() float64 {
	return l.User + l.Leaver + l.Timesheet + l.Directory + l.Workflow + l.Other
}

// Normalized internal structures with Quality Tracking
type NormalizedSale struct {
	File       string
	Row        int
	Date       time.Time
	Month      string
	Amount     decimal.Decimal
	Channel    string
	Category   ChannelCategory
	Classified bool
	Account    string
	Licenses   LicenseCounts
	Modules    float64

	Quality RecordQuality `json:"quality"`
}

type NormalizedTicket struct {
	File     string
	Row      int
	Date     time.Time
	Month    string
	Severity Severity
	Topic    string
	Type     string
	Group    string

	Quality RecordQuality `json:"quality"`
}

type SnapshotClient struct {
	Row     int
	Modules int
}
