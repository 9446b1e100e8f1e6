package transformer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/columns"
	"bizdash/internal/models"
	"bizdash/internal/tabular"
)

func rowsOf(header []string, records ...[]tabular.Value) []tabular.Row {
	rows := make([]tabular.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, tabular.NewRow(header, r))
	}
	return rows
}

func TestNormalizeSales(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tr := New(logger)

	header := []string{"Close_Date", "Amount", "Sales_Channel__c", "AccountId", "User_Licenses__c", "Timesheet_Licenses__c", "Number_of_Modules__c"}
	rows := rowsOf(header,
		[]tabular.Value{tabular.Text("2024-03-05"), tabular.Number(1000), tabular.Text("Direct Sale"), tabular.Text("A1"), tabular.Number(2), tabular.Text("3 seats"), tabular.Missing()},
		[]tabular.Value{tabular.Text("15/03/2024"), tabular.Text("$1,250.50"), tabular.Text("Reseller"), tabular.Text("A2"), tabular.Number(1), tabular.Missing(), tabular.Number(4)},
		[]tabular.Value{tabular.Text("not a date"), tabular.Number(10), tabular.Text("Direct Sale"), tabular.Missing(), tabular.Missing(), tabular.Missing(), tabular.Missing()},
		[]tabular.Value{tabular.Text("2024-04-01"), tabular.Missing(), tabular.Text("Customer Sale"), tabular.Missing(), tabular.Missing(), tabular.Missing(), tabular.Missing()},
		[]tabular.Value{tabular.Text("2024-04-02"), tabular.Text("(300)"), tabular.Text("Customer Sale"), tabular.Missing(), tabular.Missing(), tabular.Missing(), tabular.Missing()},
	)
	schema := columns.SalesAliases().Probe(rows[0])

	sales := tr.NormalizeSales("/data/sales/salesforce.csv", rows, schema)
	require.Len(t, sales, 5)

	first := sales[0]
	assert.True(t, first.Quality.IsValid)
	assert.Equal(t, "salesforce.csv", first.File)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "2024-03", first.Month)
	assert.True(t, decimal.NewFromInt(1000).Equal(first.Amount))
	assert.Equal(t, models.CategoryNewDirect, first.Category)
	assert.True(t, first.Classified)
	assert.Equal(t, 5.0, first.Modules, "license columns are summed when no module count is given")

	second := sales[1]
	assert.True(t, second.Quality.IsValid)
	assert.Equal(t, "2024-03", second.Month)
	assert.Equal(t, "1250.5", second.Amount.String())
	assert.Equal(t, models.CategoryUnknown, second.Category)
	assert.False(t, second.Classified)
	assert.Equal(t, 4.0, second.Modules, "module count column overrides the license sum")
	assert.False(t, second.Quality.FieldErrors["channel"].IsValid)

	assert.False(t, sales[2].Quality.IsValid)
	assert.Empty(t, sales[2].Month)
	assert.False(t, sales[3].Quality.IsValid)
	assert.Equal(t, "Missing - Amount is empty", sales[3].Quality.FieldErrors["amount"].Description)

	assert.True(t, sales[4].Quality.IsValid)
	assert.Equal(t, "-300", sales[4].Amount.String())

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings, "one unknown channel and two skipped rows")
}

func TestNormalizeTickets(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr := New(logger)

	header := []string{"Created time", "Priority", "Subject", "Type", "Group"}
	rows := rowsOf(header,
		[]tabular.Value{tabular.Text("2024-01-03 09:12:00"), tabular.Text("Urgent"), tabular.Text("Login fails on mobile"), tabular.Text("Incident"), tabular.Text("Tier 1")},
		[]tabular.Value{tabular.DateValue(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)), tabular.Missing(), tabular.Missing(), tabular.Missing(), tabular.Missing()},
		[]tabular.Value{tabular.Missing(), tabular.Text("Low"), tabular.Text("Billing"), tabular.Missing(), tabular.Missing()},
	)
	schema := columns.SupportAliases().Probe(rows[0])

	tickets := tr.NormalizeTickets("freshdesk-jan.xlsx", rows, schema)
	require.Len(t, tickets, 3)

	assert.Equal(t, "2024-01", tickets[0].Month)
	assert.Equal(t, models.SeverityUrgent, tickets[0].Severity)
	assert.Equal(t, "Login fails", tickets[0].Topic)
	assert.Equal(t, "Incident", tickets[0].Type)
	assert.Equal(t, "Tier 1", tickets[0].Group)

	assert.Equal(t, "2024-02", tickets[1].Month)
	assert.Equal(t, models.SeverityMedium, tickets[1].Severity)
	assert.Equal(t, "Other", tickets[1].Topic)
	assert.Equal(t, "Other", tickets[1].Type)
	assert.Equal(t, "No Group", tickets[1].Group)

	assert.False(t, tickets[2].Quality.IsValid)
}

func TestNormalizeSnapshot_CountsDistinctModules(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr := New(logger)

	header := []string{"Client", "Absence", "Directory", "Time Tracking", "EAP"}
	rows := rowsOf(header,
		[]tabular.Value{tabular.Text("Acme"), tabular.Number(120), tabular.Number(1), tabular.Number(0), tabular.Text("yes 5")},
		[]tabular.Value{tabular.Text("Globex"), tabular.Missing(), tabular.Text("n/a"), tabular.Number(3), tabular.Missing()},
	)
	schema := columns.SnapshotAliases().Probe(rows[0])

	clients := tr.NormalizeSnapshot(rows, schema)
	require.Len(t, clients, 2)
	assert.Equal(t, 3, clients[0].Modules)
	assert.Equal(t, 1, clients[1].Modules)
}

func TestClassifyChannel_IsExact(t *testing.T) {
	cases := map[string]models.ChannelCategory{
		"Direct Sale":               models.CategoryNewDirect,
		"Partner Sale (Partner)":    models.CategoryNewPartner,
		"Customer Sale":             models.CategoryExistingClient,
		"Customer Sale (Partner)":   models.CategoryExistingPartner,
		"Self-Service System Order": models.CategorySelfService,
	}
	for in, want := range cases {
		got, ok := ClassifyChannel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "direct sale", "Direct Sale ", "Partner Sale"} {
		got, ok := ClassifyChannel(in)
		assert.False(t, ok, in)
		assert.Equal(t, models.CategoryUnknown, got, in)
	}
}

func TestClassifySeverity(t *testing.T) {
	cases := map[string]models.Severity{
		"Low":          models.SeverityLow,
		"minor issue":  models.SeverityLow,
		"Normal":       models.SeverityMedium,
		"HIGH":         models.SeverityHigh,
		"Major outage": models.SeverityHigh,
		"Critical":     models.SeverityUrgent,
		"urgent":       models.SeverityUrgent,
		"":             models.SeverityMedium,
		"P2":           models.SeverityMedium,
	}
	for in, want := range cases {
		assert.Equal(t, want, ClassifySeverity(in), in)
	}
}

func TestTopicKey(t *testing.T) {
	assert.Equal(t, "Password reset", TopicKey("Password reset not arriving"))
	assert.Equal(t, "Billing", TopicKey("  Billing "))
	assert.Equal(t, "Other", TopicKey("   "))
}

func TestGenerateQualityReport(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr := New(logger)

	header := []string{"Date", "Amount", "Channel"}
	rows := rowsOf(header,
		[]tabular.Value{tabular.Text("2024-03-05"), tabular.Number(1), tabular.Text("Direct Sale")},
		[]tabular.Value{tabular.Text("bad"), tabular.Number(1), tabular.Text("Direct Sale")},
		[]tabular.Value{tabular.Text("worse"), tabular.Number(1), tabular.Text("Direct Sale")},
		[]tabular.Value{tabular.Text("2024-03-06"), tabular.Number(1), tabular.Text("Mystery")},
	)
	sales := tr.NormalizeSales("salesforce.csv", rows, columns.SalesAliases().Probe(rows[0]))

	report := tr.GenerateQualityReport("sales", SalesQuality(sales))
	assert.Equal(t, "sales", report.Pipeline)
	assert.Equal(t, 4, report.RowsRead)
	assert.Equal(t, 2, report.RowsSkipped)
	assert.Equal(t, 50.0, report.QualityScore)
	require.Len(t, report.Issues, 3)
	assert.Equal(t, 3, report.Issues[0].Row)
	assert.Equal(t, "date", report.Issues[0].Field)
	assert.Equal(t, []string{"Invalid date format (occurs 2 times)"}, report.CommonIssues)
}

func TestGenerateQualityReport_CapsIssues(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr := New(logger)

	entries := make([]QualityEntry, 0, 300)
	for i := 0; i < 300; i++ {
		q := models.NewRecordQuality("x")
		q.Fail("date", "Invalid date format", "x")
		entries = append(entries, QualityEntry{File: "f.csv", Row: i + 2, Quality: q})
	}

	report := tr.GenerateQualityReport("csat", entries)
	assert.Len(t, report.Issues, maxReportedIssues)
	assert.Equal(t, 300, report.RowsSkipped)
	assert.Equal(t, 0.0, report.QualityScore)
}
