package metrics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/models"
)

func newTestCalculator() *Calculator {
	return NewCalculator(DefaultSettings(),
		WithRand(rand.New(rand.NewSource(42))),
		WithClock(func() time.Time { return time.Date(2024, time.June, 17, 10, 0, 0, 0, time.UTC) }),
	)
}

func sale(month string, category models.ChannelCategory, amount int64, account string) models.NormalizedSale {
	return models.NormalizedSale{
		Month:    month,
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		Account:  account,
		Licenses: models.LicenseCounts{User: 1, Timesheet: 2},
		Modules:  3,
		Quality:  models.NewRecordQuality(month),
	}
}

func TestBuckets(t *testing.T) {
	b := NewBuckets(func() *int { return new(int) })
	*b.Bucket("2024-03")++
	*b.Bucket("2023-12")++
	*b.Bucket("2024-03")++

	assert.Equal(t, []string{"2023-12", "2024-03"}, b.Keys())
	assert.Equal(t, 2, *b.Bucket("2024-03"))
	assert.Equal(t, 2, b.Len())
}

func TestCalculateSalesMetrics_SingleDirectSale(t *testing.T) {
	c := newTestCalculator()

	points := c.CalculateSalesMetrics([]models.NormalizedSale{
		sale("2024-03", models.CategoryNewDirect, 1000, ""),
	})

	require.Len(t, points, 1)
	p := points[0]
	assert.Equal(t, "2024-03", p.Date)
	assert.Equal(t, 1, p.NewDirectSalesCount)
	assert.Equal(t, 1000.0, p.NewDirectSalesValue)
	assert.Equal(t, 1, p.TotalSalesCount)
	assert.Equal(t, 1000.0, p.TotalSalesValue)
	assert.Equal(t, 1000.0, p.AverageOrderValue)
	assert.Equal(t, 0.0, p.ARRGrowth)
	assert.Equal(t, 0.0, p.ARRGrowthSmoothed)
	assert.Equal(t, []float64{0, 0, 0}, p.ARRGrowthHistory)
	assert.False(t, p.Synthetic)
}

func TestCalculateSalesMetrics_UnknownCountsInTotalsOnly(t *testing.T) {
	c := newTestCalculator()

	points := c.CalculateSalesMetrics([]models.NormalizedSale{
		sale("2024-03", models.CategoryNewDirect, 1000, "A"),
		sale("2024-03", models.CategoryUnknown, 500, "B"),
		sale("2024-03", models.CategorySelfService, 100, "A"),
	})

	require.Len(t, points, 1)
	p := points[0]
	named := p.NewDirectSalesCount + p.NewPartnerSalesCount + p.ExistingClientUpsellCount +
		p.ExistingPartnerSalesCount + p.SelfServiceSalesCount
	assert.Equal(t, 2, named)
	assert.Equal(t, 1, p.UnknownSalesCount)
	assert.Equal(t, 500.0, p.UnknownSalesValue)
	assert.Equal(t, 3, p.TotalSalesCount)
	assert.Equal(t, named+p.UnknownSalesCount, p.TotalSalesCount)
	assert.Equal(t, 1600.0, p.TotalSalesValue)
	assert.Equal(t, 533.333, p.AverageOrderValue)
	assert.Equal(t, 800.0, p.ARPA, "two distinct accounts")
	assert.Equal(t, 4.5, p.AverageModulesPerClient)
	assert.Equal(t, 3.0, p.UserLicenses)
	assert.Equal(t, 6.0, p.TimesheetLicenses)
	assert.Equal(t, 9.0, p.TotalModules)
}

func TestCalculateSalesMetrics_ARRGrowthAndSmoothing(t *testing.T) {
	c := newTestCalculator()

	points := c.CalculateSalesMetrics([]models.NormalizedSale{
		sale("2024-04", models.CategoryNewDirect, 1500, ""),
		sale("2024-01", models.CategoryNewDirect, 1000, ""),
		sale("2024-02", models.CategoryNewDirect, 0, ""),
		sale("2024-03", models.CategoryNewDirect, 1000, ""),
	})

	require.Len(t, points, 4)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"},
		[]string{points[0].Date, points[1].Date, points[2].Date, points[3].Date})

	assert.Equal(t, 0.0, points[0].ARRGrowth)
	assert.Equal(t, -100.0, points[1].ARRGrowth)
	assert.Equal(t, 0.0, points[2].ARRGrowth, "previous ARR of zero yields no growth")
	assert.Equal(t, 50.0, points[3].ARRGrowth)

	assert.Equal(t, -33.33, points[1].ARRGrowthSmoothed)
	assert.Equal(t, []float64{0, 0, -100}, points[1].ARRGrowthHistory)
	assert.Equal(t, -16.67, points[3].ARRGrowthSmoothed)
	assert.Equal(t, []float64{-100, 0, 50}, points[3].ARRGrowthHistory)
}

func TestCalculateSalesMetrics_OrderIndependent(t *testing.T) {
	c := newTestCalculator()

	sales := []models.NormalizedSale{
		sale("2024-03", models.CategoryNewDirect, 1000, "A"),
		sale("2024-03", models.CategoryNewPartner, 333, "B"),
		sale("2024-03", models.CategoryExistingClient, 17, "C"),
		sale("2024-03", models.CategoryExistingPartner, 250, "A"),
		sale("2024-03", models.CategorySelfService, 99, "D"),
		sale("2024-03", models.CategoryUnknown, 1, ""),
		sale("2024-04", models.CategoryNewDirect, 10, "A"),
	}
	sales[2].Amount = decimal.RequireFromString("0.1")
	sales[4].Amount = decimal.RequireFromString("0.2")

	want := c.CalculateSalesMetrics(sales)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.NormalizedSale(nil), sales...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, c.CalculateSalesMetrics(shuffled))
	}
}

func TestCalculateSalesMetrics_SkipsInvalidRecords(t *testing.T) {
	c := newTestCalculator()

	bad := sale("2024-03", models.CategoryNewDirect, 1000, "")
	bad.Quality.Fail("date", "Invalid date format", "soon")

	assert.Empty(t, c.CalculateSalesMetrics([]models.NormalizedSale{bad}))
}

func ticket(month string, severity models.Severity, topic string) models.NormalizedTicket {
	return models.NormalizedTicket{
		Month:    month,
		Severity: severity,
		Topic:    topic,
		Type:     "Question",
		Group:    "No Group",
		Quality:  models.NewRecordQuality(month),
	}
}

func TestCalculateCSATMetrics(t *testing.T) {
	c := newTestCalculator()

	var tickets []models.NormalizedTicket
	for i := 0; i < 29; i++ {
		tickets = append(tickets, ticket("2024-02", models.SeverityHigh, "Login issue"))
	}
	tickets = append(tickets, ticket("2024-02", models.SeverityLow, "Rare thing"))
	tickets = append(tickets, ticket("2024-01", models.SeverityUrgent, "Billing"))

	points := c.CalculateCSATMetrics(tickets)
	require.Len(t, points, 2)

	jan, feb := points[0], points[1]
	assert.Equal(t, "2024-01", jan.Date)
	assert.Equal(t, 1, jan.TotalTickets)
	assert.Equal(t, map[string]int{"Billing": 1}, jan.Topics)

	assert.Equal(t, 30, feb.TotalTickets)
	assert.Equal(t, feb.TotalTickets, feb.Severity.Total())
	assert.Equal(t, 29, feb.Severity.High)
	assert.Equal(t, map[string]int{"Login issue": 29, "Other": 1}, feb.Topics)
	assert.Equal(t, map[string]int{"Question": 30}, feb.TicketTypes)

	for _, p := range points {
		assert.True(t, p.Synthetic.NPS)
		assert.True(t, p.Synthetic.Churn)
		assert.False(t, p.Synthetic.Tickets)
		assert.GreaterOrEqual(t, p.NPS, 7.0)
		assert.Less(t, p.NPS, 9.0)
		assert.GreaterOrEqual(t, p.Churn, 1.0)
		assert.Less(t, p.Churn, 4.0)
	}
}

func TestMergeLongTail(t *testing.T) {
	topics := map[string]int{"A": 10, "B": 5, "C": 4, "Other": 1}

	merged := MergeLongTail(topics, 100, 0.05)
	assert.Equal(t, map[string]int{"A": 10, "B": 5, "Other": 5}, merged)

	assert.Equal(t, topics, MergeLongTail(topics, 20, 0.05))
}

func TestSyntheticCSAT(t *testing.T) {
	c := newTestCalculator()

	points := c.SyntheticCSAT("no support exports")
	require.Len(t, points, 3)

	assert.Equal(t, []string{"2024-04", "2024-05", "2024-06"},
		[]string{points[0].Date, points[1].Date, points[2].Date})

	for i, p := range points {
		assert.True(t, p.Synthetic.NPS)
		assert.True(t, p.Synthetic.Churn)
		assert.True(t, p.Synthetic.Tickets)
		assert.Equal(t, "no support exports", p.Synthetic.Reason)
		assert.Equal(t, p.TotalTickets, p.Severity.Total())

		topicSum := 0
		for _, n := range p.Topics {
			topicSum += n
		}
		assert.Equal(t, p.TotalTickets, topicSum)

		if i > 0 {
			assert.Less(t, p.TotalTickets, points[i-1].TotalTickets)
			assert.Less(t, p.Churn, points[i-1].Churn)
		}
	}
}

func TestCalculateSnapshotMetrics(t *testing.T) {
	c := newTestCalculator()
	month := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	point := c.CalculateSnapshotMetrics(month, []models.SnapshotClient{{Modules: 3}, {Modules: 1}, {Modules: 1}})
	assert.Equal(t, "2024-05-01", point.Date)
	assert.Equal(t, 3, point.TotalClients)
	assert.Equal(t, 1.67, point.AverageModulesPerClient)

	empty := c.CalculateSnapshotMetrics(month, nil)
	assert.Equal(t, 0, empty.TotalClients)
	assert.Equal(t, 0.0, empty.AverageModulesPerClient)
}
