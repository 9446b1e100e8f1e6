package metrics

import (
	"github.com/shopspring/decimal"

	"bizdash/internal/dates"
	"bizdash/internal/models"
)

type share struct {
	name   string
	weight float64
}

var (
	demoTopics = []share{
		{"Login issue", 0.30}, {"Billing question", 0.25}, {"Data export", 0.20},
		{"Feature request", 0.15}, {otherTopic, 0.10},
	}
	demoTypes = []share{
		{"Question", 0.45}, {"Incident", 0.30}, {"Problem", 0.15}, {"Feature Request", 0.10},
	}
	demoGroups = []share{
		{"Tier 1", 0.60}, {"Tier 2", 0.30}, {"Billing", 0.10},
	}
)

// SyntheticCSAT fabricates a demo series ending at the current month: ticket
// volume and churn fall month over month while NPS rises. Every field is
// flagged synthetic.
func (c *Calculator) SyntheticCSAT(reason string) []models.CSATDataPoint {
	n := c.settings.SyntheticMonths
	if n <= 0 {
		n = DefaultSettings().SyntheticMonths
	}
	end := dates.FirstOfMonth(c.now().UTC())
	steps := decimal.NewFromInt(int64(n + 1))

	results := make([]models.CSATDataPoint, 0, n)
	tickets := 140 + c.intn(40)

	for k := 0; k < n; k++ {
		month := end.AddDate(0, -(n - 1 - k), 0)
		if k > 0 {
			tickets -= 8 + c.intn(12)
			if tickets < 1 {
				tickets = 1
			}
		}
		pos := decimal.NewFromInt(int64(k + 1))

		churn := c.settings.Churn
		churnSpan := decimal.NewFromFloat(churn.Max - churn.Min)
		churnValue := decimal.NewFromFloat(churn.Max).Sub(churnSpan.Mul(pos).Div(steps)).RoundFloor(2)

		nps := c.settings.NPS
		npsSpan := decimal.NewFromFloat(nps.Max - nps.Min)
		npsValue := decimal.NewFromFloat(nps.Min).Add(npsSpan.Mul(pos).Div(steps)).RoundFloor(2)

		results = append(results, models.CSATDataPoint{
			Date:         dates.MonthKey(month),
			NPS:          npsValue.InexactFloat64(),
			Churn:        churnValue.InexactFloat64(),
			TotalTickets: tickets,
			Severity:     syntheticSeverity(tickets),
			Topics:       split(tickets, demoTopics),
			TicketTypes:  split(tickets, demoTypes),
			Groups:       split(tickets, demoGroups),
			Synthetic: models.Synthetic{
				NPS:     true,
				Churn:   true,
				Tickets: true,
				Reason:  reason,
			},
		})
	}

	return results
}

func syntheticSeverity(total int) models.SeverityCounts {
	counts := split(total, []share{
		{string(models.SeverityMedium), 0.45},
		{string(models.SeverityLow), 0.30},
		{string(models.SeverityHigh), 0.20},
		{string(models.SeverityUrgent), 0.05},
	})
	return models.SeverityCounts{
		Low:    counts[string(models.SeverityLow)],
		Medium: counts[string(models.SeverityMedium)],
		High:   counts[string(models.SeverityHigh)],
		Urgent: counts[string(models.SeverityUrgent)],
	}
}

// split distributes total over the weighted names; the rounding remainder
// goes to the first name so the parts always sum to total.
func split(total int, shares []share) map[string]int {
	parts := make(map[string]int, len(shares))
	assigned := 0
	for _, s := range shares[1:] {
		n := int(float64(total) * s.weight)
		parts[s.name] = n
		assigned += n
	}
	parts[shares[0].name] = total - assigned
	return parts
}
