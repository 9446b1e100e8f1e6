package metrics

import (
	"bizdash/internal/models"
)

const (
	otherTopic      = "Other"
	syntheticReason = "no NPS or churn source; values are placeholders"
)

type csatMonth struct {
	severity models.SeverityCounts
	topics   map[string]int
	types    map[string]int
	groups   map[string]int
	total    int
}

func newCSATMonth() *csatMonth {
	return &csatMonth{
		topics: make(map[string]int),
		types:  make(map[string]int),
		groups: make(map[string]int),
	}
}

func (m *csatMonth) add(ticket models.NormalizedTicket) {
	switch ticket.Severity {
	case models.SeverityLow:
		m.severity.Low++
	case models.SeverityHigh:
		m.severity.High++
	case models.SeverityUrgent:
		m.severity.Urgent++
	default:
		m.severity.Medium++
	}
	m.topics[ticket.Topic]++
	m.types[ticket.Type]++
	m.groups[ticket.Group]++
	m.total++
}

// CalculateCSATMetrics aggregates valid tickets per month. NPS and churn have
// no source column, so every point carries placeholder values flagged as such.
func (c *Calculator) CalculateCSATMetrics(tickets []models.NormalizedTicket) []models.CSATDataPoint {
	buckets := NewBuckets(newCSATMonth)
	for _, ticket := range tickets {
		if !ticket.Quality.IsValid {
			continue
		}
		buckets.Bucket(ticket.Month).add(ticket)
	}

	results := make([]models.CSATDataPoint, 0, buckets.Len())
	for _, month := range buckets.Keys() {
		m := buckets.Bucket(month)
		results = append(results, models.CSATDataPoint{
			Date:         month,
			NPS:          c.uniform(c.settings.NPS),
			Churn:        c.uniform(c.settings.Churn),
			TotalTickets: m.total,
			Severity:     m.severity,
			Topics:       MergeLongTail(m.topics, m.total, c.settings.TopicShareThreshold),
			TicketTypes:  m.types,
			Groups:       m.groups,
			Synthetic: models.Synthetic{
				NPS:    true,
				Churn:  true,
				Reason: syntheticReason,
			},
		})
	}

	return results
}

// MergeLongTail folds every topic whose share of total is below threshold
// into "Other".
func MergeLongTail(topics map[string]int, total int, threshold float64) map[string]int {
	merged := make(map[string]int, len(topics))
	for topic, count := range topics {
		if total > 0 && float64(count)/float64(total) < threshold {
			topic = otherTopic
		}
		merged[topic] += count
	}
	return merged
}
