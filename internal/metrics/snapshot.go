package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"bizdash/internal/dates"
	"bizdash/internal/models"
)

// CalculateSnapshotMetrics summarizes one monthly client roster.
func (c *Calculator) CalculateSnapshotMetrics(month time.Time, clients []models.SnapshotClient) models.SnapshotDataPoint {
	point := models.SnapshotDataPoint{
		Date:         dates.FormatISO(dates.FirstOfMonth(month)),
		TotalClients: len(clients),
	}
	if len(clients) == 0 {
		return point
	}

	total := decimal.Zero
	for _, client := range clients {
		total = total.Add(decimal.NewFromInt(int64(client.Modules)))
	}
	point.AverageModulesPerClient = round2(total.Div(decimal.NewFromInt(int64(len(clients)))))
	return point
}
