package metrics

import (
	"github.com/shopspring/decimal"

	"bizdash/internal/models"
)

const growthWindow = 3

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type categoryTotal struct {
	count int
	value decimal.Decimal
}

type salesMonth struct {
	categories map[models.ChannelCategory]*categoryTotal
	licenses   [6]decimal.Decimal
	modules    decimal.Decimal
	accounts   map[string]struct{}
	count      int
	value      decimal.Decimal
}

func newSalesMonth() *salesMonth {
	return &salesMonth{
		categories: make(map[models.ChannelCategory]*categoryTotal),
		accounts:   make(map[string]struct{}),
	}
}

func (m *salesMonth) add(sale models.NormalizedSale) {
	ct, ok := m.categories[sale.Category]
	if !ok {
		ct = &categoryTotal{}
		m.categories[sale.Category] = ct
	}
	ct.count++
	ct.value = ct.value.Add(sale.Amount)

	l := sale.Licenses
	for i, v := range []float64{l.User, l.Leaver, l.Timesheet, l.Directory, l.Workflow, l.Other} {
		m.licenses[i] = m.licenses[i].Add(decimal.NewFromFloat(v))
	}
	m.modules = m.modules.Add(decimal.NewFromFloat(sale.Modules))

	if sale.Account != "" {
		m.accounts[sale.Account] = struct{}{}
	}
	m.count++
	m.value = m.value.Add(sale.Amount)
}

func (m *salesMonth) category(c models.ChannelCategory) (int, float64) {
	ct, ok := m.categories[c]
	if !ok {
		return 0, 0
	}
	return ct.count, ct.value.InexactFloat64()
}

// clients is the distinct account count when accounts are known, else the
// number of deals.
func (m *salesMonth) clients() decimal.Decimal {
	if len(m.accounts) > 0 {
		return decimal.NewFromInt(int64(len(m.accounts)))
	}
	return decimal.NewFromInt(int64(m.count))
}

// CalculateSalesMetrics folds valid deals into one point per month, oldest first.
func (c *Calculator) CalculateSalesMetrics(sales []models.NormalizedSale) []models.SalesDataPoint {
	buckets := NewBuckets(newSalesMonth)
	for _, sale := range sales {
		if !sale.Quality.IsValid {
			continue
		}
		buckets.Bucket(sale.Month).add(sale)
	}

	results := make([]models.SalesDataPoint, 0, buckets.Len())
	history := make([]float64, growthWindow)
	prevARR := decimal.Zero

	for i, month := range buckets.Keys() {
		m := buckets.Bucket(month)
		point := models.SalesDataPoint{
			Date:                    month,
			UserLicenses:            m.licenses[0].InexactFloat64(),
			LeaverLicenses:          m.licenses[1].InexactFloat64(),
			TimesheetLicenses:       m.licenses[2].InexactFloat64(),
			DirectoryLicenses:       m.licenses[3].InexactFloat64(),
			WorkflowLicenses:        m.licenses[4].InexactFloat64(),
			OtherLicenses:           m.licenses[5].InexactFloat64(),
			TotalModules:            m.modules.InexactFloat64(),
			TotalSalesCount:         m.count,
			TotalSalesValue:         m.value.InexactFloat64(),
			AverageOrderValue:       c.safeDivide(m.value, decimal.NewFromInt(int64(m.count))),
			AverageModulesPerClient: c.safeDivide(m.modules, m.clients()),
			ARPA:                    c.safeDivide(m.value, m.clients()),
		}
		point.NewDirectSalesCount, point.NewDirectSalesValue = m.category(models.CategoryNewDirect)
		point.NewPartnerSalesCount, point.NewPartnerSalesValue = m.category(models.CategoryNewPartner)
		point.ExistingClientUpsellCount, point.ExistingClientUpsellValue = m.category(models.CategoryExistingClient)
		point.ExistingPartnerSalesCount, point.ExistingPartnerSalesValue = m.category(models.CategoryExistingPartner)
		point.SelfServiceSalesCount, point.SelfServiceSalesValue = m.category(models.CategorySelfService)
		point.UnknownSalesCount, point.UnknownSalesValue = m.category(models.CategoryUnknown)

		arr := m.value.Mul(twelve)
		growth := decimal.Zero
		if i > 0 && !prevARR.IsZero() {
			growth = arr.Sub(prevARR).Div(prevARR).Mul(hundred).Round(2)
		}
		prevARR = arr

		history = append(history[1:], growth.InexactFloat64())
		sum := decimal.Zero
		for _, g := range history {
			sum = sum.Add(decimal.NewFromFloat(g))
		}

		point.ARRGrowth = growth.InexactFloat64()
		point.ARRGrowthSmoothed = round2(sum.Div(decimal.NewFromInt(growthWindow)))
		point.ARRGrowthHistory = append([]float64(nil), history...)

		results = append(results, point)
	}

	return results
}
