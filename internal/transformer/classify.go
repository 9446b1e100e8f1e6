package transformer

import (
	"strings"

	"bizdash/internal/models"
)

// Channel values as the CRM export spells them. Matching is exact.
var channelCategories = map[string]models.ChannelCategory{
	"Direct Sale":               models.CategoryNewDirect,
	"Partner Sale (Partner)":    models.CategoryNewPartner,
	"Customer Sale":             models.CategoryExistingClient,
	"Customer Sale (Partner)":   models.CategoryExistingPartner,
	"Self-Service System Order": models.CategorySelfService,
}

// ClassifyChannel maps a raw channel value to its category. The second
// result is false for unclassified values, which map to CategoryUnknown.
func ClassifyChannel(channel string) (models.ChannelCategory, bool) {
	if category, ok := channelCategories[channel]; ok {
		return category, true
	}
	return models.CategoryUnknown, false
}

var severityKeywords = []struct {
	severity models.Severity
	words    []string
}{
	{models.SeverityLow, []string{"low", "minor"}},
	{models.SeverityMedium, []string{"medium", "normal"}},
	{models.SeverityHigh, []string{"high", "major"}},
	{models.SeverityUrgent, []string{"urgent", "critical"}},
}

// ClassifySeverity buckets free-text priority or impact. Anything that
// matches no keyword is medium.
func ClassifySeverity(priority string) models.Severity {
	p := strings.ToLower(priority)
	for _, rule := range severityKeywords {
		for _, w := range rule.words {
			if strings.Contains(p, w) {
				return rule.severity
			}
		}
	}
	return models.SeverityMedium
}

// TopicKey groups free-text topics by their first two words.
func TopicKey(topic string) string {
	words := strings.Fields(topic)
	if len(words) == 0 {
		return "Other"
	}
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

// ModuleCount prefers an explicit, non-zero module count over the sum of
// the license columns.
func ModuleCount(licenses models.LicenseCounts, modulesColumn float64) float64 {
	if modulesColumn != 0 {
		return modulesColumn
	}
	return licenses.Sum()
}
