package metrics

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Range is a half-open interval [Min, Max).
type Range struct {
	Min float64
	Max float64
}

// Settings holds the tunable constants of the CSAT calculations.
type Settings struct {
	TopicShareThreshold float64
	NPS                 Range
	Churn               Range
	SyntheticMonths     int
}

func DefaultSettings() Settings {
	return Settings{
		TopicShareThreshold: 0.05,
		NPS:                 Range{Min: 7, Max: 9},
		Churn:               Range{Min: 1, Max: 4},
		SyntheticMonths:     3,
	}
}

type Option func(*Calculator)

// WithRand replaces the random source used for synthetic values.
func WithRand(r *rand.Rand) Option {
	return func(c *Calculator) { c.rng = r }
}

// WithClock replaces time.Now, which anchors the synthetic series.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

type Calculator struct {
	settings Settings

	mu  sync.Mutex // guards rng
	rng *rand.Rand
	now func() time.Time
}

func NewCalculator(settings Settings, opts ...Option) *Calculator {
	c := &Calculator{
		settings: settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uniform draws from r and floors to 2 decimals so the result stays in [Min, Max).
func (c *Calculator) uniform(r Range) float64 {
	c.mu.Lock()
	x := r.Min + c.rng.Float64()*(r.Max-r.Min)
	c.mu.Unlock()
	return decimal.NewFromFloat(x).RoundFloor(2).InexactFloat64()
}

func (c *Calculator) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

func (c *Calculator) safeDivide(numerator, denominator decimal.Decimal) float64 {
	if denominator.IsZero() {
		return 0
	}
	return numerator.DivRound(denominator, 3).InexactFloat64()
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
