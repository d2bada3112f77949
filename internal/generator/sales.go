package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// Category describes one entry of the simulated product catalog.
type Category struct {
	Name     string
	PriceMin float64
	PriceMax float64
	Weight   float64
}

// DefaultCatalog mirrors a mid-size e-commerce assortment.
var DefaultCatalog = []Category{
	{Name: "Electronics", PriceMin: 80, PriceMax: 400, Weight: 0.30},
	{Name: "Apparel", PriceMin: 25, PriceMax: 120, Weight: 0.35},
	{Name: "Home & Garden", PriceMin: 40, PriceMax: 200, Weight: 0.20},
	{Name: "Beauty", PriceMin: 15, PriceMax: 90, Weight: 0.10},
	{Name: "Toys & Games", PriceMin: 20, PriceMax: 150, Weight: 0.05},
}

// orderCountWeights biases ticks toward single orders with an occasional burst.
var orderCountWeights = []struct {
	count  int
	weight float64
}{
	{1, 0.60},
	{2, 0.25},
	{3, 0.10},
	{4, 0.05},
}

// SalesOptions parameterise the order stream.
type SalesOptions struct {
	HourlyRevenue     float64
	AverageOrderValue float64
	HolidayMode       bool
	Catalog           []Category
	Seed              int64
}

// Sales synthesises order events against a weighted catalog, modulated by a
// time-of-day peak factor and an optional holiday multiplier.
type Sales struct {
	mu      sync.Mutex
	opts    SalesOptions
	holiday bool
	rng     *rand.Rand
	logger  zerolog.Logger
}

// NewSales builds a sales event generator.
func NewSales(opts SalesOptions, logger zerolog.Logger) *Sales {
	if len(opts.Catalog) == 0 {
		opts.Catalog = DefaultCatalog
	}
	if opts.AverageOrderValue <= 0 {
		opts.AverageOrderValue = 100
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sales{
		opts:    opts,
		holiday: opts.HolidayMode,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logging.Component(logger, "sales_generator"),
	}
}

// Next produces the orders for the given tick time.
func (g *Sales) Next(now time.Time) []model.SalesEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	eventsPerSec := g.eventsPerSecond(now)

	n := g.orderCount()
	events := make([]model.SalesEvent, 0, n)
	for i := 0; i < n; i++ {
		cat := g.pickCategory()
		price := cat.PriceMin + g.rng.Float64()*(cat.PriceMax-cat.PriceMin)

		traffic := int(eventsPerSec * 3600 * (0.8 + 0.4*g.rng.Float64()))
		if traffic < 50 {
			traffic = 50
		}

		events = append(events, model.SalesEvent{
			Timestamp:     now.UTC(),
			OrderID:       fmt.Sprintf("ord_%05d", 10000+g.rng.Intn(90000)),
			Category:      cat.Name,
			Price:         decimal.NewFromFloat(price).Round(2),
			TrafficPerMin: traffic,
		})
	}
	return events
}

// eventsPerSecond scales base traffic to the revenue target and applies the
// afternoon peak (+30% around 14:00 UTC). Caller holds the mutex.
func (g *Sales) eventsPerSecond(now time.Time) float64 {
	hour := float64(now.UTC().Hour())
	peak := 1.0 + 0.3*math.Sin((hour-14)*math.Pi/12)
	if g.holiday {
		peak *= 2.0
	}
	base := g.opts.HourlyRevenue / 3600 / g.opts.AverageOrderValue
	return base * peak
}

func (g *Sales) orderCount() int {
	r := g.rng.Float64()
	acc := 0.0
	for _, w := range orderCountWeights {
		acc += w.weight
		if r < acc {
			return w.count
		}
	}
	return orderCountWeights[len(orderCountWeights)-1].count
}

func (g *Sales) pickCategory() Category {
	total := 0.0
	for _, c := range g.opts.Catalog {
		total += c.Weight
	}
	r := g.rng.Float64() * total
	acc := 0.0
	for _, c := range g.opts.Catalog {
		acc += c.Weight
		if r < acc {
			return c
		}
	}
	return g.opts.Catalog[len(g.opts.Catalog)-1]
}

// SetHolidayMode toggles the holiday multiplier at runtime.
func (g *Sales) SetHolidayMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.holiday = on
}

// HolidayMode reports whether the holiday multiplier is active.
func (g *Sales) HolidayMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holiday
}

var _ SalesSource = (*Sales)(nil)
