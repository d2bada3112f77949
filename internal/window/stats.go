package window

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// Stats summarises the current signal window for the dashboard header.
// BaselineMean averages only the non-anomalous samples, so spike magnitudes
// can be measured against normal activity; it falls back to Mean when every
// sample in the window is anomalous.
type Stats struct {
	Count        int     `json:"count"`
	Current      float64 `json:"current"`
	Peak         float64 `json:"peak"`
	Low          float64 `json:"low"`
	Mean         float64 `json:"mean"`
	BaselineMean float64 `json:"baseline_mean"`
	Anomalies    int     `json:"anomalies"`
}

// ComputeStats derives summary metrics from a signal snapshot.
func ComputeStats(samples []model.Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	stats := Stats{
		Count:   len(samples),
		Current: samples[len(samples)-1].Value,
		Peak:    samples[0].Value,
		Low:     samples[0].Value,
	}

	sum := 0.0
	baselineSum := 0.0
	for _, s := range samples {
		if s.Value > stats.Peak {
			stats.Peak = s.Value
		}
		if s.Value < stats.Low {
			stats.Low = s.Value
		}
		if s.Anomaly {
			stats.Anomalies++
		} else {
			baselineSum += s.Value
		}
		sum += s.Value
	}
	stats.Mean = sum / float64(len(samples))
	if normal := len(samples) - stats.Anomalies; normal > 0 {
		stats.BaselineMean = baselineSum / float64(normal)
	} else {
		stats.BaselineMean = stats.Mean
	}
	return stats
}

// SalesStats summarises the order window. Rate metrics cover the trailing
// minute; revenue and top category cover the whole window.
type SalesStats struct {
	RevenueLastMinute decimal.Decimal `json:"revenue_last_minute"`
	OrdersLastMinute  int             `json:"orders_last_minute"`
	AvgOrderValue     decimal.Decimal `json:"avg_order_value"`
	ConversionRate    float64         `json:"conversion_rate"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TopCategory       string          `json:"top_category"`
}

// ComputeSalesStats derives order metrics from a sales snapshot at the given
// reference time.
func ComputeSalesStats(events []model.SalesEvent, now time.Time) SalesStats {
	stats := SalesStats{
		RevenueLastMinute: decimal.Zero,
		AvgOrderValue:     decimal.Zero,
		TotalRevenue:      decimal.Zero,
	}
	if len(events) == 0 {
		return stats
	}

	cutoff := now.Add(-time.Minute)
	trafficSum := 0
	trafficCount := 0
	categories := make(map[string]int)

	for _, e := range events {
		stats.TotalRevenue = stats.TotalRevenue.Add(e.Price)
		categories[e.Category]++

		if e.Timestamp.After(cutoff) {
			stats.RevenueLastMinute = stats.RevenueLastMinute.Add(e.Price)
			stats.OrdersLastMinute++
			trafficSum += e.TrafficPerMin
			trafficCount++
		}
	}

	if stats.OrdersLastMinute > 0 {
		stats.AvgOrderValue = stats.RevenueLastMinute.
			Div(decimal.NewFromInt(int64(stats.OrdersLastMinute))).
			Round(2)
	}
	if trafficCount > 0 {
		avgTraffic := float64(trafficSum) / float64(trafficCount)
		if avgTraffic > 0 {
			stats.ConversionRate = float64(stats.OrdersLastMinute) / avgTraffic * 100
		}
	}

	best := 0
	for name, n := range categories {
		if n > best || (n == best && (stats.TopCategory == "" || name < stats.TopCategory)) {
			best = n
			stats.TopCategory = name
		}
	}
	return stats
}
