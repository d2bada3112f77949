package window

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

func TestComputeStatsEmpty(t *testing.T) {
	require.Equal(t, Stats{}, ComputeStats(nil))
}

func TestComputeStats(t *testing.T) {
	now := time.Now().UTC()
	samples := []model.Sample{
		{Timestamp: now, Value: 50},
		{Timestamp: now.Add(time.Second), Value: 80, Anomaly: true},
		{Timestamp: now.Add(2 * time.Second), Value: 20},
		{Timestamp: now.Add(3 * time.Second), Value: 60},
	}

	stats := ComputeStats(samples)
	require.Equal(t, 4, stats.Count)
	require.Equal(t, 60.0, stats.Current)
	require.Equal(t, 80.0, stats.Peak)
	require.Equal(t, 20.0, stats.Low)
	require.Equal(t, 52.5, stats.Mean)
	require.InDelta(t, 130.0/3, stats.BaselineMean, 1e-9, "anomalous samples excluded")
	require.Equal(t, 1, stats.Anomalies)
}

func TestComputeStatsAllAnomalous(t *testing.T) {
	now := time.Now().UTC()
	samples := []model.Sample{
		{Timestamp: now, Value: 120, Anomaly: true},
		{Timestamp: now.Add(time.Second), Value: 140, Anomaly: true},
	}

	stats := ComputeStats(samples)
	require.Equal(t, 130.0, stats.Mean)
	require.Equal(t, 130.0, stats.BaselineMean)
}

func TestComputeSalesStatsLastMinuteFilter(t *testing.T) {
	now := time.Now().UTC()
	events := []model.SalesEvent{
		// Outside the trailing minute: counted only in window totals.
		{Timestamp: now.Add(-2 * time.Minute), Category: "Beauty", Price: decimal.NewFromInt(30), TrafficPerMin: 100},
		// Inside the trailing minute.
		{Timestamp: now.Add(-30 * time.Second), Category: "Apparel", Price: decimal.NewFromInt(40), TrafficPerMin: 200},
		{Timestamp: now.Add(-10 * time.Second), Category: "Apparel", Price: decimal.NewFromInt(60), TrafficPerMin: 200},
	}

	stats := ComputeSalesStats(events, now)
	require.Equal(t, 2, stats.OrdersLastMinute)
	require.True(t, stats.RevenueLastMinute.Equal(decimal.NewFromInt(100)), "got %s", stats.RevenueLastMinute)
	require.True(t, stats.AvgOrderValue.Equal(decimal.NewFromInt(50)), "got %s", stats.AvgOrderValue)
	require.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(130)), "got %s", stats.TotalRevenue)
	require.Equal(t, "Apparel", stats.TopCategory)
	require.InDelta(t, 1.0, stats.ConversionRate, 1e-9)
}

func TestComputeSalesStatsEmpty(t *testing.T) {
	stats := ComputeSalesStats(nil, time.Now().UTC())
	require.Equal(t, 0, stats.OrdersLastMinute)
	require.True(t, stats.RevenueLastMinute.IsZero())
	require.True(t, stats.TotalRevenue.IsZero())
	require.Empty(t, stats.TopCategory)
}
