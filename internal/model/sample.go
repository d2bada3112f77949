package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sample is one timestamped observation of the activity signal. Anomaly marks
// values that carry an injected spike.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Anomaly   bool      `json:"anomaly"`
}

// SalesEvent is one simulated order.
type SalesEvent struct {
	Timestamp     time.Time       `json:"timestamp"`
	OrderID       string          `json:"order_id"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	TrafficPerMin int             `json:"traffic_per_min"`
}
