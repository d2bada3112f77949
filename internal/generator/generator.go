package generator

import (
	"time"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// SignalSource produces one activity sample per tick.
type SignalSource interface {
	Next(now time.Time) model.Sample
}

// SalesSource produces the orders placed during one tick.
type SalesSource interface {
	Next(now time.Time) []model.SalesEvent
}
