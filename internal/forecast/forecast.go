package forecast

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// Options tune the revenue forecaster.
type Options struct {
	BinSize     time.Duration
	Lookback    time.Duration
	Horizon     time.Duration
	HistorySize int
}

// Point is one recorded forecast.
type Point struct {
	At        time.Time       `json:"at"`
	Predicted decimal.Decimal `json:"predicted"`
}

// Result pairs the latest forecast with the actual revenue that followed.
type Result struct {
	At        time.Time       `json:"at"`
	Predicted decimal.Decimal `json:"predicted"`
	Actual    decimal.Decimal `json:"actual"`
	ErrorPct  float64         `json:"error_pct"`
}

// Forecaster predicts near-term revenue from binned order history using a
// naive baseline-plus-trend extrapolation.
type Forecaster struct {
	mu      sync.Mutex
	opts    Options
	history []Point
	logger  zerolog.Logger
}

// New builds a Forecaster.
func New(opts Options, logger zerolog.Logger) *Forecaster {
	if opts.BinSize <= 0 {
		panic("forecast bin size must be positive")
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 20
	}
	return &Forecaster{
		opts:   opts,
		logger: logging.Component(logger, "forecaster"),
	}
}

// BinRevenue aggregates order revenue into fixed-size bins ending at ref.
// Bins with no orders hold zero, so a quiet stretch drags the baseline down
// instead of disappearing.
func (f *Forecaster) BinRevenue(events []model.SalesEvent, ref time.Time) []decimal.Decimal {
	end := ref.Truncate(f.opts.BinSize)
	start := end.Add(-f.opts.Lookback)
	n := int(f.opts.Lookback/f.opts.BinSize) + 1

	bins := make([]decimal.Decimal, n)
	for i := range bins {
		bins[i] = decimal.Zero
	}

	for _, e := range events {
		bin := e.Timestamp.Truncate(f.opts.BinSize)
		if bin.Before(start) || bin.After(end) {
			continue
		}
		idx := int(bin.Sub(start) / f.opts.BinSize)
		bins[idx] = bins[idx].Add(e.Price)
	}
	return bins
}

// Predict estimates revenue over the next horizon from the binned history.
// Returns zero when there is not enough history to extrapolate.
func (f *Forecaster) Predict(events []model.SalesEvent, ref time.Time) decimal.Decimal {
	bins := f.BinRevenue(events, ref)

	horizonBins := int(f.opts.Horizon / f.opts.BinSize)
	if horizonBins <= 0 || len(bins) < horizonBins {
		return decimal.Zero
	}

	recent := bins[len(bins)-horizonBins:]
	sum := decimal.Zero
	for _, b := range recent {
		sum = sum.Add(b)
	}
	if sum.IsZero() {
		return decimal.Zero
	}

	count := decimal.NewFromInt(int64(horizonBins))
	baseline := sum.Div(count)

	half := horizonBins / 2
	firstHalf := mean(recent[:half])
	lastHalf := mean(recent[len(recent)-half:])

	// A zero first half means the stream just woke up; extrapolating the
	// jump as a trend would double-count the recovery.
	trend := decimal.Zero
	if firstHalf.IsPositive() {
		trend = lastHalf.Sub(firstHalf)
	}

	perBin := baseline.Add(trend.Div(decimal.NewFromInt(2)))
	if perBin.IsNegative() {
		perBin = decimal.Zero
	}
	return perBin.Mul(count).Round(2)
}

// Record appends a forecast to the bounded history and returns it.
func (f *Forecaster) Record(at time.Time, predicted decimal.Decimal) Point {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := Point{At: at.UTC(), Predicted: predicted}
	f.history = append(f.history, p)
	if len(f.history) > f.opts.HistorySize {
		f.history = f.history[len(f.history)-f.opts.HistorySize:]
	}
	f.logger.Debug().Time("at", p.At).Str("predicted", predicted.String()).Msg("forecast recorded")
	return p
}

// Latest returns the most recent forecast, if any.
func (f *Forecaster) Latest() (Point, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return Point{}, false
	}
	return f.history[len(f.history)-1], true
}

// History returns a copy of recorded forecasts, oldest first.
func (f *Forecaster) History() []Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Point, len(f.history))
	copy(out, f.history)
	return out
}

// Evaluate compares the latest forecast against actual revenue and reports
// the absolute percentage error. Zero actual yields a zero error to avoid a
// meaningless blow-up on quiet streams.
func (f *Forecaster) Evaluate(actual decimal.Decimal) Result {
	latest, ok := f.Latest()
	if !ok {
		return Result{Actual: actual, Predicted: decimal.Zero}
	}

	res := Result{
		At:        latest.At,
		Predicted: latest.Predicted,
		Actual:    actual,
	}
	if actual.IsPositive() {
		diff := latest.Predicted.Sub(actual).Abs()
		res.ErrorPct, _ = diff.Div(actual).Mul(decimal.NewFromInt(100)).Float64()
	}
	return res
}

func mean(bins []decimal.Decimal) decimal.Decimal {
	if len(bins) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, b := range bins {
		sum = sum.Add(b)
	}
	return sum.Div(decimal.NewFromInt(int64(len(bins))))
}
