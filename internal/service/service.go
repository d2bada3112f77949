package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/alerting"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/config"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/forecast"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/generator"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/scheduler"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/window"
)

// recentOrderCount bounds the order table included in snapshots.
const recentOrderCount = 10

// Snapshot is one redraw of the dashboard state.
type Snapshot struct {
	At              time.Time          `json:"at"`
	Running         bool               `json:"running"`
	IntervalSeconds float64            `json:"interval_seconds"`
	Params          generator.Params   `json:"params"`
	HolidayMode     bool               `json:"holiday_mode"`
	Samples         []model.Sample     `json:"samples"`
	Stats           window.Stats       `json:"stats"`
	RecentOrders    []model.SalesEvent `json:"recent_orders,omitempty"`
	SalesStats      *window.SalesStats `json:"sales_stats,omitempty"`
	Forecast        *forecast.Result   `json:"forecast,omitempty"`
}

// ParamsUpdate is a partial live-control update. Nil fields are untouched.
type ParamsUpdate struct {
	BaseLevel          *float64       `json:"base_level,omitempty"`
	NoiseAmplitude     *float64       `json:"noise_amplitude,omitempty"`
	AnomalyProbability *float64       `json:"anomaly_probability,omitempty"`
	Interval           *time.Duration `json:"-"`
	HolidayMode        *bool          `json:"holiday_mode,omitempty"`
}

// Service runs the simulate-append-redraw loop and fans snapshots out to
// subscribers.
type Service struct {
	scheduler   *scheduler.Scheduler
	signal      *generator.Signal
	sales       *generator.Sales
	signalWin   *window.Window
	salesWin    *window.SalesWindow
	forecaster  *forecast.Forecaster
	notifier    alerting.Notifier
	logger      zerolog.Logger
	alertsOn    bool
	cooldown    time.Duration
	channels    []string
	forecastDue time.Duration

	mu           sync.Mutex
	running      bool
	lastAlert    time.Time
	lastForecast time.Time

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// New constructs the dashboard service.
func New(cfg *config.Config, sched *scheduler.Scheduler, signal *generator.Signal, sales *generator.Sales, signalWin *window.Window, salesWin *window.SalesWindow, forecaster *forecast.Forecaster, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:   sched,
		signal:      signal,
		sales:       sales,
		signalWin:   signalWin,
		salesWin:    salesWin,
		forecaster:  forecaster,
		notifier:    notifier,
		logger:      logging.Component(logger, "service"),
		alertsOn:    cfg.Alerting.Enabled,
		cooldown:    cfg.Alerting.Cooldown,
		channels:    cfg.Alerting.Channels,
		forecastDue: cfg.Forecast.Every,
		running:     true,
		subs:        make(map[chan Snapshot]struct{}),
	}
}

// Run begins the refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessTick)
}

// ProcessTick executes one refresh: generate, append, evict, redraw.
// While paused it still redraws the current state so reconnecting clients
// see the frozen chart.
func (s *Service) ProcessTick(ctx context.Context, tick time.Time) error {
	if !s.Running() {
		s.broadcast(s.SnapshotNow(tick))
		return nil
	}

	sample := s.signal.Next(tick)
	s.signalWin.Append(sample)

	if s.sales != nil && s.salesWin != nil {
		events := s.sales.Next(tick)
		s.salesWin.Append(events...)
	}

	s.maybeForecast(tick)

	snap := s.SnapshotNow(tick)
	s.broadcast(snap)

	s.logger.Debug().Time("tick", tick).
		Float64("value", sample.Value).
		Bool("anomaly", sample.Anomaly).
		Int("window", s.signalWin.Len()).
		Msg("sample recorded")

	if sample.Anomaly {
		s.maybeAlert(ctx, tick, sample, snap.Stats)
	}
	return nil
}

func (s *Service) maybeForecast(tick time.Time) {
	if s.forecaster == nil || s.salesWin == nil {
		return
	}

	s.mu.Lock()
	due := s.lastForecast.IsZero() || tick.Sub(s.lastForecast) >= s.forecastDue
	if due {
		s.lastForecast = tick
	}
	s.mu.Unlock()
	if !due {
		return
	}

	predicted := s.forecaster.Predict(s.salesWin.Snapshot(), tick)
	s.forecaster.Record(tick, predicted)
}

func (s *Service) maybeAlert(ctx context.Context, tick time.Time, sample model.Sample, stats window.Stats) {
	if !s.alertsOn || s.notifier == nil {
		return
	}

	s.mu.Lock()
	ok := s.lastAlert.IsZero() || tick.Sub(s.lastAlert) >= s.cooldown
	if ok {
		s.lastAlert = tick
	}
	s.mu.Unlock()
	if !ok {
		s.logger.Debug().Time("tick", tick).Msg("spike suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		At:        tick,
		Value:     sample.Value,
		Baseline:  stats.BaselineMean,
		Magnitude: sample.Value - stats.BaselineMean,
		Channels:  s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Time("tick", tick).Msg("failed to dispatch spike alert")
	}
}

// SnapshotNow assembles the current dashboard state.
func (s *Service) SnapshotNow(at time.Time) Snapshot {
	snap := Snapshot{
		At:      at.UTC(),
		Running: s.Running(),
		Params:  s.signal.Params(),
		Samples: s.signalWin.Snapshot(),
	}
	if s.scheduler != nil {
		snap.IntervalSeconds = s.scheduler.Interval().Seconds()
	}
	snap.Stats = window.ComputeStats(snap.Samples)

	if s.sales != nil && s.salesWin != nil {
		snap.HolidayMode = s.sales.HolidayMode()
		events := s.salesWin.Snapshot()
		stats := window.ComputeSalesStats(events, at)
		snap.SalesStats = &stats
		if len(events) > recentOrderCount {
			events = events[len(events)-recentOrderCount:]
		}
		snap.RecentOrders = events

		if s.forecaster != nil {
			res := s.forecaster.Evaluate(stats.RevenueLastMinute)
			snap.Forecast = &res
		}
	}
	return snap
}

// Pause freezes generation; the redraw loop keeps serving the frozen state.
func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		s.logger.Info().Msg("stream paused")
	}
}

// Resume restarts generation.
func (s *Service) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.running = true
		s.logger.Info().Msg("stream resumed")
	}
}

// Running reports whether samples are being generated.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// UpdateParams applies a live control update after validation. Partial
// updates are merged under the generator's lock so concurrent requests
// touching different knobs cannot overwrite each other.
func (s *Service) UpdateParams(update ParamsUpdate) error {
	if update.NoiseAmplitude != nil && *update.NoiseAmplitude < 0 {
		return fmt.Errorf("noise_amplitude cannot be negative")
	}
	if update.AnomalyProbability != nil && (*update.AnomalyProbability < 0 || *update.AnomalyProbability > 1) {
		return fmt.Errorf("anomaly_probability must be within [0,1]")
	}
	if update.Interval != nil {
		if *update.Interval < config.MinInterval || *update.Interval > config.MaxInterval {
			return fmt.Errorf("interval must be within [%s, %s]", config.MinInterval, config.MaxInterval)
		}
		if s.scheduler != nil {
			s.scheduler.SetInterval(*update.Interval)
		}
	}
	if update.HolidayMode != nil && s.sales != nil {
		s.sales.SetHolidayMode(*update.HolidayMode)
	}

	params := s.signal.Update(func(p generator.Params) generator.Params {
		if update.BaseLevel != nil {
			p.BaseLevel = *update.BaseLevel
		}
		if update.NoiseAmplitude != nil {
			p.NoiseAmplitude = *update.NoiseAmplitude
		}
		if update.AnomalyProbability != nil {
			p.AnomalyProbability = *update.AnomalyProbability
		}
		return p
	})
	s.logger.Info().
		Float64("base_level", params.BaseLevel).
		Float64("noise_amplitude", params.NoiseAmplitude).
		Float64("anomaly_probability", params.AnomalyProbability).
		Msg("parameters updated")
	return nil
}

// Subscribe registers a snapshot receiver. The returned cancel func must be
// called to release it. Slow receivers miss snapshots rather than stalling
// the redraw loop.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Service) broadcast(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
