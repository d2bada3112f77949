package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/alerting"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/config"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/forecast"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/generator"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/window"
)

type captureNotifier struct {
	mu    sync.Mutex
	notes []alerting.Notification
}

func (c *captureNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, note)
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

func testConfig() *config.Config {
	return &config.Config{
		Alerting: config.AlertingConfig{
			Enabled:  true,
			Cooldown: time.Minute,
			Channels: []string{"telegram"},
		},
		Forecast: config.ForecastConfig{Every: 30 * time.Second},
	}
}

func newTestService(cfg *config.Config, notifier alerting.Notifier, anomalyProb float64, withSales bool) *Service {
	signal := generator.NewSignal(generator.SignalOptions{
		BaseLevel:          100,
		NoiseAmplitude:     5,
		AnomalyProbability: anomalyProb,
		SpikeMin:           20,
		SpikeMax:           50,
		Seed:               1,
	}, zerolog.Nop())

	var sales *generator.Sales
	var salesWin *window.SalesWindow
	var fc *forecast.Forecaster
	if withSales {
		sales = generator.NewSales(generator.SalesOptions{HourlyRevenue: 30000, Seed: 1}, zerolog.Nop())
		salesWin = window.NewSales(200)
		fc = forecast.New(forecast.Options{
			BinSize:     10 * time.Second,
			Lookback:    10 * time.Minute,
			Horizon:     60 * time.Second,
			HistorySize: 20,
		}, zerolog.Nop())
	}

	return New(cfg, nil, signal, sales, window.New(100), salesWin, fc, notifier, zerolog.Nop())
}

func TestProcessTickAppendsAndBroadcasts(t *testing.T) {
	svc := newTestService(testConfig(), nil, 0, true)

	ch, cancel := svc.Subscribe()
	defer cancel()

	tick := time.Now().UTC()
	require.NoError(t, svc.ProcessTick(context.Background(), tick))

	select {
	case snap := <-ch:
		require.True(t, snap.Running)
		require.Len(t, snap.Samples, 1)
		require.NotNil(t, snap.SalesStats)
		require.NotEmpty(t, snap.RecentOrders)
		require.Equal(t, 1, snap.Stats.Count)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast snapshot")
	}
}

func TestPauseFreezesGeneration(t *testing.T) {
	svc := newTestService(testConfig(), nil, 0, false)

	tick := time.Now().UTC()
	require.NoError(t, svc.ProcessTick(context.Background(), tick))
	require.NoError(t, svc.ProcessTick(context.Background(), tick.Add(time.Second)))

	svc.Pause()
	require.False(t, svc.Running())

	ch, cancel := svc.Subscribe()
	defer cancel()

	require.NoError(t, svc.ProcessTick(context.Background(), tick.Add(2*time.Second)))

	// Paused ticks still redraw, but the window does not grow.
	select {
	case snap := <-ch:
		require.False(t, snap.Running)
		require.Len(t, snap.Samples, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast while paused")
	}

	svc.Resume()
	require.True(t, svc.Running())
	require.NoError(t, svc.ProcessTick(context.Background(), tick.Add(3*time.Second)))
	require.Len(t, svc.SnapshotNow(tick.Add(3*time.Second)).Samples, 3)
}

func TestSpikeAlertWithCooldown(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(testConfig(), notifier, 1, false)

	tick := time.Now().UTC()
	require.NoError(t, svc.ProcessTick(context.Background(), tick))
	require.Equal(t, 1, notifier.count())

	// Within cooldown: suppressed.
	require.NoError(t, svc.ProcessTick(context.Background(), tick.Add(10*time.Second)))
	require.Equal(t, 1, notifier.count())

	// Past cooldown: delivered again.
	require.NoError(t, svc.ProcessTick(context.Background(), tick.Add(2*time.Minute)))
	require.Equal(t, 2, notifier.count())
}

func TestUpdateParamsValidation(t *testing.T) {
	svc := newTestService(testConfig(), nil, 0, false)

	bad := -1.0
	require.Error(t, svc.UpdateParams(ParamsUpdate{NoiseAmplitude: &bad}))

	prob := 1.5
	require.Error(t, svc.UpdateParams(ParamsUpdate{AnomalyProbability: &prob}))

	tooFast := 100 * time.Millisecond
	require.Error(t, svc.UpdateParams(ParamsUpdate{Interval: &tooFast}))

	base := 250.0
	noise := 2.0
	require.NoError(t, svc.UpdateParams(ParamsUpdate{BaseLevel: &base, NoiseAmplitude: &noise}))

	snap := svc.SnapshotNow(time.Now().UTC())
	require.Equal(t, 250.0, snap.Params.BaseLevel)
	require.Equal(t, 2.0, snap.Params.NoiseAmplitude)
}

func TestUpdateParamsConcurrent(t *testing.T) {
	svc := newTestService(testConfig(), nil, 0, false)

	const iterations = 300
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i <= iterations; i++ {
			v := float64(i)
			_ = svc.UpdateParams(ParamsUpdate{NoiseAmplitude: &v})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i <= iterations; i++ {
			p := float64(i) / (2 * iterations)
			_ = svc.UpdateParams(ParamsUpdate{AnomalyProbability: &p})
		}
	}()
	wg.Wait()

	// Each goroutine touched a different knob; neither final write may be
	// clobbered by a stale merge from the other.
	params := svc.SnapshotNow(time.Now().UTC()).Params
	require.Equal(t, float64(iterations), params.NoiseAmplitude)
	require.InDelta(t, 0.5, params.AnomalyProbability, 1e-9)
}

func TestSubscribeCancelIdempotent(t *testing.T) {
	svc := newTestService(testConfig(), nil, 0, false)

	_, cancel := svc.Subscribe()
	cancel()
	cancel()

	// Broadcasting after cancel must not panic.
	require.NoError(t, svc.ProcessTick(context.Background(), time.Now().UTC()))
}
