package app

import (
	"context"
	"errors"
	"time"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/generator"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/service"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/window"
)

// warmupTicks is how many baseline samples precede the forced spike.
const warmupTicks = 5

// SimulateSpike forces a single anomalous sample through the alerting path so
// channel wiring can be verified without waiting for a real spike.
func (a *App) SimulateSpike(ctx context.Context, magnitude float64) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	gen := a.Config.Generator
	signal := generator.NewSignal(generator.SignalOptions{
		BaseLevel:          gen.BaseLevel,
		NoiseAmplitude:     gen.NoiseAmplitude,
		AnomalyProbability: 0,
		SpikeMin:           magnitude,
		SpikeMax:           magnitude,
		Seed:               gen.Seed,
	}, a.Logger)

	svc := service.New(
		a.Config,
		nil,
		signal,
		nil,
		window.New(a.Config.Window.SignalCapacity),
		nil,
		nil,
		notifier,
		a.Logger,
	)

	// Warm the window with normal samples first so the alert reports the
	// spike against a real baseline instead of a single-sample mean.
	now := time.Now().UTC()
	for i := warmupTicks; i > 0; i-- {
		if err := svc.ProcessTick(ctx, now.Add(-time.Duration(i)*time.Second)); err != nil {
			return err
		}
	}

	signal.Update(func(p generator.Params) generator.Params {
		p.AnomalyProbability = 1
		return p
	})
	return svc.ProcessTick(ctx, now)
}
