package generator

import (
	"math"
	"sync"
	"testing"
	"testing/quick"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestSignalEnvelopeWithoutSpikes(t *testing.T) {
	gen := NewSignal(SignalOptions{
		BaseLevel:          100,
		NoiseAmplitude:     5,
		AnomalyProbability: 0,
		Seed:               1,
	}, noopLogger())

	now := time.Now().UTC()
	for i := 0; i < 5000; i++ {
		sample := gen.Next(now.Add(time.Duration(i) * time.Second))
		require.False(t, sample.Anomaly, "no anomalies expected with zero probability")
		require.GreaterOrEqual(t, sample.Value, 95.0)
		require.LessOrEqual(t, sample.Value, 105.0)
	}
}

func TestSignalEnvelopeProperty(t *testing.T) {
	property := func(base float64, noise float64, seed int64) bool {
		if math.IsNaN(base) || math.IsInf(base, 0) || math.Abs(base) > 1e6 {
			return true
		}
		if math.IsNaN(noise) || noise < 0 || noise > 1e3 {
			return true
		}
		if seed == 0 {
			seed = 1
		}

		gen := NewSignal(SignalOptions{
			BaseLevel:      base,
			NoiseAmplitude: noise,
			Seed:           seed,
		}, noopLogger())

		now := time.Now().UTC()
		for i := 0; i < 200; i++ {
			v := gen.Next(now.Add(time.Duration(i) * time.Second)).Value
			// Rounding to two decimals may nudge a boundary value.
			if v < base-noise-0.01 || v > base+noise+0.01 {
				return false
			}
		}
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 50}); err != nil {
		t.Fatal(err)
	}
}

func TestSignalSpikeAlwaysMarked(t *testing.T) {
	gen := NewSignal(SignalOptions{
		BaseLevel:          100,
		NoiseAmplitude:     5,
		AnomalyProbability: 1,
		SpikeMin:           20,
		SpikeMax:           50,
		Seed:               7,
	}, noopLogger())

	now := time.Now().UTC()
	for i := 0; i < 1000; i++ {
		sample := gen.Next(now.Add(time.Duration(i) * time.Second))
		require.True(t, sample.Anomaly)
		require.GreaterOrEqual(t, sample.Value, 95.0+20.0)
		require.LessOrEqual(t, sample.Value, 105.0+50.0)
	}
}

func TestSignalAnomalyRateConverges(t *testing.T) {
	const probability = 0.05
	gen := NewSignal(SignalOptions{
		BaseLevel:          50,
		NoiseAmplitude:     5,
		AnomalyProbability: probability,
		SpikeMin:           20,
		SpikeMax:           50,
		Seed:               42,
	}, noopLogger())

	const n = 20000
	anomalies := 0
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		if gen.Next(now.Add(time.Duration(i) * time.Second)).Anomaly {
			anomalies++
		}
	}

	rate := float64(anomalies) / float64(n)
	require.InDelta(t, probability, rate, 0.01, "empirical rate should converge to configured probability")
}

func TestSignalSetParams(t *testing.T) {
	gen := NewSignal(SignalOptions{
		BaseLevel:      50,
		NoiseAmplitude: 5,
		Seed:           3,
	}, noopLogger())

	gen.SetParams(Params{BaseLevel: 200, NoiseAmplitude: 0, AnomalyProbability: 0})
	sample := gen.Next(time.Now().UTC())
	require.Equal(t, 200.0, sample.Value)
	require.Equal(t, Params{BaseLevel: 200, NoiseAmplitude: 0, AnomalyProbability: 0}, gen.Params())
}

func TestSignalUpdateIsAtomic(t *testing.T) {
	gen := NewSignal(SignalOptions{
		BaseLevel:      0,
		NoiseAmplitude: 5,
		Seed:           3,
	}, noopLogger())

	const (
		workers    = 8
		iterations = 500
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				gen.Update(func(p Params) Params {
					p.BaseLevel++
					return p
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, float64(workers*iterations), gen.Params().BaseLevel,
		"every read-modify-write must land")
}

func TestSignalTrendStaysWithinAmplitude(t *testing.T) {
	gen := NewSignal(SignalOptions{
		BaseLevel:      100,
		TrendEnabled:   true,
		TrendAmplitude: 10,
		TrendSpeed:     0.5,
		Seed:           9,
	}, noopLogger())

	now := time.Now().UTC()
	for i := 0; i < 500; i++ {
		v := gen.Next(now.Add(time.Duration(i) * time.Second)).Value
		require.GreaterOrEqual(t, v, 90.0-0.01)
		require.LessOrEqual(t, v, 110.0+0.01)
	}
}
