package generator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// SignalOptions parameterise the activity signal.
type SignalOptions struct {
	BaseLevel          float64
	NoiseAmplitude     float64
	AnomalyProbability float64
	SpikeMin           float64
	SpikeMax           float64
	TrendEnabled       bool
	TrendAmplitude     float64
	TrendSpeed         float64
	DriftPerSecond     float64
	Seed               int64
}

// Params are the runtime-adjustable knobs of the signal.
type Params struct {
	BaseLevel          float64 `json:"base_level"`
	NoiseAmplitude     float64 `json:"noise_amplitude"`
	AnomalyProbability float64 `json:"anomaly_probability"`
}

// Signal synthesises a user-activity stream: a base level with an optional
// slow trend, bounded gaussian noise, and occasional spikes marked as
// anomalies.
type Signal struct {
	mu      sync.Mutex
	params  Params
	opts    SignalOptions
	rng     *rand.Rand
	started time.Time
	logger  zerolog.Logger
}

// NewSignal builds a signal generator. A zero seed picks a time-based one.
func NewSignal(opts SignalOptions, logger zerolog.Logger) *Signal {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Signal{
		params: Params{
			BaseLevel:          opts.BaseLevel,
			NoiseAmplitude:     opts.NoiseAmplitude,
			AnomalyProbability: opts.AnomalyProbability,
		},
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
		started: time.Now().UTC(),
		logger:  logging.Component(logger, "signal_generator"),
	}
}

// Next produces the sample for the given tick time.
func (s *Signal) Next(now time.Time) model.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.params.BaseLevel

	if s.opts.TrendEnabled {
		elapsed := now.Sub(s.started).Seconds()
		value += s.opts.TrendAmplitude * math.Sin(elapsed*s.opts.TrendSpeed)
		value += s.opts.DriftPerSecond * elapsed
	}

	value += s.noise()

	sample := model.Sample{Timestamp: now.UTC(), Value: value}

	if s.params.AnomalyProbability > 0 && s.rng.Float64() < s.params.AnomalyProbability {
		spike := s.opts.SpikeMin
		if s.opts.SpikeMax > s.opts.SpikeMin {
			spike += s.rng.Float64() * (s.opts.SpikeMax - s.opts.SpikeMin)
		}
		sample.Value += spike
		sample.Anomaly = true
		s.logger.Debug().Time("ts", sample.Timestamp).Float64("spike", spike).Msg("anomaly injected")
	}

	sample.Value = math.Round(sample.Value*100) / 100
	return sample
}

// noise draws gaussian noise truncated to the configured amplitude so the
// signal stays inside its documented envelope. Caller holds the mutex.
func (s *Signal) noise() float64 {
	amp := s.params.NoiseAmplitude
	if amp <= 0 {
		return 0
	}
	g := s.rng.NormFloat64() * (amp / 2)
	if g > amp {
		return amp
	}
	if g < -amp {
		return -amp
	}
	return g
}

// SetParams applies a live parameter update.
func (s *Signal) SetParams(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// Update applies fn to the current parameters under the generator's lock,
// so concurrent partial updates cannot overwrite each other. It returns the
// resulting parameters.
func (s *Signal) Update(fn func(Params) Params) Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = fn(s.params)
	return s.params
}

// Params returns the current runtime parameters.
func (s *Signal) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

var _ SignalSource = (*Signal)(nil)
