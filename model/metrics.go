package model

import (
	"math/rand"
	"time"
)

// MetricWindowSize is the number of samples kept for the telemetry chart.
const MetricWindowSize = 20

// driftingScore is the drift value plotted when the witness layer reports drift.
const driftingScore = 80

// MetricSample is one point of the three-series telemetry chart.
type MetricSample struct {
	Time         time.Time `json:"time"`
	Optimization float64   `json:"optimization"`
	Resonance    float64   `json:"resonance"`
	Drift        float64   `json:"drift"`
}

// MetricWindow is a bounded rolling window of samples, oldest first.
type MetricWindow struct {
	samples []MetricSample
	size    int
	rng     *rand.Rand
}

// NewMetricWindow creates an empty window holding at most size samples.
// A nil rng uses a time-seeded source.
func NewMetricWindow(size int, rng *rand.Rand) *MetricWindow {
	if size <= 0 {
		size = MetricWindowSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MetricWindow{size: size, rng: rng}
}

// Push appends a sample, evicting the oldest when the window is full.
func (w *MetricWindow) Push(s MetricSample) {
	w.samples = append(w.samples, s)
	if len(w.samples) > w.size {
		w.samples = append([]MetricSample(nil), w.samples[len(w.samples)-w.size:]...)
	}
}

// Record derives a sample from a completed result and pushes it.
func (w *MetricWindow) Record(res Result, at time.Time) MetricSample {
	drift := w.rng.Float64() * 10
	if res.IsDrifting {
		drift = driftingScore
	}
	s := MetricSample{
		Time:         at,
		Optimization: ClampScore(res.ReflexConfidence),
		Resonance:    ClampScore(res.ResonanceScore),
		Drift:        drift,
	}
	w.Push(s)
	return s
}

// Bootstrap fills the window with n synthetic calm samples ending at now,
// one second apart.
func (w *MetricWindow) Bootstrap(n int, now time.Time) {
	for i := 0; i < n; i++ {
		w.Push(MetricSample{
			Time:         now.Add(-time.Duration(n-i) * time.Second),
			Optimization: 80 + w.rng.Float64()*10,
			Resonance:    95 + w.rng.Float64()*5,
			Drift:        w.rng.Float64() * 5,
		})
	}
}

// Samples returns a copy of the window contents, oldest first.
func (w *MetricWindow) Samples() []MetricSample {
	out := make([]MetricSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len reports how many samples are held.
func (w *MetricWindow) Len() int {
	return len(w.samples)
}
