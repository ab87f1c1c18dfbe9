// Package speech proxies audio to the external speech-to-text and
// text-to-speech providers. Each call is a single provider round-trip.
package speech

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MinAudioBytes is the smallest upload worth sending to the
// transcription provider; shorter recordings hold no usable speech.
const MinAudioBytes = 1000

var (
	// ErrNoSpeech means the provider answered but heard nothing.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrAudioTooShort rejects uploads below MinAudioBytes.
	ErrAudioTooShort = errors.New("audio too short")

	// ErrNoAudio means the synthesizer answered without audio.
	ErrNoAudio = errors.New("provider returned no audio")
)

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Synthesizer converts text to encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// RequestsTotal counts provider round-trips.
// Labels: provider (deepgram, murf), result (success, error)
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "accountable",
		Subsystem: "speech",
		Name:      "requests_total",
		Help:      "Total speech provider requests by provider and result",
	},
	[]string{"provider", "result"},
)

// RequestDuration tracks speech provider latency.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "accountable",
		Subsystem: "speech",
		Name:      "request_duration_seconds",
		Help:      "Duration of speech provider requests in seconds",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"provider"},
)

func observe(provider string, start time.Time, err error) {
	RequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	RequestsTotal.WithLabelValues(provider, result).Inc()
}
