package audio

import (
	"fmt"
	"strings"
	"time"
)

// Backend names a real-time output implementation.
type Backend string

const (
	// BackendEbiten plays through ebiten's audio context.
	BackendEbiten Backend = "ebiten"
	// BackendOto drives an oto context directly.
	BackendOto Backend = "oto"
)

// ParseBackend accepts a backend name in any case. An empty name selects
// BackendEbiten.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(BackendEbiten):
		return BackendEbiten, nil
	case string(BackendOto):
		return BackendOto, nil
	default:
		return "", fmt.Errorf("audio: unknown backend %q (expected ebiten|oto)", name)
	}
}

// Output is a started or paused stream on one backend.
//
// Both backends own a single process-wide device context created at the
// first sample rate requested; later requests must use the same rate, and
// a process should stick to one backend.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	Stop() error
}

// Open creates a paused output for source on backend.
func Open(backend Backend, sampleRate int, source SampleSource) (Output, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: sample rate must be positive, got %d", sampleRate)
	}
	switch backend {
	case BackendEbiten, "":
		return NewPlayer(sampleRate, source)
	case BackendOto:
		return NewOtoPlayer(sampleRate, source, defaultOtoBuffer)
	default:
		return nil, fmt.Errorf("audio: unknown backend %q", backend)
	}
}

const defaultOtoBuffer = 40 * time.Millisecond
