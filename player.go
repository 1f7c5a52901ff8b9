// Package jx11 plays a polyphonic subtractive synthesizer in real time and
// renders it offline.
package jx11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/gomidi/midi/v2"

	intaudio "github.com/cbegin/jx11-go/internal/audio"
	"github.com/cbegin/jx11-go/internal/events"
	"github.com/cbegin/jx11-go/internal/params"
	"github.com/cbegin/jx11-go/internal/synth"
)

// Params is the user-facing parameter set.
type Params = params.Values

// Message is a sample-stamped MIDI message.
type Message = events.Message

// Backend selects the real-time audio output.
type Backend = intaudio.Backend

const (
	BackendEbiten = intaudio.BackendEbiten
	BackendOto    = intaudio.BackendOto
)

const (
	DefaultBlockSize = 256
	liveQueueSize    = 1024
)

// DefaultParams returns the factory patch.
func DefaultParams() Params {
	return params.Default()
}

// Stats reports engine counters plus what the player itself dropped.
type Stats struct {
	synth.Stats
	ActiveVoices    int
	DroppedMessages uint64 // live messages lost to a full queue
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend   Backend
	logger    *slog.Logger
	values    Params
	blockSize int
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		backend:   BackendEbiten,
		logger:    slog.Default(),
		values:    params.Default(),
		blockSize: DefaultBlockSize,
	}
}

func WithBackend(b Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = b
	}
}

// WithLogger sets the logger for lifecycle and control events. Nothing is
// logged from the audio thread.
func WithLogger(l *slog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func WithParams(v Params) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.values = v
	}
}

// WithBlockSize sets the largest block rendered between live message
// checks. Smaller blocks lower MIDI latency at some CPU cost.
func WithBlockSize(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = n
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player owns one engine and its audio output. Control methods are safe for
// concurrent use.
type Player struct {
	mu         sync.Mutex
	log        *slog.Logger
	sampleRate int
	backend    Backend
	engine     *synth.Synth
	render     *renderer
	out        intaudio.Output

	sendMu  sync.Mutex // the live queue takes one producer at a time
	queue   *events.Queue
	dropped atomic.Uint64
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	backend, err := intaudio.ParseBackend(string(cfg.backend))
	if err != nil {
		return nil, err
	}
	if cfg.blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", cfg.blockSize)
	}

	engine := newEngine(cfg.values, sampleRate, cfg.blockSize)
	queue := events.NewQueue(liveQueueSize)
	r := newRenderer(engine, queue, cfg.blockSize)
	r.tap = cfg.sampleTap

	cfg.logger.Debug("engine allocated",
		"sample_rate", sampleRate,
		"block_size", cfg.blockSize,
		"backend", string(backend),
		"poly", cfg.values.PolyMode == params.Poly)
	return &Player{
		log:        cfg.logger,
		sampleRate: sampleRate,
		backend:    backend,
		engine:     engine,
		render:     r,
		queue:      queue,
	}, nil
}

func newEngine(v Params, sampleRate, blockSize int) *synth.Synth {
	engine := synth.New()
	engine.SetParameters(v.Clamped())
	engine.AllocateResources(float64(sampleRate), blockSize)
	engine.Reset()
	return engine
}

func (p *Player) SampleRate() int  { return p.sampleRate }
func (p *Player) Backend() Backend { return p.backend }

// Start opens the audio output on first use and resumes it.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		out, err := intaudio.Open(p.backend, p.sampleRate, p.render)
		if err != nil {
			return fmt.Errorf("open %s output: %w", p.backend, err)
		}
		p.out = out
		p.log.Info("audio started", "backend", string(p.backend), "sample_rate", p.sampleRate)
	}
	p.out.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil && p.out.IsPlaying()
}

// Stop closes the audio output. The player can be started again.
func (p *Player) Stop() error {
	p.mu.Lock()
	out := p.out
	p.out = nil
	p.mu.Unlock()
	if out == nil {
		return nil
	}
	err := out.Stop()
	st := p.Stats()
	p.log.Info("audio stopped",
		"clamped_buffers", st.Clamped,
		"silenced_buffers", st.Silenced,
		"voices_stolen", st.VoicesStolen,
		"dropped_messages", st.DroppedMessages)
	return err
}

// Play schedules msgs, stamped in samples from now, replacing any schedule
// still running. The returned channel closes tail after the last message,
// or when another Play replaces this one. The output must be started for
// time to advance.
func (p *Player) Play(msgs []Message, tail time.Duration) <-chan struct{} {
	s := newSchedule(msgs, int64(tail.Seconds()*float64(p.sampleRate)))
	done := s.done
	if old := p.render.incoming.Swap(s); old != nil {
		old.finish()
	}
	p.log.Debug("schedule queued", "messages", len(msgs), "seconds", float64(s.end)/float64(p.sampleRate))
	return done
}

// SendMIDI queues msg for the start of the next audio block. It reports
// false when the message was dropped: too long for the engine, or the
// queue was full.
func (p *Player) SendMIDI(msg midi.Message) bool {
	m := events.FromMIDI(0, msg)
	if !m.Applicable() {
		p.log.Debug("midi message ignored", "len", m.Len)
		return false
	}
	return p.send(m)
}

func (p *Player) send(m events.Message) bool {
	p.sendMu.Lock()
	ok := p.queue.Push(m)
	p.sendMu.Unlock()
	if !ok {
		if p.dropped.Add(1) == 1 {
			p.log.Warn("live MIDI queue full, dropping messages", "capacity", p.queue.Cap())
		}
	}
	return ok
}

func (p *Player) NoteOn(key, velocity uint8) bool {
	return p.send(events.NoteOn(0, 0, key, velocity))
}

func (p *Player) NoteOff(key uint8) bool {
	return p.send(events.NoteOff(0, 0, key))
}

func (p *Player) ControlChange(controller, value uint8) bool {
	return p.send(events.ControlChange(0, 0, controller, value))
}

// PitchBend takes a signed bend in -8192..8191.
func (p *Player) PitchBend(value int16) bool {
	return p.send(events.PitchBend(0, 0, value))
}

// Panic silences every voice and releases the sustain pedal.
func (p *Player) Panic() bool {
	p.log.Info("panic")
	return p.ControlChange(synth.CCAllSoundOff, 0)
}

// SetParams publishes v to the engine. Out-of-range values are clamped.
func (p *Player) SetParams(v Params) {
	v = v.Clamped()
	p.engine.SetParameters(v)
	p.log.Debug("parameters published", "poly", v.PolyMode == params.Poly, "output_db", v.OutputLevel)
}

func (p *Player) Params() Params {
	return p.engine.Parameters()
}

// SetParam changes one parameter by id.
func (p *Player) SetParam(id string, x float64) error {
	v := p.engine.Parameters()
	if err := v.Set(id, x); err != nil {
		return err
	}
	p.engine.SetParameters(v)
	p.log.Debug("parameter set", "id", id, "value", x)
	return nil
}

func (p *Player) Stats() Stats {
	return Stats{
		Stats:           p.engine.Stats(),
		ActiveVoices:    p.engine.ActiveVoices(),
		DroppedMessages: p.dropped.Load(),
	}
}
