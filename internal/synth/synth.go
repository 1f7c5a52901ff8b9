// Package synth is the polyphonic engine: it interprets MIDI, allocates and
// steals voices, runs the shared LFO and sums the voices into the output.
//
// Render runs on the audio thread and never allocates, locks or logs.
// Parameters are derived on the caller's thread by SetParameters and handed
// over as an immutable snapshot that Render picks up at the start of the
// next block.
package synth

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/jx11-go/internal/envelope"
	"github.com/cbegin/jx11-go/internal/lfo"
	"github.com/cbegin/jx11-go/internal/noise"
	"github.com/cbegin/jx11-go/internal/osc"
	"github.com/cbegin/jx11-go/internal/params"
	"github.com/cbegin/jx11-go/internal/safety"
	"github.com/cbegin/jx11-go/internal/voice"
)

const (
	MaxVoices = params.MaxVoices

	// Sustain is the note value of a voice held only by the sustain pedal.
	Sustain = voice.Sustained

	// Analog is the per-voice pitch offset in semitones.
	Analog = 0.002

	LFOMax = lfo.MaxStep

	DefaultSampleRate = 44100.0

	// levelRamp is the output level smoothing time in seconds.
	levelRamp = 0.05

	// filterSmoothing is the per-tick smoothing of the filter modulation.
	filterSmoothing = 0.005
)

// Stats counts events the audio thread cannot report by logging.
type Stats struct {
	Clamped      uint64 // buffers with overshoot clamped to [-1, 1]
	Silenced     uint64 // buffers zeroed by the safety stage
	VoicesStolen uint64 // note-ons that took over a sounding voice
}

type Synth struct {
	// Control side.
	mu         sync.Mutex
	values     params.Values
	sampleRate float64
	blockSize  int
	pending    atomic.Pointer[params.Derived]

	// Audio side.
	p         params.Derived
	voices    [MaxVoices]voice.Voice
	noise     noise.Generator
	lfo       lfo.LFO
	mod       voice.Modulation
	vibrato   float64 // oscillator modulation from the last LFO tick
	pwm       float64
	filterZip float64

	pitchBend    float64
	sustainPedal bool
	modWheel     float64
	pressure     float64
	filterCtl    float64
	resonanceCtl float64
	lastNote     int
	queue        [MaxVoices - 1]int // notes held under the sounding mono note, newest first

	level      float64
	levelStep  float64
	levelSteps int

	clamped      atomic.Uint64
	silenced     atomic.Uint64
	stolen       atomic.Uint64
	activeVoices atomic.Int32
}

// New returns an engine with default parameters, ready to render at
// DefaultSampleRate.
func New() *Synth {
	s := &Synth{values: params.Default()}
	s.AllocateResources(DefaultSampleRate, 0)
	s.Reset()
	return s
}

// AllocateResources prepares the engine for sampleRate. It must not run
// concurrently with Render. blockSize is the largest block the host will
// request and is only recorded.
func (s *Synth) AllocateResources(sampleRate float64, blockSize int) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	s.mu.Lock()
	s.sampleRate = sampleRate
	s.blockSize = blockSize
	d := params.Derive(s.values, sampleRate)
	s.mu.Unlock()

	s.pending.Store(nil)
	for i := range s.voices {
		s.voices[i].Init(sampleRate)
	}
	s.apply(&d)
}

// DeallocateResources stops all voices. The engine holds no resources
// beyond its own fields, so it can be reallocated at any time.
func (s *Synth) DeallocateResources() {
	for i := range s.voices {
		s.voices[i].Reset()
	}
	s.activeVoices.Store(0)
}

func (s *Synth) SampleRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

func (s *Synth) BlockSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockSize
}

// Reset silences every voice and returns the controllers to rest.
func (s *Synth) Reset() {
	for i := range s.voices {
		s.voices[i].Reset()
	}
	s.noise.Reset()
	s.lfo.Reset()
	s.pitchBend = 1
	s.sustainPedal = false
	s.modWheel = 0
	s.pressure = 0
	s.filterCtl = 0
	s.resonanceCtl = 1
	s.lastNote = 0
	s.queue = [MaxVoices - 1]int{}
	s.vibrato = 1
	s.pwm = 1
	s.filterZip = s.p.FilterKeyTracking
	s.level = s.p.OutputLevel
	s.levelSteps = 0
	s.activeVoices.Store(0)
}

// SetParameters derives engine coefficients from v and publishes them for
// the next Render. It is safe to call from any goroutine.
func (s *Synth) SetParameters(v params.Values) {
	s.mu.Lock()
	s.values = v
	d := params.Derive(v, s.sampleRate)
	s.mu.Unlock()
	s.pending.Store(&d)
}

// Parameters returns the values last passed to SetParameters.
func (s *Synth) Parameters() params.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

func (s *Synth) Stats() Stats {
	return Stats{
		Clamped:      s.clamped.Load(),
		Silenced:     s.silenced.Load(),
		VoicesStolen: s.stolen.Load(),
	}
}

// ActiveVoices returns the number of sounding voices at the end of the last
// Render.
func (s *Synth) ActiveVoices() int {
	return int(s.activeVoices.Load())
}

func (s *Synth) apply(d *params.Derived) {
	s.p = *d
	s.lfo.SetIncrement(d.LFOInc)
	steps := int(levelRamp * d.SampleRate)
	if steps < 1 || s.level == d.OutputLevel {
		s.level = d.OutputLevel
		s.levelSteps = 0
		return
	}
	s.levelStep = (d.OutputLevel - s.level) / float64(steps)
	s.levelSteps = steps
}

func (s *Synth) nextLevel() float64 {
	if s.levelSteps > 0 {
		s.levelSteps--
		s.level += s.levelStep
		if s.levelSteps == 0 {
			s.level = s.p.OutputLevel
		}
	}
	return s.level
}

// Render fills left and right with the next len(left) samples. right may be
// nil, in which case left receives the mono sum. Events must be applied
// between calls, never during one.
func (s *Synth) Render(left, right []float32) {
	if d := s.pending.Swap(nil); d != nil {
		s.apply(d)
	}
	n := len(left)
	if right != nil && len(right) < n {
		n = len(right)
	}

	s.mod.GlideRate = s.p.GlideRate
	s.mod.FilterQ = s.p.FilterQ * s.resonanceCtl
	s.mod.PitchBend = s.pitchBend
	s.mod.FilterEnvDepth = s.p.FilterEnvDepth
	for i := range s.voices {
		v := &s.voices[i]
		if v.Env.IsActive() {
			s.updatePeriod(v)
		}
	}

	for i := 0; i < n; i++ {
		s.updateLFO()
		in := s.noise.NextValue() * s.p.NoiseMix

		var l, r float64
		for j := range s.voices {
			v := &s.voices[j]
			if v.Env.IsActive() {
				out := v.Render(in)
				l += out * v.PanLeft
				r += out * v.PanRight
			}
		}

		level := s.nextLevel()
		l *= level
		r *= level
		if right != nil {
			left[i] = float32(l)
			right[i] = float32(r)
		} else {
			left[i] = float32((l + r) * 0.5)
		}
	}

	active := int32(0)
	for i := range s.voices {
		v := &s.voices[i]
		if v.Env.IsActive() {
			active++
		} else if v.Note != 0 || v.Env.Level != 0 {
			v.Reset()
		}
	}
	s.activeVoices.Store(active)

	s.protect(left[:n])
	if right != nil {
		s.protect(right[:n])
	}
}

func (s *Synth) protect(buf []float32) {
	switch safety.ProtectYourEars(buf) {
	case safety.Clamped:
		s.clamped.Add(1)
	case safety.Silenced:
		s.silenced.Add(1)
	}
}

func (s *Synth) updateLFO() {
	if !s.lfo.Tick() {
		return
	}
	sine := s.lfo.Sine()
	s.vibrato = 1 + sine*(s.modWheel+s.p.Vibrato)
	s.pwm = 1 + sine*(s.modWheel+s.p.PWMDepth)
	filterMod := s.p.FilterKeyTracking + s.filterCtl + (s.p.FilterLFODepth+s.pressure)*sine
	s.filterZip += filterSmoothing * (filterMod - s.filterZip)
	s.mod.FilterMod = s.filterZip

	for i := range s.voices {
		v := &s.voices[i]
		if v.Env.IsActive() {
			v.Osc.Primary.Modulation = s.vibrato
			v.Osc.Secondary.Modulation = s.pwm
			v.UpdateLFO(s.mod)
			s.updatePeriod(v)
		}
	}
}

func (s *Synth) updatePeriod(v *voice.Voice) {
	v.SetPitch(s.pitchBend, s.p.Detune)
	v.Osc.Primary.Period = osc.ClampPeriod(v.Osc.Primary.Period)
	v.Osc.Secondary.Period = osc.ClampPeriod(v.Osc.Secondary.Period)
}

// MidiMessages applies one channel message. The channel is ignored. Unknown
// statuses are dropped.
func (s *Synth) MidiMessages(status, data1, data2 byte) {
	switch status & 0xF0 {
	case 0x80:
		s.NoteOff(int(data1 & 0x7F))
	case 0x90:
		note := int(data1 & 0x7F)
		velocity := int(data2 & 0x7F)
		if velocity > 0 {
			s.NoteOn(note, velocity)
		} else {
			s.NoteOff(note)
		}
	case 0xB0:
		s.ControlChange(data1&0x7F, data2&0x7F)
	case 0xD0:
		p := float64(data1 & 0x7F)
		s.pressure = 0.0001 * p * p
	case 0xE0:
		bend := float64(int(data1&0x7F) + 128*int(data2&0x7F) - 8192)
		s.pitchBend = math.Exp(-0.000014102 * bend)
		s.mod.PitchBend = s.pitchBend
	}
}

// Controller numbers understood by ControlChange.
const (
	CCModWheel     = 0x01
	CCSustain      = 0x40
	CCResonance    = 0x47
	CCFilter       = 0x4A
	CCAllSoundOff  = 0x78 // this and every controller above it reset all voices
	sustainOnValue = 64
)

func (s *Synth) ControlChange(controller, value byte) {
	x := float64(value)
	switch controller {
	case CCModWheel:
		s.modWheel = 0.000005 * x * x
	case CCSustain:
		s.sustainPedal = value >= sustainOnValue
		if !s.sustainPedal {
			s.NoteOff(Sustain)
		}
	case CCResonance:
		s.resonanceCtl = 154 / (154 - x)
		s.mod.FilterQ = s.p.FilterQ * s.resonanceCtl
	case CCFilter:
		s.filterCtl = 0.02 * x
	default:
		if controller >= CCAllSoundOff {
			for i := range s.voices {
				s.voices[i].Reset()
			}
			s.queue = [MaxVoices - 1]int{}
			s.sustainPedal = false
		}
	}
}

// FindFreeVoice returns the quietest voice that is not in its attack
// segment. Idle voices have level 0 and win. If every voice is attacking it
// returns 0.
func (s *Synth) FindFreeVoice() int {
	best := 0
	level := 100.0
	for i := range s.voices {
		env := &s.voices[i].Env
		if env.Level < level && !env.IsInAttack() {
			level = env.Level
			best = i
		}
	}
	return best
}

// NoteOn starts note. In mono mode a note arriving while another is held
// takes over voice 0 without retriggering its envelopes.
func (s *Synth) NoteOn(note, velocity int) {
	if s.p.IgnoreVelocity {
		velocity = 80
	}
	index := 0
	if s.p.NumVoices == 1 {
		if s.voices[0].Note > 0 {
			s.pushQueue(s.voices[0].Note)
			s.restartMonoVoice(note, velocity)
			return
		}
	} else {
		index = s.FindFreeVoice()
	}
	if s.voices[index].Env.IsActive() {
		s.stolen.Add(1)
	}
	s.StartVoice(index, note, velocity)
}

// NoteOff releases every voice playing note, or marks it as sustained while
// the pedal is down. In mono mode releasing the sounding note returns to the
// most recent note still held.
func (s *Synth) NoteOff(note int) {
	if note > 0 {
		s.removeQueued(note)
		if s.p.NumVoices == 1 && s.voices[0].Note == note {
			if queued := s.popQueue(); queued > 0 {
				s.restartMonoVoice(queued, -1)
				return
			}
		}
	}
	for i := range s.voices {
		v := &s.voices[i]
		if v.Note != note {
			continue
		}
		if s.sustainPedal {
			v.Note = Sustain
		} else {
			v.NoteOff()
			v.Note = 0
		}
	}
}

func (s *Synth) calcPeriod(index, note int) float64 {
	period := params.NotePeriod(s.p.Tune, float64(note), Analog*float64(index))
	for period < osc.MinPeriod || period*s.p.Detune < osc.MinPeriod {
		period += period
	}
	return period
}

func (s *Synth) playingLegato() bool {
	for i := range s.voices {
		if s.voices[i].Note > 0 {
			return true
		}
	}
	return false
}

// StartVoice triggers voice index with note and velocity.
func (s *Synth) StartVoice(index, note, velocity int) {
	period := s.calcPeriod(index, note)
	v := &s.voices[index]
	v.Target = period

	distance := 0
	if s.lastNote > 0 {
		if s.p.GlideMode == params.GlideAlways || (s.p.GlideMode == params.GlideLegato && s.playingLegato()) {
			distance = note - s.lastNote
		}
	}
	v.Period = period * math.Pow(1.059463094359, float64(distance)-s.p.GlideBend)
	if v.Period < osc.MinPeriod {
		v.Period = osc.MinPeriod
	}

	s.lastNote = note
	v.Note = note
	v.Velocity = velocity
	v.Update()

	vel := float64(velocity + 64)
	gain := 0.004*vel*vel - 8
	v.Osc.Primary.Amplitude = s.p.VolumeTrim * gain
	v.Osc.Secondary.Amplitude = v.Osc.Primary.Amplitude * s.p.OscMix

	v.Osc.Primary.Modulation = s.vibrato
	v.Osc.Secondary.Modulation = s.pwm
	if s.p.Vibrato == 0 && s.p.PWMDepth > 0 {
		v.Osc.AlignSquare(v.Period)
	}

	v.Cutoff = s.p.SampleRate / (period * math.Pi)
	v.Cutoff *= math.Exp(s.p.VelocitySensitivity * float64(velocity-64))

	s.p.Env.Configure(&v.Env)
	v.Env.Attack()
	s.p.FilterEnv.Configure(&v.FilterEnv)
	v.FilterEnv.Attack()

	s.updatePeriod(v)
	v.UpdateLFO(s.modulation())
}

func (s *Synth) modulation() voice.Modulation {
	m := s.mod
	m.GlideRate = 0
	m.FilterQ = s.p.FilterQ * s.resonanceCtl
	m.PitchBend = s.pitchBend
	m.FilterEnvDepth = s.p.FilterEnvDepth
	m.FilterMod = s.filterZip
	return m
}

// restartMonoVoice retunes voice 0 for a legato note change. velocity < 0
// keeps the previous cutoff scaling.
func (s *Synth) restartMonoVoice(note, velocity int) {
	period := s.calcPeriod(0, note)
	v := &s.voices[0]
	v.Target = period
	if s.p.GlideMode == params.GlideOff {
		v.Period = period
	}
	v.Env.Level += 2 * envelope.Silence
	v.Note = note
	v.Update()

	v.Cutoff = s.p.SampleRate / (period * math.Pi)
	if velocity > 0 {
		v.Velocity = velocity
		v.Cutoff *= math.Exp(s.p.VelocitySensitivity * float64(velocity-64))
	}
	s.lastNote = note
}

func (s *Synth) pushQueue(note int) {
	copy(s.queue[1:], s.queue[:len(s.queue)-1])
	s.queue[0] = note
}

func (s *Synth) popQueue() int {
	for i, n := range s.queue {
		if n > 0 {
			s.queue[i] = 0
			return n
		}
	}
	return 0
}

func (s *Synth) removeQueued(note int) {
	for i, n := range s.queue {
		if n == note {
			s.queue[i] = 0
		}
	}
}
