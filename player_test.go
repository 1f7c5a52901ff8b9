package jx11

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/cbegin/jx11-go/internal/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPlayer(t *testing.T, opts ...PlayerOption) *Player {
	t.Helper()
	pl, err := NewPlayer(48000, append([]PlayerOption{WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	return pl
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestNewPlayerValidates(t *testing.T) {
	if _, err := NewPlayer(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := NewPlayer(48000, WithBackend("jack")); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := NewPlayer(48000, WithBlockSize(0)); err == nil {
		t.Fatal("expected error for zero block size")
	}
	pl := newTestPlayer(t, WithBackend("OTO"))
	if pl.Backend() != BackendOto {
		t.Fatalf("backend = %q", pl.Backend())
	}
}

func TestLiveMIDIReachesEngine(t *testing.T) {
	var tapped int
	pl := newTestPlayer(t, WithBlockSize(64), WithSampleTap(func(buf []float32) { tapped += len(buf) }))
	if !pl.SendMIDI(midi.NoteOn(0, 69, 100)) {
		t.Fatal("SendMIDI dropped a note on")
	}
	buf := make([]float32, 2*1000)
	pl.render.Process(buf)
	if peakOf(buf) == 0 {
		t.Fatal("no sound after note on")
	}
	if tapped != len(buf) {
		t.Fatalf("tap saw %d samples, want %d", tapped, len(buf))
	}
	if got := pl.Stats().ActiveVoices; got != 1 {
		t.Fatalf("active voices = %d, want 1", got)
	}

	pl.Panic()
	pl.render.Process(buf)
	if got := pl.Stats().ActiveVoices; got != 0 {
		t.Fatalf("active voices after panic = %d", got)
	}
}

func TestSendMIDIRejectsLongMessages(t *testing.T) {
	pl := newTestPlayer(t)
	if pl.SendMIDI(midi.SysEx([]byte{0x7E, 0x7F, 0x09, 0x01})) {
		t.Fatal("sysex accepted")
	}
	if pl.queue.Len() != 0 {
		t.Fatal("sysex queued")
	}
}

func TestSendCountsDrops(t *testing.T) {
	pl := newTestPlayer(t)
	extra := 10
	for i := 0; i < pl.queue.Cap()+extra; i++ {
		pl.NoteOff(60)
	}
	if got := pl.Stats().DroppedMessages; got != uint64(extra) {
		t.Fatalf("dropped = %d, want %d", got, extra)
	}
}

func TestPlayScheduleCompletes(t *testing.T) {
	pl := newTestPlayer(t, WithBlockSize(128))
	done := pl.Play([]Message{
		events.NoteOn(0, 0, 60, 100),
		events.NoteOff(100, 0, 60),
	}, 10*time.Millisecond) // 480 samples of tail
	buf := make([]float32, 2*500)
	pl.render.Process(buf)
	if closed(done) {
		t.Fatal("done before the tail elapsed")
	}
	if peakOf(buf) == 0 {
		t.Fatal("scheduled note not heard")
	}
	pl.render.Process(buf)
	if !closed(done) {
		t.Fatal("done not closed after the tail")
	}
}

func TestPlayReplacesSchedule(t *testing.T) {
	pl := newTestPlayer(t)
	first := pl.Play([]Message{events.NoteOn(0, 0, 60, 100)}, time.Second)
	second := pl.Play(nil, 0)
	if !closed(first) {
		t.Fatal("replaced schedule not closed")
	}
	if closed(second) {
		t.Fatal("new schedule closed before rendering")
	}
	pl.render.Process(make([]float32, 2*16))
	if !closed(second) {
		t.Fatal("empty schedule not finished after one block")
	}
}

func TestSetParam(t *testing.T) {
	pl := newTestPlayer(t)
	if err := pl.SetParam("outputLevel", -12); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if got := pl.Params().OutputLevel; got != -12 {
		t.Fatalf("OutputLevel = %v", got)
	}
	if err := pl.SetParam("nope", 1); err == nil {
		t.Fatal("expected error for unknown id")
	}
	v := DefaultParams()
	v.Noise = 500
	pl.SetParams(v)
	if got := pl.Params().Noise; got != 100 {
		t.Fatalf("Noise = %v, want clamped to 100", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	pl := newTestPlayer(t)
	if err := pl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if pl.IsPlaying() {
		t.Fatal("IsPlaying before Start")
	}
}
