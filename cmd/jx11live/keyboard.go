package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/cbegin/jx11-go"
)

// Two rows of a QWERTY keyboard laid out like a piano, starting at C.
const pianoKeys = "awsedftgyhujkolp;'"

const (
	defaultOctave   = 4
	defaultVelocity = 100
	// Terminals report key presses only, so a note is held for gate after
	// the last repeat of its key.
	gate = 400 * time.Millisecond
)

type action int

const (
	actionNone action = iota
	actionNote
	actionOctaveDown
	actionOctaveUp
	actionSofter
	actionLouder
	actionPanic
	actionQuit
)

// decodeKey maps one input byte to an action. For actionNote, n is the
// offset in semitones from C of the current octave.
func decodeKey(b byte) (a action, n int) {
	if i := strings.IndexByte(pianoKeys, b); i >= 0 {
		return actionNote, i
	}
	switch b {
	case 'z':
		return actionOctaveDown, 0
	case 'x':
		return actionOctaveUp, 0
	case 'c':
		return actionSofter, 0
	case 'v':
		return actionLouder, 0
	case ' ':
		return actionPanic, 0
	case 'q', 0x03:
		return actionQuit, 0
	}
	return actionNone, 0
}

// keyboard turns raw terminal input into note messages.
type keyboard struct {
	fd  int
	old *term.State
	pl  *jx11.Player
	log *slog.Logger

	mu       sync.Mutex
	octave   int
	velocity int
	held     map[uint8]hold
	seq      uint64
}

type hold struct {
	id    uint64
	timer *time.Timer
}

func newKeyboard(pl *jx11.Player, logger *slog.Logger) *keyboard {
	return &keyboard{
		pl:       pl,
		log:      logger,
		octave:   defaultOctave,
		velocity: defaultVelocity,
		held:     map[uint8]hold{},
	}
}

// startKeyboard puts the terminal in raw mode and reads keys until quit is
// requested, which closes quit.
func startKeyboard(pl *jx11.Player, quit chan struct{}, logger *slog.Logger) (*keyboard, error) {
	k := newKeyboard(pl, logger)
	k.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(k.fd) {
		return nil, fmt.Errorf("-keys needs a terminal on stdin")
	}
	old, err := term.MakeRaw(k.fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	k.old = old
	fmt.Print("keys: a w s e d f t g y h u j k o l p ; '  octave z/x  velocity c/v  panic space  quit q\r\n")

	go func() {
		defer close(quit)
		buf := make([]byte, 16)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			for _, b := range buf[:n] {
				if !k.handle(b) {
					return
				}
			}
		}
	}()
	return k, nil
}

// handle applies one key and reports whether to keep reading.
func (k *keyboard) handle(b byte) bool {
	a, n := decodeKey(b)
	k.mu.Lock()
	defer k.mu.Unlock()
	switch a {
	case actionNote:
		note := 12*(k.octave+1) + n
		if note > 127 {
			return true
		}
		k.press(uint8(note))
	case actionOctaveDown:
		k.octave = max(k.octave-1, 0)
		k.log.Debug("octave", "octave", k.octave)
	case actionOctaveUp:
		k.octave = min(k.octave+1, 9)
		k.log.Debug("octave", "octave", k.octave)
	case actionSofter:
		k.velocity = max(k.velocity-16, 1)
		k.log.Debug("velocity", "velocity", k.velocity)
	case actionLouder:
		k.velocity = min(k.velocity+16, 127)
		k.log.Debug("velocity", "velocity", k.velocity)
	case actionPanic:
		k.releaseAll()
		k.pl.Panic()
	case actionQuit:
		return false
	}
	return true
}

// press starts note, or extends it when its key is repeating. k.mu is held.
func (k *keyboard) press(note uint8) {
	if h, ok := k.held[note]; ok && h.timer.Stop() {
		h.timer.Reset(gate)
		return
	}
	k.pl.NoteOn(note, uint8(k.velocity))
	k.seq++
	id := k.seq
	k.held[note] = hold{id: id, timer: time.AfterFunc(gate, func() { k.release(note, id) })}
}

func (k *keyboard) release(note uint8, id uint64) {
	k.mu.Lock()
	h, ok := k.held[note]
	if ok && h.id == id {
		delete(k.held, note)
	}
	k.mu.Unlock()
	if ok && h.id == id {
		k.pl.NoteOff(note)
	}
}

// releaseAll forgets held notes without sending note offs. k.mu is held.
func (k *keyboard) releaseAll() {
	for note, h := range k.held {
		h.timer.Stop()
		delete(k.held, note)
	}
}

// Stop releases held notes and restores the terminal.
func (k *keyboard) Stop() {
	k.mu.Lock()
	k.releaseAll()
	k.mu.Unlock()
	if k.old != nil {
		_ = term.Restore(k.fd, k.old)
		k.old = nil
	}
}
