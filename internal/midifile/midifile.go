// Package midifile loads Standard MIDI Files as sample-stamped messages for
// offline rendering and playback.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/jx11-go/internal/events"
)

// Song is the channel-voice content of a MIDI file.
type Song struct {
	Messages   []events.Message // sorted by Offset, in samples from the start
	SampleRate float64
	Tracks     int
}

// Length returns the offset of the last message.
func (s *Song) Length() int64 {
	if len(s.Messages) == 0 {
		return 0
	}
	return s.Messages[len(s.Messages)-1].Offset
}

// Seconds returns Length in seconds.
func (s *Song) Seconds() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Length()) / s.SampleRate
}

// Load reads the file at path.
func Load(path string, sampleRate float64) (*Song, error) {
	if sampleRate <= 0 {
		return nil, errors.New("midifile: sample rate must be positive")
	}
	song, err := collect(smf.ReadTracks(path), sampleRate)
	if err != nil {
		return nil, fmt.Errorf("midifile: %s: %w", path, err)
	}
	return song, nil
}

// Read reads a file from r.
func Read(r io.Reader, sampleRate float64) (*Song, error) {
	if sampleRate <= 0 {
		return nil, errors.New("midifile: sample rate must be positive")
	}
	song, err := collect(smf.ReadTracksFrom(r), sampleRate)
	if err != nil {
		return nil, fmt.Errorf("midifile: %w", err)
	}
	return song, nil
}

func collect(tr *smf.TracksReader, sampleRate float64) (*Song, error) {
	song := &Song{SampleRate: sampleRate}
	tracks := map[int]bool{}
	tr.Do(func(te smf.TrackEvent) {
		b := []byte(te.Message)
		if len(b) == 0 || b[0] < 0x80 || b[0] >= 0xF0 {
			return
		}
		tracks[te.TrackNo] = true
		offset := int64(math.Round(float64(te.AbsMicroSeconds) * sampleRate / 1e6))
		song.Messages = append(song.Messages, events.FromBytes(offset, b))
	})
	if err := tr.Error(); err != nil {
		return nil, err
	}
	song.Tracks = len(tracks)
	sort.SliceStable(song.Messages, func(i, j int) bool {
		return song.Messages[i].Offset < song.Messages[j].Offset
	})
	return song, nil
}
