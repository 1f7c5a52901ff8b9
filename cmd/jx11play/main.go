package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/cbegin/jx11-go"
	"github.com/cbegin/jx11-go/internal/analysis"
	"github.com/cbegin/jx11-go/internal/audio"
	"github.com/cbegin/jx11-go/internal/midifile"
	"github.com/cbegin/jx11-go/internal/params"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto")
		blockSize  = flag.Int("block", jx11.DefaultBlockSize, "render block size in frames")
		midiPath   = flag.String("midi", "", "Standard MIDI File to play (default: built-in demo phrase)")
		outPath    = flag.String("out", "", "render to this WAV file instead of playing")
		seconds    = flag.Float64("seconds", 0, "render length in seconds (default: song length plus tail)")
		tail       = flag.Duration("tail", 2*time.Second, "time to keep rendering after the last message")
		analyze    = flag.Bool("analyze", false, "print level and spectrum peak of the rendered audio")
		list       = flag.Bool("list", false, "list parameters and exit")
		tone       = flag.Float64("tone", 0, "play a sine calibration tone of this frequency instead of the synth")
		toneLevel  = flag.Float64("tone-level", -12, "calibration tone level in dBFS")
		debug      = flag.Bool("debug", false, "debug logging")
		settings   params.Assignments
	)
	flag.Var(&settings, "p", "parameter as id=value (repeatable; see -list)")
	flag.Parse()

	logger := newLogger(*debug)
	if *list {
		printLayout()
		return
	}

	values := params.Default()
	if err := settings.Apply(&values); err != nil {
		log.Fatal(err)
	}
	msgs, err := loadMessages(*midiPath, *sampleRate, logger)
	if err != nil {
		log.Fatal(err)
	}
	length := *seconds
	switch {
	case length > 0:
	case *tone > 0:
		length = 3
	default:
		length = songSeconds(msgs, *sampleRate) + tail.Seconds()
	}

	if *outPath != "" || *analyze {
		var samples []float32
		if *tone > 0 {
			samples = jx11.RenderTone(*tone, *toneLevel, *sampleRate, length)
		} else {
			samples = jx11.RenderSamples(msgs, values, *sampleRate, length)
		}
		if *analyze {
			if err := report(samples, *sampleRate); err != nil {
				log.Fatal(err)
			}
		}
		if *outPath != "" {
			if err := os.WriteFile(*outPath, jx11.EncodeWAVFloat32LE(samples, *sampleRate, 2), 0o644); err != nil {
				log.Fatal(err)
			}
			logger.Info("wrote wav", "path", *outPath, "seconds", length)
		}
		return
	}

	if *tone > 0 {
		if err := playTone(jx11.NewTone(*tone, *toneLevel, *sampleRate, length), *backend, *sampleRate, logger); err != nil {
			log.Fatal(err)
		}
		return
	}

	pl, err := jx11.NewPlayer(*sampleRate,
		jx11.WithBackend(jx11.Backend(*backend)),
		jx11.WithLogger(logger),
		jx11.WithParams(values),
		jx11.WithBlockSize(*blockSize))
	if err != nil {
		log.Fatal(err)
	}
	done := pl.Play(msgs, *tail)
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-done:
		fmt.Println("playback completed")
	case <-interrupt:
		pl.Panic()
		time.Sleep(50 * time.Millisecond)
	}
	if err := pl.Stop(); err != nil {
		log.Fatal(err)
	}
}

func playTone(tone *jx11.Tone, backend string, sampleRate int, logger *slog.Logger) error {
	b, err := audio.ParseBackend(backend)
	if err != nil {
		return err
	}
	out, err := audio.Open(b, sampleRate, tone)
	if err != nil {
		return err
	}
	logger.Info("playing calibration tone", "backend", string(b))
	out.Play()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for !tone.Finished() || out.IsPlaying() {
		select {
		case <-interrupt:
			return out.Stop()
		case <-tick.C:
		}
	}
	return out.Stop()
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func loadMessages(path string, sampleRate int, logger *slog.Logger) ([]jx11.Message, error) {
	if path == "" {
		return jx11.DemoPhrase(sampleRate), nil
	}
	song, err := midifile.Load(path, float64(sampleRate))
	if err != nil {
		return nil, err
	}
	if len(song.Messages) == 0 {
		return nil, errors.New(path + ": no channel messages")
	}
	logger.Info("loaded midi file", "path", path, "messages", len(song.Messages), "tracks", song.Tracks, "seconds", song.Seconds())
	return song.Messages, nil
}

func songSeconds(msgs []jx11.Message, sampleRate int) float64 {
	if len(msgs) == 0 {
		return 0
	}
	return float64(msgs[len(msgs)-1].Offset) / float64(sampleRate)
}

func report(samples []float32, sampleRate int) error {
	mono := analysis.Mono(samples)
	peak := analysis.Peak(mono)
	spec, err := analysis.Analyze(mono, float64(sampleRate))
	if err != nil {
		return err
	}
	db := math.Inf(-1)
	if peak > 0 {
		db = 20 * math.Log10(peak)
	}
	fmt.Printf("peak level:     %.4f (%.1f dBFS)\n", peak, db)
	fmt.Printf("peak frequency: %.1f Hz (bin width %.2f Hz)\n", spec.PeakFrequency(), spec.BinWidth())
	fmt.Printf("energy > 5 kHz: %.2f%%\n", 100*spec.EnergyRatioAbove(5000))
	return nil
}

func printLayout() {
	def := params.Default()
	for _, p := range params.Layout() {
		x, _ := def.Get(p.ID)
		fmt.Printf("%-15s %-16s %7.1f..%-7.1f default %s\n", p.ID, p.Name, p.Min, p.Max, p.Format(x))
	}
}
