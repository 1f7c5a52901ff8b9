package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/cbegin/jx11-go"
	"github.com/cbegin/jx11-go/internal/params"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		backend    = flag.String("backend", "oto", "audio backend: ebiten|oto")
		blockSize  = flag.Int("block", 64, "render block size in frames")
		port       = flag.String("port", "", "MIDI input port name or substring (default: first port)")
		listPorts  = flag.Bool("list-ports", false, "list MIDI input ports and exit")
		noMIDI     = flag.Bool("no-midi", false, "do not open a MIDI input port")
		keys       = flag.Bool("keys", false, "play from the computer keyboard")
		debug      = flag.Bool("debug", false, "debug logging")
		settings   params.Assignments
	)
	flag.Var(&settings, "p", "parameter as id=value (repeatable)")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: *debug}))
	slog.SetDefault(logger)

	values := params.Default()
	if err := settings.Apply(&values); err != nil {
		log.Fatal(err)
	}
	pl, err := jx11.NewPlayer(*sampleRate,
		jx11.WithBackend(jx11.Backend(*backend)),
		jx11.WithLogger(logger),
		jx11.WithParams(values),
		jx11.WithBlockSize(*blockSize))
	if err != nil {
		log.Fatal(err)
	}

	inputs := 0
	if !*noMIDI || *listPorts {
		drv, err := rtmididrv.New()
		if err != nil {
			log.Fatal(err)
		}
		defer drv.Close()
		if *listPorts {
			ins, err := drv.Ins()
			if err != nil {
				log.Fatal(err)
			}
			for _, in := range ins {
				fmt.Printf("%d: %s\n", in.Number(), in.String())
			}
			return
		}
		stop, err := openInput(drv, *port, pl, logger)
		switch {
		case err == nil:
			defer stop()
			inputs++
		case *keys:
			logger.Warn("no MIDI input, keyboard only", "err", err)
		default:
			log.Fatal(err)
		}
	}

	quit := make(chan struct{})
	if *keys {
		kb, err := startKeyboard(pl, quit, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer kb.Stop()
		inputs++
	}
	if inputs == 0 {
		log.Fatal("no input: enable a MIDI port or -keys")
	}

	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-interrupt:
	case <-quit:
	}
	pl.Panic()
	if err := pl.Stop(); err != nil {
		logger.Error("stop audio", "err", err)
	}
}

// openInput opens the input port matching name and forwards its messages
// to pl.
func openInput(drv *rtmididrv.Driver, name string, pl *jx11.Player, logger *slog.Logger) (func(), error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	in := pickPort(ins, name)
	if in == nil {
		if name == "" {
			return nil, errors.New("no MIDI input ports")
		}
		return nil, fmt.Errorf("MIDI input %q not found", name)
	}
	return listen(in, pl, logger)
}

func listen(in drivers.In, pl *jx11.Player, logger *slog.Logger) (func(), error) {
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open MIDI port %s: %w", in.String(), err)
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if !pl.SendMIDI(msg) {
			logger.Debug("midi message dropped", "msg", msg.String())
		}
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("MIDI listener error, device likely disconnected", "device", in.String(), "err", listenErr)
		pl.Panic()
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("listen on %s: %w", in.String(), err)
	}
	logger.Info("MIDI input connected", "device", in.String())
	return func() {
		stop()
		_ = in.Close()
		logger.Info("MIDI input closed", "device", in.String())
	}, nil
}

// pickPort returns the first port whose name contains name, ignoring case.
func pickPort[P interface{ String() string }](ports []P, name string) P {
	var zero P
	for _, p := range ports {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p
		}
	}
	return zero
}

