package jx11

import (
	"encoding/binary"
	"math"

	"github.com/cbegin/jx11-go/internal/params"
)

// RenderSamples plays msgs, stamped in samples from the start, through a
// fresh engine and returns seconds of interleaved stereo audio.
func RenderSamples(msgs []Message, values Params, sampleRate int, seconds float64) []float32 {
	if sampleRate <= 0 || seconds <= 0 {
		return nil
	}
	engine := newEngine(values, sampleRate, DefaultBlockSize)
	r := newRenderer(engine, nil, DefaultBlockSize)
	r.sched = newSchedule(msgs, 0)
	r.sched.done = nil
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	r.Process(out)
	return out
}

// RenderDefault renders with the factory patch.
func RenderDefault(msgs []Message, sampleRate int, seconds float64) []float32 {
	return RenderSamples(msgs, params.Default(), sampleRate, seconds)
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
