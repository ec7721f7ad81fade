package core

import (
	"time"

	"github.com/spaghettifunk/vkquad/engine/containers"
)

const AVG_COUNT = 30

// Metrics keeps a rolling frame time average and a once-per-second FPS count.
type Metrics struct {
	samples            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		samples: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

func (m *Metrics) Update(frameElapsed time.Duration) {
	frameMS := float64(frameElapsed) / float64(time.Millisecond)

	m.samples.Push(frameMS)
	sum := 0.0
	m.samples.Each(func(v float64) { sum += v })
	m.msAvg = sum / float64(m.samples.Len())

	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.frames++
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
