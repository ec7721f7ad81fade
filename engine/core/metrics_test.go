package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverageWindow(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(10 * time.Millisecond)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)

	// a full window of 20ms frames pushes the 10ms samples out
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(20 * time.Millisecond)
	}
	assert.InDelta(t, 20.0, m.FrameTime(), 1e-9)
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	// 101 frames of 10ms cross the one second boundary once
	for i := 0; i < 101; i++ {
		m.Update(10 * time.Millisecond)
	}
	fps, avg := m.Frame()
	assert.Equal(t, 100.0, fps)
	assert.InDelta(t, 10.0, avg, 1e-9)
}
