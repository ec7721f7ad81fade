package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	c := NewClock()
	c.now = func() time.Time { return current }

	c.Update()
	assert.Zero(t, c.Elapsed(), "update before start is a no-op")

	c.Start()
	current = base.Add(1500 * time.Millisecond)
	c.Update()
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 1.5, c.Seconds(), 1e-9)

	c.Stop()
	current = base.Add(5 * time.Second)
	c.Update()
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed(), "stopped clock keeps its elapsed time")
}
