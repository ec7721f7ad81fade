package core

import "time"

// Clock measures wall time since Start. Elapsed is refreshed by Update.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	elapsed   time.Duration
	running   bool
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Seconds is Elapsed as float seconds, the unit the animation code works in.
func (c *Clock) Seconds() float64 {
	return c.elapsed.Seconds()
}
