// Package sma maintains a simple moving average over the trailing window of a
// price stream. Updates and reads are O(1): samples live in a fixed-capacity
// ring buffer and the sum is maintained incrementally, never re-summed.
package sma

import "errors"

var ErrInvalidWindow = errors.New("window size must be positive")

type Calculator struct {
	prices []float64 // Ring buffer, len == window
	size   int       // Samples currently held
	index  int       // Next write position
	sum    float64   // Running sum of held samples
}

func New(window int) (*Calculator, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &Calculator{
		prices: make([]float64, window),
	}, nil
}

// Add appends a sample, evicting the oldest when the window is full.
func (c *Calculator) Add(price float64) {
	if c.size == len(c.prices) {
		c.sum -= c.prices[c.index]
	} else {
		c.size++
	}
	c.prices[c.index] = price
	c.sum += price
	c.index = (c.index + 1) % len(c.prices)
}

// Value returns the mean of the held samples, or 0 when there are none.
func (c *Calculator) Value() float64 {
	if c.size == 0 {
		return 0
	}
	return c.sum / float64(c.size)
}

// Size reports how many samples the window currently holds.
func (c *Calculator) Size() int {
	return c.size
}

func (c *Calculator) Reset() {
	c.size = 0
	c.index = 0
	c.sum = 0
}
