// Package sim generates a synthetic price series using geometric Brownian
// motion with occasional discontinuous jumps, clamped to a fixed band.
package sim

import (
	"math"
	"math/rand"
	"time"
)

// Params are the fixed parameters of the price process. Zero values are
// replaced with the defaults by New.
type Params struct {
	InitialPrice float64       // Starting price
	Drift        float64       // Trend per unit time
	Volatility   float64       // Diffusion coefficient
	Interval     time.Duration // Step interval, also the tick cadence
	JumpProb     float64       // Per-step probability of a jump
	JumpMin      float64       // Jump magnitude band, fraction of price
	JumpMax      float64
	Floor        float64 // Hard clamp, inclusive
	Ceiling      float64
}

func DefaultParams() Params {
	return Params{
		InitialPrice: 45000.0,
		Drift:        0.0001,
		Volatility:   0.02,
		Interval:     500 * time.Millisecond,
		JumpProb:     0.03,
		JumpMin:      0.002,
		JumpMax:      0.008,
		Floor:        1000.0,
		Ceiling:      100000.0,
	}
}

// Process is the synthetic price process. Deterministic for a given seeded
// rand source; single-owner, the tick driver is the only caller of Next.
type Process struct {
	params Params
	price  float64
	rng    *rand.Rand
}

// New creates a process over the given rand source. Zero-valued params fall
// back to the defaults so a partially filled Params behaves sanely.
func New(params Params, rng *rand.Rand) *Process {
	defaults := DefaultParams()
	if params.InitialPrice <= 0 {
		params.InitialPrice = defaults.InitialPrice
	}
	if params.Interval <= 0 {
		params.Interval = defaults.Interval
	}
	if params.JumpMax < params.JumpMin {
		params.JumpMax = params.JumpMin
	}
	if params.Ceiling <= params.Floor {
		params.Floor = defaults.Floor
		params.Ceiling = defaults.Ceiling
	}
	return &Process{
		params: params,
		price:  params.InitialPrice,
		rng:    rng,
	}
}

// Next advances the process one step and returns the new price.
//
// The diffusion step is dS = mu*S*dt + sigma*S*Z*sqrt(dt) with Z standard
// normal, followed with probability JumpProb by a jump of uniform magnitude
// in [JumpMin, JumpMax] of the current price, in a uniformly random
// direction. The result is clamped to [Floor, Ceiling] and rounded to cents;
// the rounded value is the contract, downstream consumers never see more
// precision.
func (p *Process) Next() float64 {
	dt := p.params.Interval.Seconds()
	z := p.rng.NormFloat64()

	p.price += p.params.Drift*p.price*dt +
		p.params.Volatility*p.price*z*math.Sqrt(dt)

	if p.rng.Float64() < p.params.JumpProb {
		sign := 1.0
		if p.rng.Float64() < 0.5 {
			sign = -1.0
		}
		magnitude := p.params.JumpMin + p.rng.Float64()*(p.params.JumpMax-p.params.JumpMin)
		p.price += sign * p.price * magnitude
	}

	p.price = math.Max(p.price, p.params.Floor)
	p.price = math.Min(p.price, p.params.Ceiling)
	p.price = math.Round(p.price*100) / 100

	return p.price
}

// Price reports the current price without advancing the process.
func (p *Process) Price() float64 {
	return p.price
}

// Interval reports the fixed step interval.
func (p *Process) Interval() time.Duration {
	return p.params.Interval
}

// Reset puts the process back at its initial price. The rand source is left
// untouched.
func (p *Process) Reset() {
	p.price = p.params.InitialPrice
}
