package sim_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"vidar/internal/sim"

	"github.com/stretchr/testify/assert"
)

func TestNext_Deterministic(t *testing.T) {
	a := sim.New(sim.DefaultParams(), rand.New(rand.NewSource(42)))
	b := sim.New(sim.DefaultParams(), rand.New(rand.NewSource(42)))

	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestNext_StaysWithinClampBand(t *testing.T) {
	params := sim.DefaultParams()
	// Crank volatility and force a jump every step to hammer the clamp.
	params.Volatility = 5.0
	params.JumpProb = 1.0
	params.JumpMax = 0.5
	process := sim.New(params, rand.New(rand.NewSource(7)))

	for i := 0; i < 10000; i++ {
		price := process.Next()
		assert.GreaterOrEqual(t, price, params.Floor)
		assert.LessOrEqual(t, price, params.Ceiling)
	}
}

func TestNext_RoundsToCents(t *testing.T) {
	process := sim.New(sim.DefaultParams(), rand.New(rand.NewSource(1)))

	for i := 0; i < 1000; i++ {
		price := process.Next()
		cents := price * 100
		assert.InDelta(t, math.Round(cents), cents, 1e-6)
	}
}

func TestNext_AdvancesPriceState(t *testing.T) {
	process := sim.New(sim.DefaultParams(), rand.New(rand.NewSource(3)))

	price := process.Next()
	assert.Equal(t, price, process.Price())
}

func TestReset_ReturnsToInitialPrice(t *testing.T) {
	params := sim.DefaultParams()
	process := sim.New(params, rand.New(rand.NewSource(9)))

	for i := 0; i < 100; i++ {
		process.Next()
	}
	process.Reset()
	assert.Equal(t, params.InitialPrice, process.Price())
}

func TestNew_FillsZeroParams(t *testing.T) {
	process := sim.New(sim.Params{}, rand.New(rand.NewSource(5)))

	assert.Equal(t, sim.DefaultParams().InitialPrice, process.Price())
	assert.Equal(t, 500*time.Millisecond, process.Interval())

	// Defaults still keep the output inside the band.
	for i := 0; i < 100; i++ {
		price := process.Next()
		assert.GreaterOrEqual(t, price, 1000.0)
		assert.LessOrEqual(t, price, 100000.0)
	}
}
