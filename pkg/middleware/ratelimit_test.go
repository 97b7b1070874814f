package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterPoolEvictsIdleClients(t *testing.T) {
	p := newLimiterPool(10, 5, time.Minute)
	t0 := time.Now()

	p.get("10.0.0.1", t0)
	p.get("10.0.0.2", t0.Add(30*time.Second))
	require.Equal(t, 2, p.size())

	// both earlier clients are past the idle window by now
	p.get("10.0.0.3", t0.Add(2*time.Minute))
	assert.Equal(t, 1, p.size())
}

func TestLimiterPoolKeepsActiveClients(t *testing.T) {
	p := newLimiterPool(10, 5, time.Minute)
	t0 := time.Now()

	p.get("10.0.0.1", t0)
	p.get("10.0.0.1", t0.Add(50*time.Second))
	p.get("10.0.0.2", t0.Add(90*time.Second))
	assert.Equal(t, 2, p.size(), "recently seen client survives the sweep")
}

func TestLimiterPoolEnforcesBurst(t *testing.T) {
	p := newLimiterPool(1, 2, time.Minute)
	lim := p.get("10.0.0.1", time.Now())
	assert.True(t, lim.Allow())
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow(), "burst exhausted")
}
