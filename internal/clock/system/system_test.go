package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_NowIsUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	require.NotNil(t, clk)

	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "clock drifted: %v", got)
}

func TestClock_NowKeepsMicrosecondPrecision(t *testing.T) {
	t.Parallel()

	clk := New()
	for i := 0; i < 20; i++ {
		got := clk.Now()
		assert.Zero(t, got.Nanosecond()%int(time.Microsecond), "sub-microsecond residue in %v", got)
		assert.Equal(t, got, got.Truncate(time.Microsecond))
	}
}
