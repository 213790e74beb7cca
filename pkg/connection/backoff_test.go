package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsToMax(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})

	var delays []time.Duration
	for i := 0; i < 8; i++ {
		delays = append(delays, b.Next())
	}

	want := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second,
	}
	assert.Equal(t, want, delays)
	assert.Equal(t, 8, b.Attempts())
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})

	b.Next()
	b.Next()
	require.Equal(t, 4*time.Second, b.Current())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, 1*time.Second, b.Next())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff()

	for i := 0; i < 100; i++ {
		d := b.Peek()
		assert.GreaterOrEqual(t, d, b.Current())
		assert.LessOrEqual(t, d, b.Current()+time.Duration(float64(b.Current())*JitterFactor))
	}
}

func TestBackoffSequence(t *testing.T) {
	seq := BackoffSequence()
	require.NotEmpty(t, seq)
	assert.Equal(t, InitialBackoff, seq[0])
	assert.Equal(t, MaxBackoff, seq[len(seq)-1])
}
