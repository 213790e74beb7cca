package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff() SupervisorConfig {
	return SupervisorConfig{
		Backoff: BackoffConfig{
			Initial:    time.Millisecond,
			Max:        2 * time.Millisecond,
			Multiplier: 2,
			Jitter:     0,
		},
	}
}

func TestSupervisorRestartsUntilCleanExit(t *testing.T) {
	runs := 0
	s := NewSupervisorWithConfig(func(ctx context.Context) error {
		runs++
		if runs < 3 {
			return errors.New("session died")
		}
		return nil
	}, fastBackoff())

	err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, runs)
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runs := 0
	s := NewSupervisorWithConfig(func(ctx context.Context) error {
		runs++
		if runs == 2 {
			cancel()
		}
		return errors.New("session died")
	}, fastBackoff())

	err := s.Run(ctx)
	assert.ErrorIs(t, err, ErrSupervisorStopped)
	assert.Equal(t, 2, runs)
}

func TestSupervisorCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastBackoff()
	cfg.Backoff.Initial = time.Hour
	cfg.Backoff.Max = time.Hour
	s := NewSupervisorWithConfig(func(ctx context.Context) error {
		return errors.New("session died")
	}, cfg)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSupervisorStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}
}
