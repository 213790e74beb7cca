package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrSupervisorStopped is returned by Supervisor.Run when its context ends.
var ErrSupervisorStopped = errors.New("supervisor stopped")

// DefaultHealthyAfter is how long a session must live before its next
// failure is treated as fresh, resetting the backoff.
const DefaultHealthyAfter = 5 * time.Minute

// SessionFunc runs one client session from start to termination. It blocks
// until the session ends and returns nil for a clean shutdown or an error
// describing why the session died. It must honor ctx cancellation.
type SessionFunc func(ctx context.Context) error

// Supervisor runs client sessions in a restart loop with exponential
// backoff between failures.
type Supervisor struct {
	session      SessionFunc
	backoff      *Backoff
	healthyAfter time.Duration
	logger       *slog.Logger
}

// SupervisorConfig customizes a Supervisor.
type SupervisorConfig struct {
	// Backoff overrides the default backoff parameters.
	Backoff BackoffConfig

	// HealthyAfter overrides DefaultHealthyAfter.
	HealthyAfter time.Duration

	// Logger enables debug logging. May be nil.
	Logger *slog.Logger
}

// NewSupervisor creates a supervisor for session with default settings.
func NewSupervisor(session SessionFunc) *Supervisor {
	return NewSupervisorWithConfig(session, SupervisorConfig{})
}

// NewSupervisorWithConfig creates a supervisor with custom settings.
func NewSupervisorWithConfig(session SessionFunc, cfg SupervisorConfig) *Supervisor {
	healthyAfter := cfg.HealthyAfter
	if healthyAfter <= 0 {
		healthyAfter = DefaultHealthyAfter
	}
	return &Supervisor{
		session:      session,
		backoff:      NewBackoffWithConfig(cfg.Backoff),
		healthyAfter: healthyAfter,
		logger:       cfg.Logger,
	}
}

// Run executes sessions until one returns nil or ctx is cancelled. A
// session error triggers a backoff delay and a restart. Run returns nil
// after a clean session, or ErrSupervisorStopped wrapped around the
// context error when cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		started := time.Now()
		err := s.session(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errors.Join(ErrSupervisorStopped, ctx.Err())
		}

		if time.Since(started) >= s.healthyAfter {
			s.backoff.Reset()
		}
		delay := s.backoff.Next()
		s.debugLog("session failed, restarting",
			"error", err, "delay", delay, "attempts", s.backoff.Attempts())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ErrSupervisorStopped, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *Supervisor) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
