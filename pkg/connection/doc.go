// Package connection provides session lifecycle management for hosts
// embedding the device client.
//
// The device client itself treats its error state as terminal: a fatal
// provisioning or authentication failure stops the state machine until the
// host stops and starts it again. This package supplies the host side of
// that contract:
//
//   - Exponential backoff between restart attempts
//   - Jitter to prevent thundering herd
//   - A Supervisor that runs client sessions in a restart loop
//
// # Restart Strategy
//
// When a session ends in error, the supervisor waits before restarting:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Continue at 60s until successful
//  5. Reset to 1s after a session stays healthy long enough
//
// # Jitter
//
// To prevent thundering herd when multiple clients restart:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
