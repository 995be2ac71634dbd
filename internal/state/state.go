// Package state implements the ephemeral correlation-token store used to
// bind an outgoing OAuth authorization redirect to its returning callback.
// Tokens are one-time, unguessable and expire after a fixed TTL; losing
// them on process restart is acceptable because the user can always
// restart the login flow.
package state

import (
	"context"
	"time"
)

const (
	// DefaultTTL bounds how long an unconsumed login attempt stays valid.
	DefaultTTL = 10 * time.Minute
)

// Store holds short-lived entries keyed by a crypto-random token.
// All methods are safe for concurrent use. A missing, malformed or
// expired token is reported as ok=false, never as an error, so callers
// cannot distinguish the cases (and neither can an attacker probing the
// callback endpoint).
type Store[T any] interface {
	// Create stores the payload under a fresh unguessable token and
	// returns the token. Expired entries are swept opportunistically.
	Create(ctx context.Context, payload T) (string, error)

	// Get returns the payload for the token without consuming it.
	Get(ctx context.Context, token string) (T, bool)

	// GetAndDelete atomically looks up and removes the entry, enforcing
	// exactly-once consumption even under concurrent callback delivery.
	GetAndDelete(ctx context.Context, token string) (T, bool)

	// Delete removes the entry if present. Deleting an absent token is
	// a no-op.
	Delete(ctx context.Context, token string)

	// SweepExpired removes every entry older than the TTL.
	SweepExpired(ctx context.Context)
}
