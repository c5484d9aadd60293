package session

import (
	"context"

	"github.com/aidolab/mgstudio/internal/client/authsignal"
)

// Bridge connects the transport layer's "unauthenticated" signal to the
// session: every broadcast forces a logout. Install it at application start,
// before the first request that could plausibly fail with 401, and close it
// on shutdown so the subscriber never fires after its owner is gone.
type Bridge struct {
	unsubscribe func()
}

// InstallBridge subscribes s.Logout to sig and returns the installed bridge.
// Logout is idempotent, so the at-least-once delivery of the signal (several
// concurrent 401s) converges to a single logged-out state.
func InstallBridge(sig *authsignal.Signal, s *Session) *Bridge {
	unsub := sig.Subscribe(func() {
		s.Logout(context.Background())
	})
	return &Bridge{unsubscribe: unsub}
}

// Close removes the subscription. Safe to call more than once.
func (b *Bridge) Close() {
	b.unsubscribe()
}
