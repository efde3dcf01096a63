package session

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gammaosu/gamma/internal/bancho"
)

var broadcastFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gamma_broadcast_failures_total",
	Help: "Peer buffer appends that failed during presence fan-out.",
})

// Engine fans presence, stat and chat packets out to the output buffers of
// online peers. Per-peer failures are logged and swallowed: a failed
// fan-out never fails the initiating request. A peer that logs in after
// enumeration started may miss a broadcast; its next status update
// re-announces it.
type Engine struct {
	store Store
}

// NewEngine creates a presence engine over the shared store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Broadcast appends payload to the buffer of every online session except
// the one identified by except (empty = no exclusion).
func (e *Engine) Broadcast(ctx context.Context, payload []byte, except string) {
	tokens, err := e.store.ListTokens(ctx)
	if err != nil {
		slog.Warn("broadcast: listing tokens failed", "err", err)
		broadcastFailures.Inc()
		return
	}
	for _, token := range tokens {
		if token == except {
			continue
		}
		if err := e.store.AppendBuffer(ctx, token, payload); err != nil {
			slog.Warn("broadcast: peer append failed", "token", token, "err", err)
			broadcastFailures.Inc()
		}
	}
}

// SendTo appends payload to the buffer of the online session with the
// given username. It reports whether a recipient was found.
func (e *Engine) SendTo(ctx context.Context, username string, payload []byte) (bool, error) {
	sess, ok, err := e.FindByUsername(ctx, username)
	if err != nil || !ok {
		return false, err
	}
	if err := e.store.AppendBuffer(ctx, sess.Token, payload); err != nil {
		return false, err
	}
	return true, nil
}

// FindByUsername scans online sessions for one with the given username.
func (e *Engine) FindByUsername(ctx context.Context, username string) (Session, bool, error) {
	tokens, err := e.store.ListTokens(ctx)
	if err != nil {
		return Session{}, false, err
	}
	for _, token := range tokens {
		sess, err := e.store.GetSession(ctx, token)
		if err != nil {
			// Logged out between enumeration and lookup.
			continue
		}
		if sess.Presence.Username == username {
			return sess, true, nil
		}
	}
	return Session{}, false, nil
}

// WriteOnline appends a UserPresence + HandleOsuUpdate pair for every
// online session to w. Peers that vanish mid-scan are skipped.
func (e *Engine) WriteOnline(ctx context.Context, w *bancho.Writer, except string) error {
	tokens, err := e.store.ListTokens(ctx)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		if token == except {
			continue
		}
		sess, err := e.store.GetSession(ctx, token)
		if err != nil {
			continue
		}
		bancho.WriteUserPresence(w, sess.Presence)
		bancho.WriteHandleOsuUpdate(w, sess.Stats)
	}
	return nil
}

// PresencePayload renders the presence + stats announcement for one
// session, ready for fan-out.
func PresencePayload(s Session) []byte {
	w := bancho.NewWriter(128)
	bancho.WriteUserPresence(w, s.Presence)
	bancho.WriteHandleOsuUpdate(w, s.Stats)
	return w.Bytes()
}

// StatsPayload renders a stats-only update.
func StatsPayload(s bancho.Stats) []byte {
	w := bancho.NewWriter(64)
	bancho.WriteHandleOsuUpdate(w, s)
	return w.Bytes()
}

// QuitPayload renders the gone-offline announcement for one player.
func QuitPayload(playerID int32) []byte {
	w := bancho.NewWriter(16)
	bancho.WriteHandleUserQuit(w, playerID)
	return w.Bytes()
}
