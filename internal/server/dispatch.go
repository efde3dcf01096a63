package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gammaosu/gamma/internal/bancho"
	"github.com/gammaosu/gamma/internal/session"
)

// dispatch handles one poll request: decode the body's frames against the
// session, then flush the shared output buffer into the response.
//
// Frame actions never write to the shared buffer directly; they mutate the
// local session copy and append to the request-private writer. Any frame
// error aborts the whole request before anything is committed.
func (s *Server) dispatch(ctx context.Context, token string, body []byte) ([]byte, error) {
	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil, errInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}

	original, err := s.store.GetBuffer(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		original = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading buffer: %w", err)
	}

	private := bancho.NewWriter(256)
	frames := bancho.NewFrameReader(body)
	var logout bool

	for {
		frame, err := frames.Next()
		if err != nil {
			return nil, malformedPacket(err.Error())
		}
		if frame == nil {
			break
		}
		packetsTotal.WithLabelValues(strconv.Itoa(int(frame.ID))).Inc()

		quit, err := s.handleFrame(ctx, &sess, frame, private)
		if err != nil {
			return nil, err
		}
		if quit {
			logout = true
		}
	}

	if logout {
		if err := s.store.Drop(ctx, token); err != nil {
			return nil, fmt.Errorf("dropping session: %w", err)
		}
		s.presence.Broadcast(ctx, session.QuitPayload(sess.ID), token)
		slog.Info("logout", "username", sess.Presence.Username, "id", sess.ID)
		return private.Bytes(), nil
	}

	if err := s.store.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	return s.flush(ctx, token, original, private.Bytes())
}

// flush drains the shared buffer into the response. The bytes present when
// the poll started (original) have now been delivered, so they are trimmed
// from the front of the stored value; appends made by other workers while
// this request ran are preserved, concatenated with the private output and
// written back. The response carries everything: original, concurrent
// appends, private output.
func (s *Server) flush(ctx context.Context, token string, original, private []byte) ([]byte, error) {
	current, err := s.store.GetBuffer(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		current = nil
	} else if err != nil {
		return nil, fmt.Errorf("re-reading buffer: %w", err)
	}

	var pending []byte
	if len(current) > len(original) {
		pending = current[len(original):]
	}

	stored := make([]byte, 0, len(pending)+len(private))
	stored = append(stored, pending...)
	stored = append(stored, private...)
	if err := s.store.PutBuffer(ctx, token, stored); err != nil {
		return nil, fmt.Errorf("flushing buffer: %w", err)
	}

	resp := make([]byte, 0, len(original)+len(stored))
	resp = append(resp, original...)
	resp = append(resp, stored...)
	return resp, nil
}

// handleFrame runs the per-id action for one client packet. It reports
// whether the client asked to log out.
func (s *Server) handleFrame(ctx context.Context, sess *session.Session, frame *bancho.Frame, private *bancho.Writer) (bool, error) {
	r := bancho.NewReader(frame.Payload)

	switch frame.ID {
	case bancho.ClientChangeStatus:
		status, err := bancho.ReadClientStatus(r)
		if err != nil {
			return false, malformedPacket(err.Error())
		}
		s.applyStatus(ctx, sess, status, private)

	case bancho.ClientSendPublicMessage:
		msg, err := bancho.ReadMessage(r)
		if err != nil {
			return false, malformedPacket(err.Error())
		}
		slog.Debug("public message",
			"from", sess.Presence.Username,
			"target", msg.Target,
			"length", len(msg.Message))

	case bancho.ClientSendPrivateMessage:
		msg, err := bancho.ReadMessage(r)
		if err != nil {
			return false, malformedPacket(err.Error())
		}
		s.deliverPM(ctx, sess, msg, private)

	case bancho.ClientChannelJoin:
		name, err := r.ReadString()
		if err != nil {
			return false, malformedPacket(err.Error())
		}
		slog.Debug("channel join", "username", sess.Presence.Username, "channel", name)
		bancho.WriteChannelJoinSuccess(private, name)

	case bancho.ClientPing:
		// Last-pinged bookkeeping is the record TTL refresh on PutSession.

	case bancho.ClientRequestStatusUpdate:
		bancho.WriteHandleOsuUpdate(private, sess.Stats)

	case bancho.ClientLogout:
		return true, nil

	default:
		slog.Warn("unhandled packet", "id", frame.ID, "length", len(frame.Payload))
		unknownPacketsTotal.Inc()
	}

	return false, nil
}

// applyStatus replaces the session's ClientStatus, announces mod-based
// leaderboard toggles, echoes the update to the caller and broadcasts it
// to every online peer.
func (s *Server) applyStatus(ctx context.Context, sess *session.Session, status bancho.ClientStatus, private *bancho.Writer) {
	name := sess.Presence.Username

	if relax := status.CurrentMods&bancho.ModRelax != 0; relax != sess.Relax {
		sess.Relax = relax
		bancho.WriteAnnounce(private, toggleAnnounce("Relax", relax, name))
	}
	if autopilot := status.CurrentMods&bancho.ModAutopilot != 0; autopilot != sess.Autopilot {
		sess.Autopilot = autopilot
		bancho.WriteAnnounce(private, toggleAnnounce("Autopilot", autopilot, name))
	}

	sess.Stats.Status = status
	bancho.WriteHandleOsuUpdate(private, sess.Stats)
	s.presence.Broadcast(ctx, session.StatsPayload(sess.Stats), sess.Token)
}

func toggleAnnounce(board string, enabled bool, username string) string {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return fmt.Sprintf("%s leaderboards have now been %s, %s", board, state, username)
}

// deliverPM routes a private message: the bot answers through the command
// stub, anyone else gets the message appended to their buffer if online.
// Client-supplied sender fields are replaced from the session.
func (s *Server) deliverPM(ctx context.Context, sess *session.Session, msg bancho.Message, private *bancho.Writer) {
	msg.SendingClient = sess.Presence.Username
	msg.SenderID = sess.ID

	if msg.Target == BotName {
		bancho.WriteAnnounce(private, botReply(sess.Presence.Username, msg.Message))
		return
	}

	w := bancho.NewWriter(64)
	bancho.WriteSendMessage(w, msg)
	found, err := s.presence.SendTo(ctx, msg.Target, w.Bytes())
	if err != nil {
		slog.Warn("private message delivery failed", "target", msg.Target, "err", err)
		return
	}
	if !found {
		slog.Debug("private message target offline", "target", msg.Target)
	}
}
