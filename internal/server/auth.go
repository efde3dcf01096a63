package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gammaosu/gamma/internal/bancho"
	"github.com/gammaosu/gamma/internal/session"
)

const (
	protocolVersion    = 19
	defaultPermissions = 4
	defaultChannel     = "#osu"
)

// Diagnostic cho-token values for failed logins. The body still carries a
// LoginReply so the client shows a proper error.
const (
	tokenInvalidUsername = "invalid username"
	tokenInvalidPassword = "invalid password"
	tokenInvalidStats    = "invalid stats"
)

// auth handles the first request of a connection: verify credentials,
// materialize a session, seed the welcome packets and issue a token.
func (s *Server) auth(ctx context.Context, body []byte, remote string) (string, []byte, error) {
	login, err := bancho.ParseLoginData(body)
	if err != nil {
		return "", nil, malformedPacket(err.Error())
	}
	slog.Info("login request", "username", login.Username, "version", login.ClientVersion, "remote", remote)

	user, err := s.users.GetUserBySafeName(ctx, usernameSafe(login.Username))
	if err != nil {
		return "", nil, fmt.Errorf("querying user: %w", err)
	}
	if user == nil {
		slog.Warn("login for unknown user", "username", login.Username)
		return tokenInvalidUsername, loginReply(-1), nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordBcrypt), []byte(login.PasswordMD5)); err != nil {
		slog.Warn("wrong password", "username", login.Username)
		return tokenInvalidPassword, loginReply(-1), nil
	}

	stats, err := s.users.GetUserStats(ctx, user.ID, 0)
	if err != nil {
		return "", nil, fmt.Errorf("querying stats: %w", err)
	}
	if stats == nil {
		slog.Warn("login with no stats row", "username", login.Username, "id", user.ID)
		return tokenInvalidStats, loginReply(-5), nil
	}

	token := uuid.NewString()
	sess := session.Build(token, *user, *stats, login)

	w := bancho.NewWriter(1024)
	bancho.WriteLoginReply(w, user.ID)
	bancho.WriteProtocolNegotiation(w, protocolVersion)
	bancho.WriteAnnounce(w, fmt.Sprintf("Welcome to Gamma, %s!", user.Username))
	bancho.WriteLoginPermissions(w, defaultPermissions)
	bancho.WriteChannelListingComplete(w)

	channels, err := s.users.ListChannels(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("querying channels: %w", err)
	}
	for _, ch := range channels {
		bancho.WriteChannelAvailable(w, bancho.Channel{Name: ch.Name, Topic: ch.Topic, Connected: 1})
		if ch.Autojoin {
			bancho.WriteChannelJoinSuccess(w, ch.Name)
		}
	}

	bancho.WriteUserPresence(w, sess.Presence)
	bancho.WriteHandleOsuUpdate(w, sess.Stats)
	bancho.WriteChannelJoinSuccess(w, defaultChannel)

	// Everyone already online, then the bot. Peer-scan failures abort the
	// login: a client that never learns who is online is worse than a
	// retried login.
	if err := s.presence.WriteOnline(ctx, w, token); err != nil {
		return "", nil, fmt.Errorf("enumerating online peers: %w", err)
	}
	bot := session.Bot()
	bancho.WriteUserPresence(w, bot.Presence)
	bancho.WriteHandleOsuUpdate(w, bot.Stats)

	// Announce the newcomer to peers before the session is persisted, so
	// the fan-out cannot loop back into its own buffer.
	s.presence.Broadcast(ctx, session.PresencePayload(sess), token)

	if err := s.store.PutSession(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("persisting session: %w", err)
	}
	if err := s.store.PutBuffer(ctx, token, nil); err != nil {
		return "", nil, fmt.Errorf("creating buffer: %w", err)
	}

	slog.Info("login success", "username", user.Username, "id", user.ID, "token", token)
	return token, w.Bytes(), nil
}

// usernameSafe is the canonical lookup form of a username: lowercase with
// spaces replaced by underscores.
func usernameSafe(username string) string {
	return strings.ReplaceAll(strings.ToLower(username), " ", "_")
}

func loginReply(code int32) []byte {
	w := bancho.NewWriter(16)
	bancho.WriteLoginReply(w, code)
	return w.Bytes()
}
