package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gammaosu/gamma/internal/bancho"
	"github.com/gammaosu/gamma/internal/db"
	"github.com/gammaosu/gamma/internal/session"
)

// fakeUserStore is an in-memory UserStore for tests.
type fakeUserStore struct {
	users    map[string]*db.User     // by username_safe
	stats    map[int32]*db.UserStats // by user id, mode 0
	channels []db.Channel
}

func (f *fakeUserStore) GetUserBySafeName(_ context.Context, safeName string) (*db.User, error) {
	return f.users[safeName], nil
}

func (f *fakeUserStore) GetUserStats(_ context.Context, userID int32, _ uint8) (*db.UserStats, error) {
	return f.stats[userID], nil
}

func (f *fakeUserStore) ListChannels(_ context.Context) ([]db.Channel, error) {
	return f.channels, nil
}

// countingStore counts writes and can run a hook after PutSession, which
// is how the tests simulate a concurrent worker appending mid-request.
type countingStore struct {
	session.Store
	putSessions  int
	putBuffers   int
	onPutSession func()
}

func (s *countingStore) PutSession(ctx context.Context, sess session.Session) error {
	s.putSessions++
	if err := s.Store.PutSession(ctx, sess); err != nil {
		return err
	}
	if s.onPutSession != nil {
		s.onPutSession()
	}
	return nil
}

func (s *countingStore) PutBuffer(ctx context.Context, token string, buf []byte) error {
	s.putBuffers++
	return s.Store.PutBuffer(ctx, token, buf)
}

// seedSession puts a live session + empty buffer directly into the store.
func seedSession(t *testing.T, store session.Store, token, username string, id int32) session.Session {
	t.Helper()
	sess := session.Session{
		ID:    id,
		Token: token,
		Presence: bancho.Presence{
			PlayerID: id,
			Username: username,
		},
		Stats: bancho.Stats{PlayerID: id},
	}
	require.NoError(t, store.PutSession(context.Background(), sess))
	require.NoError(t, store.PutBuffer(context.Background(), token, nil))
	return sess
}

// frameIDs decodes body and returns the packet ids in order.
func frameIDs(t *testing.T, body []byte) []int16 {
	t.Helper()
	var ids []int16
	fr := bancho.NewFrameReader(body)
	for {
		frame, err := fr.Next()
		require.NoError(t, err)
		if frame == nil {
			return ids
		}
		ids = append(ids, frame.ID)
	}
}

// clientFrame builds one framed client packet.
func clientFrame(id int16, payload func(*bancho.Writer)) []byte {
	w := bancho.NewWriter(64)
	w.WithHeader(id, payload)
	return w.Bytes()
}

func statusPayload(status bancho.ClientStatus) func(*bancho.Writer) {
	return func(w *bancho.Writer) {
		w.WriteUint8(status.Status)
		w.WriteString(status.StatusText)
		w.WriteString(status.BeatmapChecksum)
		w.WriteUint32(status.CurrentMods)
		w.WriteUint8(status.PlayMode)
		w.WriteInt32(status.BeatmapID)
	}
}

func messagePayload(m bancho.Message) func(*bancho.Writer) {
	return func(w *bancho.Writer) {
		w.WriteString(m.SendingClient)
		w.WriteString(m.Message)
		w.WriteString(m.Target)
		w.WriteInt32(m.SenderID)
	}
}
