package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gammaosu/gamma/internal/bancho"
	"github.com/gammaosu/gamma/internal/session"
)

func TestDispatch_InvalidToken(t *testing.T) {
	srv := New(session.NewMemoryStore(), &fakeUserStore{})

	_, err := srv.dispatch(context.Background(), "no-such-token", nil)

	var ext *ExternalError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "token is invalid", ext.Reason)
}

func TestDispatch_UnknownThenChannelJoin(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)

	body := clientFrame(99, func(w *bancho.Writer) {
		w.WriteRaw([]byte{0xAA, 0xBB})
	})
	body = append(body, clientFrame(bancho.ClientChannelJoin, func(w *bancho.Writer) {
		w.WriteString("#x")
	})...)

	resp, err := srv.dispatch(ctx, "tok", body)
	require.NoError(t, err)

	// Exactly one ChannelJoinSuccess and nothing else: the unknown frame
	// did not corrupt decoding of the one after it.
	assert.Equal(t, []int16{bancho.ServerChannelJoinSuccess}, frameIDs(t, resp))

	frame, err := bancho.NewFrameReader(resp).Next()
	require.NoError(t, err)
	name, err := bancho.NewReader(frame.Payload).ReadString()
	require.NoError(t, err)
	assert.Equal(t, "#x", name)
}

func TestDispatch_FlushOrdering(t *testing.T) {
	// Start with shared buffer [A,B,C]; a concurrent worker appends [D,E]
	// while the request runs; the request's private output is the join
	// reply [X...]. Stored buffer after flush = [D,E]+private, response =
	// [A,B,C,D,E]+private.
	ctx := context.Background()
	mem := session.NewMemoryStore()
	store := &countingStore{Store: mem}
	srv := New(store, &fakeUserStore{})
	seedSession(t, mem, "tok", "alice", 1)

	original := []byte{0xA1, 0xB2, 0xC3}
	require.NoError(t, mem.PutBuffer(ctx, "tok", original))

	concurrent := []byte{0xD4, 0xE5}
	store.onPutSession = func() {
		require.NoError(t, mem.AppendBuffer(ctx, "tok", concurrent))
	}

	body := clientFrame(bancho.ClientChannelJoin, func(w *bancho.Writer) {
		w.WriteString("#x")
	})
	private := bancho.NewWriter(32)
	bancho.WriteChannelJoinSuccess(private, "#x")

	resp, err := srv.dispatch(ctx, "tok", body)
	require.NoError(t, err)

	wantStored := append(append([]byte{}, concurrent...), private.Bytes()...)
	wantResp := append(append([]byte{}, original...), wantStored...)
	assert.Equal(t, wantResp, resp, "response = original + concurrent appends + private output")

	stored, err := mem.GetBuffer(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, wantStored, stored, "stored = concurrent appends + private output")
}

func TestDispatch_OnePutSessionOnePutBuffer(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: session.NewMemoryStore()}
	srv := New(store, &fakeUserStore{})
	seedSession(t, store.Store, "tok", "alice", 1)

	body := clientFrame(bancho.ClientPing, func(*bancho.Writer) {})
	body = append(body, clientFrame(bancho.ClientChannelJoin, func(w *bancho.Writer) {
		w.WriteString("#osu")
	})...)

	_, err := srv.dispatch(ctx, "tok", body)
	require.NoError(t, err)

	assert.Equal(t, 1, store.putSessions)
	assert.Equal(t, 1, store.putBuffers)
}

func TestDispatch_TruncatedFrameAbortsRequest(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: session.NewMemoryStore()}
	srv := New(store, &fakeUserStore{})
	seedSession(t, store.Store, "tok", "alice", 1)

	// A good frame followed by a header over-claiming its payload.
	body := clientFrame(bancho.ClientChannelJoin, func(w *bancho.Writer) {
		w.WriteString("#x")
	})
	body = append(body, 0x63, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0xAA)

	_, err := srv.dispatch(ctx, "tok", body)

	var ext *ExternalError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, 0, store.putSessions, "nothing is committed on a malformed request")
	assert.Equal(t, 0, store.putBuffers)
}

func TestDispatch_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)
	seedSession(t, store, "peer", "bob", 2)

	status := bancho.ClientStatus{
		Status:          2,
		StatusText:      "playing",
		BeatmapChecksum: "cafebabe",
		CurrentMods:     0,
		PlayMode:        1,
		BeatmapID:       99,
	}

	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientChangeStatus, statusPayload(status)))
	require.NoError(t, err)

	// Caller gets its own update back.
	assert.Equal(t, []int16{bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))

	// Session state was replaced and persisted.
	sess, err := store.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, status, sess.Stats.Status)

	// Peer got the broadcast; caller's shared buffer was not re-polluted.
	peerBuf, err := store.GetBuffer(ctx, "peer")
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerHandleOsuUpdate}, frameIDs(t, peerBuf))

	callerBuf, err := store.GetBuffer(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerHandleOsuUpdate}, frameIDs(t, callerBuf))
}

func TestDispatch_RelaxToggleAnnounces(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)

	on := bancho.ClientStatus{CurrentMods: bancho.ModRelax}
	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientChangeStatus, statusPayload(on)))
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerAnnounce, bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))

	sess, err := store.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, sess.Relax)

	// Same mods again: no second announce.
	require.NoError(t, store.PutBuffer(ctx, "tok", nil))
	resp, err = srv.dispatch(ctx, "tok", clientFrame(bancho.ClientChangeStatus, statusPayload(on)))
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))

	// Clearing the bit announces disablement.
	require.NoError(t, store.PutBuffer(ctx, "tok", nil))
	off := bancho.ClientStatus{CurrentMods: 0}
	resp, err = srv.dispatch(ctx, "tok", clientFrame(bancho.ClientChangeStatus, statusPayload(off)))
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerAnnounce, bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))

	sess, err = store.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, sess.Relax)
}

func TestDispatch_AutopilotToggle(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)

	on := bancho.ClientStatus{CurrentMods: bancho.ModAutopilot}
	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientChangeStatus, statusPayload(on)))
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerAnnounce, bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))

	sess, err := store.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, sess.Autopilot)
	assert.False(t, sess.Relax)
}

func TestDispatch_PrivateMessage(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok-a", "alice", 1)
	seedSession(t, store, "tok-b", "bob", 2)

	msg := bancho.Message{Message: "hi bob", Target: "bob"}
	_, err := srv.dispatch(ctx, "tok-a", clientFrame(bancho.ClientSendPrivateMessage, messagePayload(msg)))
	require.NoError(t, err)

	bobBuf, err := store.GetBuffer(ctx, "tok-b")
	require.NoError(t, err)

	frame, err := bancho.NewFrameReader(bobBuf).Next()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, bancho.ServerSendMessage, frame.ID)

	got, err := bancho.ReadMessage(bancho.NewReader(frame.Payload))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.SendingClient, "sender is taken from the session, not the client")
	assert.Equal(t, int32(1), got.SenderID)
	assert.Equal(t, "hi bob", got.Message)
}

func TestDispatch_BotPM(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)

	msg := bancho.Message{Message: "!help", Target: BotName}
	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientSendPrivateMessage, messagePayload(msg)))
	require.NoError(t, err)

	assert.Equal(t, []int16{bancho.ServerAnnounce}, frameIDs(t, resp))

	frame, err := bancho.NewFrameReader(resp).Next()
	require.NoError(t, err)
	text, err := bancho.NewReader(frame.Payload).ReadString()
	require.NoError(t, err)
	assert.Contains(t, text, "!help")
}

func TestDispatch_Logout(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)
	seedSession(t, store, "peer", "bob", 2)

	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientLogout, func(w *bancho.Writer) {
		w.WriteInt32(0)
	}))
	require.NoError(t, err)
	assert.Empty(t, frameIDs(t, resp))

	_, err = store.GetSession(ctx, "tok")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.GetBuffer(ctx, "tok")
	assert.ErrorIs(t, err, session.ErrNotFound)

	peerBuf, err := store.GetBuffer(ctx, "peer")
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerHandleUserQuit}, frameIDs(t, peerBuf))
}

func TestDispatch_RequestStatusUpdate(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	srv := New(store, &fakeUserStore{})
	seedSession(t, store, "tok", "alice", 1)

	resp, err := srv.dispatch(ctx, "tok", clientFrame(bancho.ClientRequestStatusUpdate, func(*bancho.Writer) {}))
	require.NoError(t, err)
	assert.Equal(t, []int16{bancho.ServerHandleOsuUpdate}, frameIDs(t, resp))
}
