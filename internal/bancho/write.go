package bancho

// Server-packet writers. Each appends one complete, length-correct frame
// to w.

// WriteLoginReply writes the login response; negative ids are error codes.
func WriteLoginReply(w *Writer, playerID int32) {
	w.WithHeader(ServerLoginReply, func(w *Writer) {
		w.WriteInt32(playerID)
	})
}

// WriteSendMessage writes a chat message addressed to a user or channel.
func WriteSendMessage(w *Writer, m Message) {
	w.WithHeader(ServerSendMessage, func(w *Writer) {
		writeMessage(w, m)
	})
}

// WritePing writes the server keepalive.
func WritePing(w *Writer) {
	w.WithHeader(ServerPing, func(*Writer) {})
}

// WriteHandleOsuUpdate writes a stats update for one player.
func WriteHandleOsuUpdate(w *Writer, s Stats) {
	w.WithHeader(ServerHandleOsuUpdate, func(w *Writer) {
		w.WriteInt32(s.PlayerID)
		w.WriteUint8(s.Status.Status)
		w.WriteString(s.Status.StatusText)
		w.WriteString(s.Status.BeatmapChecksum)
		w.WriteUint32(s.Status.CurrentMods)
		w.WriteUint8(s.Status.PlayMode)
		w.WriteInt32(s.Status.BeatmapID)
	})
}

// WriteHandleUserQuit announces a player going offline.
func WriteHandleUserQuit(w *Writer, playerID int32) {
	w.WithHeader(ServerHandleUserQuit, func(w *Writer) {
		w.WriteInt32(playerID)
		w.WriteBool(false)
	})
}

// WriteSpectatorJoined announces a spectator joining the host's stream.
func WriteSpectatorJoined(w *Writer, playerID int32) {
	w.WithHeader(ServerSpectatorJoined, func(w *Writer) {
		w.WriteInt32(playerID)
	})
}

// WriteSpectatorLeft announces a spectator leaving the host's stream.
func WriteSpectatorLeft(w *Writer, playerID int32) {
	w.WithHeader(ServerSpectatorLeft, func(w *Writer) {
		w.WriteInt32(playerID)
	})
}

// WriteSpectatorCantSpectate flags a spectator with no map to watch on.
func WriteSpectatorCantSpectate(w *Writer, playerID int32) {
	w.WithHeader(ServerSpectatorCantSpectate, func(w *Writer) {
		w.WriteInt32(playerID)
	})
}

// WriteAnnounce writes a server notice shown in the client's chat.
func WriteAnnounce(w *Writer, text string) {
	w.WithHeader(ServerAnnounce, func(w *Writer) {
		w.WriteString(text)
	})
}

// WriteChannelJoinSuccess confirms a channel join.
func WriteChannelJoinSuccess(w *Writer, name string) {
	w.WithHeader(ServerChannelJoinSuccess, func(w *Writer) {
		w.WriteString(name)
	})
}

// WriteChannelAvailable advertises one joinable channel.
func WriteChannelAvailable(w *Writer, ch Channel) {
	w.WithHeader(ServerChannelAvailable, func(w *Writer) {
		w.WriteString(ch.Name)
		w.WriteString(ch.Topic)
		w.WriteInt16(ch.Connected)
	})
}

// WriteChannelRevoked removes a channel from the client's list.
func WriteChannelRevoked(w *Writer, name string) {
	w.WithHeader(ServerChannelRevoked, func(w *Writer) {
		w.WriteString(name)
	})
}

// WriteLoginPermissions writes the caller's permission bits.
func WriteLoginPermissions(w *Writer, permissions uint8) {
	w.WithHeader(ServerLoginPermissions, func(w *Writer) {
		w.WriteUint8(permissions)
	})
}

// WriteProtocolNegotiation writes the protocol version in use.
func WriteProtocolNegotiation(w *Writer, version int32) {
	w.WithHeader(ServerProtocolNegotiation, func(w *Writer) {
		w.WriteInt32(version)
	})
}

// WriteUserPresence writes one player's presence record.
func WriteUserPresence(w *Writer, p Presence) {
	w.WithHeader(ServerUserPresence, func(w *Writer) {
		w.WriteInt32(p.PlayerID)
		w.WriteString(p.Username)
		w.WriteUint8(p.Timezone)
		w.WriteUint8(p.CountryCode)
		w.WriteUint8(p.PlayMode)
		w.WriteFloat32(p.Longitude)
		w.WriteFloat32(p.Latitude)
		w.WriteInt32(p.PlayerRank)
	})
}

// WriteChannelListingComplete marks the end of the channel listing.
func WriteChannelListingComplete(w *Writer) {
	w.WithHeader(ServerChannelListingComplete, func(w *Writer) {
		w.WriteInt32(0)
	})
}

// WriteUserPmBlocked tells the sender their PM was blocked.
func WriteUserPmBlocked(w *Writer, m Message) {
	w.WithHeader(ServerUserPmBlocked, func(w *Writer) {
		writeMessage(w, m)
	})
}

// WriteTargetIsSilenced tells the sender the PM target is silenced.
func WriteTargetIsSilenced(w *Writer, m Message) {
	w.WithHeader(ServerTargetIsSilenced, func(w *Writer) {
		writeMessage(w, m)
	})
}

// WriteVersionUpdateForced forces the client to update.
func WriteVersionUpdateForced(w *Writer) {
	w.WithHeader(ServerVersionUpdateForced, func(*Writer) {})
}

// WriteSwitchServer redirects the client to another server.
func WriteSwitchServer(w *Writer, server string) {
	w.WithHeader(ServerSwitchServer, func(w *Writer) {
		w.WriteString(server)
	})
}

// WriteAccountRestricted flags the account as restricted.
func WriteAccountRestricted(w *Writer) {
	w.WithHeader(ServerAccountRestricted, func(*Writer) {})
}

// WriteRTX shows a flashing alert in the client.
func WriteRTX(w *Writer, text string) {
	w.WithHeader(ServerRTX, func(w *Writer) {
		w.WriteString(text)
	})
}

func writeMessage(w *Writer, m Message) {
	w.WriteString(m.SendingClient)
	w.WriteString(m.Message)
	w.WriteString(m.Target)
	w.WriteInt32(m.SenderID)
}
