package bancho

// Packet ids are shared with a closed-source client; the wire numbers
// below must never change.

// Client → server packet ids.
const (
	ClientChangeStatus        int16 = 0
	ClientSendPublicMessage   int16 = 1
	ClientLogout              int16 = 2
	ClientRequestStatusUpdate int16 = 3
	ClientPing                int16 = 4
	ClientSendPrivateMessage  int16 = 25
	ClientChannelJoin         int16 = 63
)

// Server → client packet ids.
const (
	ServerLoginReply             int16 = 5
	ServerSendMessage            int16 = 7
	ServerPing                   int16 = 8
	ServerHandleOsuUpdate        int16 = 11
	ServerHandleUserQuit         int16 = 12
	ServerSpectatorJoined        int16 = 13
	ServerSpectatorLeft          int16 = 14
	ServerSpectatorCantSpectate  int16 = 22
	ServerAnnounce               int16 = 24
	ServerChannelJoinSuccess     int16 = 64
	ServerChannelAvailable       int16 = 65
	ServerChannelRevoked         int16 = 66
	ServerLoginPermissions       int16 = 71
	ServerProtocolNegotiation    int16 = 75
	ServerUserPresence           int16 = 83
	ServerChannelListingComplete int16 = 89
	ServerUserPmBlocked          int16 = 94
	ServerTargetIsSilenced       int16 = 95
	ServerVersionUpdateForced    int16 = 97
	ServerSwitchServer           int16 = 103
	ServerAccountRestricted      int16 = 104
	ServerRTX                    int16 = 105
)

// Mod bitmask flags consulted by the dispatcher.
const (
	ModRelax     uint32 = 0x80
	ModAutopilot uint32 = 0x2000
)
