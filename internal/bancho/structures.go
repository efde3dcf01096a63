package bancho

// Presence describes a logged-in player as broadcast to peers.
// CountryCode is the 1-based position in the country table; 0 is unknown.
type Presence struct {
	PlayerID    int32   `json:"player_id"`
	Username    string  `json:"username"`
	Timezone    uint8   `json:"timezone"`
	CountryCode uint8   `json:"country_code"`
	PlayMode    uint8   `json:"play_mode"`
	Permissions uint8   `json:"permissions"`
	Longitude   float32 `json:"longitude"`
	Latitude    float32 `json:"latitude"`
	PlayerRank  int32   `json:"player_rank"`
}

// ClientStatus is what the client reports it is currently doing.
type ClientStatus struct {
	Status          uint8  `json:"status"`
	StatusText      string `json:"status_text"`
	BeatmapChecksum string `json:"beatmap_checksum"`
	CurrentMods     uint32 `json:"current_mods"`
	PlayMode        uint8  `json:"play_mode"`
	BeatmapID       int32  `json:"beatmap_id"`
}

// Stats carries a player's aggregate performance plus their ClientStatus.
type Stats struct {
	PlayerID    int32        `json:"player_id"`
	Status      ClientStatus `json:"status"`
	RankedScore int64        `json:"ranked_score"`
	Accuracy    float32      `json:"accuracy"`
	PlayCount   int32        `json:"play_count"`
	TotalScore  int64        `json:"total_score"`
	Rank        int32        `json:"rank"`
	Performance int16        `json:"performance"`
}

// Message is a chat message, decoded from an incoming packet and
// re-emitted in outgoing ones.
type Message struct {
	SendingClient string `json:"sending_client"`
	Message       string `json:"message"`
	Target        string `json:"target"`
	SenderID      int32  `json:"sender_id"`
}

// Channel is a chat channel as advertised at login.
type Channel struct {
	Name      string `json:"name"`
	Topic     string `json:"topic"`
	Connected int16  `json:"connected"`
}

// The multiplayer structures below are wire definitions only; there is no
// match engine behind them.

// MatchSlot is one seat in a multiplayer lobby.
type MatchSlot struct {
	Status   uint8
	Team     uint8
	PlayerID int32
	SlotMods uint32

	Skipped   bool
	Completed bool
	Loaded    bool
}

// Match is the lobby state for one multiplayer game.
type Match struct {
	MatchID          int32
	InProgress       bool
	MatchType        uint8
	ActiveMods       uint32
	GameName         string
	GamePassword     string
	BeatmapName      string
	BeatmapID        int32
	BeatmapChecksum  string
	SlotStatus       []uint8
	SlotTeam         []uint8
	SlotID           []int32
	HostID           int32
	PlayMode         uint8
	MatchScoringType uint8
	MatchTeamType    uint8
	FreeMod          bool
	SlotMods         []uint32
	Seed             int32
}

// ScoreFrame is a live score snapshot during play.
type ScoreFrame struct {
	Time         int32
	ID           int32
	Count300     int16
	Count100     int16
	Count50      int16
	CountGeki    int16
	CountKatu    int16
	CountMiss    int16
	TotalScore   int32
	MaxCombo     int16
	CurrentCombo int16
	Perfect      bool
	CurrentHP    float32
	TagByte      uint8
	UsingScoreV2 bool
}

// ReplayFrame is a single input sample in a spectator stream.
type ReplayFrame struct {
	ButtonState uint8
	MouseX      int16
	MouseY      int16
	Time        int32
}

// ReplayFrameBundle groups replay frames with the score at that instant.
type ReplayFrameBundle struct {
	Extra      int32
	Frames     []ReplayFrame
	Action     int32
	ScoreFrame ScoreFrame
}
