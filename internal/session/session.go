package session

import (
	"github.com/gammaosu/gamma/internal/bancho"
	"github.com/gammaosu/gamma/internal/db"
)

// Session is the per-login state shared across workers through the
// key/value store. It is serialized as JSON under sessions::<token>.
type Session struct {
	ID        int32           `json:"id"`
	Token     string          `json:"token"`
	Presence  bancho.Presence `json:"presence"`
	Stats     bancho.Stats    `json:"stats"`
	Relax     bool            `json:"relax"`
	Autopilot bool            `json:"autopilot"`

	// Parsed from the login blob but not consulted yet.
	ShowCity bool `json:"show_city"`
	AllowPMs bool `json:"allow_pms"`
}

// Build materializes a Session from the user and stats rows.
func Build(token string, user db.User, stats db.UserStats, login *bancho.LoginData) Session {
	presence := bancho.Presence{
		PlayerID:    user.ID,
		Username:    user.Username,
		Timezone:    0,
		CountryCode: CountryCode(user.Country),
		PlayMode:    0,
		Permissions: 4,
	}

	st := bancho.Stats{
		PlayerID:    user.ID,
		RankedScore: stats.RankedScore,
		TotalScore:  stats.TotalScore,
		Accuracy:    stats.AvgAccuracy,
		Performance: stats.Performance,
	}

	return Session{
		ID:       user.ID,
		Token:    token,
		Presence: presence,
		Stats:    st,
		ShowCity: login.ShowCity != 0,
		AllowPMs: login.AllowPMs != 0,
	}
}

// Bot is the fixed server-side session every client sees online.
func Bot() Session {
	return Session{
		ID:    3,
		Token: "",
		Presence: bancho.Presence{
			PlayerID:    3,
			Username:    "GammaBot",
			Timezone:    24,
			CountryCode: 0,
			PlayMode:    0,
			Permissions: 8,
		},
		Stats: bancho.Stats{
			PlayerID: 3,
			Status: bancho.ClientStatus{
				StatusText: "Helping run Gamma",
			},
			TotalScore: 1337,
		},
	}
}
