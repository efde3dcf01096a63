package server

import (
	"context"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gammaosu/gamma/internal/db"
	"github.com/gammaosu/gamma/internal/session"
)

// Banner returned by GET /.
const banner = "theta! Gamma Server\n"

// UserStore is the slice of the relational store the server consumes.
// Used for dependency injection in tests.
type UserStore interface {
	// GetUserBySafeName returns nil, nil when the user does not exist.
	GetUserBySafeName(ctx context.Context, safeName string) (*db.User, error)

	// GetUserStats returns nil, nil when no stats row exists.
	GetUserStats(ctx context.Context, userID int32, mode uint8) (*db.UserStats, error)

	// ListChannels returns all chat channels.
	ListChannels(ctx context.Context) ([]db.Channel, error)
}

// Server is the stateless HTTP front-end. All cross-request state lives in
// the shared store; one Server instance handles any number of concurrent
// requests without in-process session state.
type Server struct {
	store    session.Store
	users    UserStore
	presence *session.Engine
}

// New creates a Server over the shared store and the relational store.
func New(store session.Store, users UserStore) *Server {
	return &Server{
		store:    store,
		users:    users,
		presence: session.NewEngine(store),
	}
}

// Handler returns the HTTP surface: the bancho endpoint on / and the
// Prometheus endpoint on /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			s.handleIndex(w, r)
		case http.MethodPost:
			s.handleBancho(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
	metrics := promhttp.Handler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		metrics.ServeHTTP(w, r)
	})
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, banner)
}

// handleBancho routes a POST on the osu-token header: absent means login,
// present means a poll for the session it names.
func (s *Server) handleBancho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, malformedPacket("reading request body: "+err.Error()))
		return
	}

	token := r.Header.Get("osu-token")
	if token == "" {
		requestsTotal.WithLabelValues("login").Inc()
		tok, resp, err := s.auth(r.Context(), body, r.RemoteAddr)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("cho-token", tok)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(resp)
		return
	}

	if !utf8.ValidString(token) {
		writeError(w, errInvalidToken)
		return
	}

	requestsTotal.WithLabelValues("poll").Inc()
	resp, err := s.dispatch(r.Context(), token, body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(resp)
}
