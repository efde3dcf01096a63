package server

import (
	"errors"
	"log/slog"
	"net/http"
)

// ExternalError is a client-attributable failure whose reason is safe to
// return in the 400 body. Everything else is internal: the detail is
// logged and the client sees a fixed 500 string.
type ExternalError struct {
	Reason string
}

func (e *ExternalError) Error() string {
	return e.Reason
}

var errInvalidToken = &ExternalError{Reason: "token is invalid"}

func malformedPacket(reason string) error {
	return &ExternalError{Reason: "malformed packet: " + reason}
}

// writeError maps an error to its HTTP response and logs it.
func writeError(w http.ResponseWriter, err error) {
	var ext *ExternalError
	if errors.As(err, &ext) {
		slog.Warn("request rejected", "err", ext.Reason)
		http.Error(w, ext.Reason, http.StatusBadRequest)
		return
	}
	slog.Error("internal error", "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
