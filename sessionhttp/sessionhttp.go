// Package sessionhttp exposes a read-only HTTP endpoint serving the current
// session snapshot as JSON, for displaying session progress outside the
// console. It accepts no intents; starting and resetting a session stays with
// the presenter.
package sessionhttp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/thejustinson/temp-wallet-test/session"
)

func New(s *session.Session) http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/", handleSnapshot(s))
	return cors.Default().Handler(m)
}

func handleSnapshot(s *session.Session) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.Snapshot()
		v := struct {
			State    string
			Snapshot session.Snapshot
		}{
			State:    snapshot.State.String(),
			Snapshot: snapshot,
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err := enc.Encode(v)
		if err != nil {
			panic(err)
		}
	}
}
