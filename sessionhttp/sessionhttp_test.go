package sessionhttp

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejustinson/temp-wallet-test/session"
)

func TestNew_servesSnapshot(t *testing.T) {
	sess := session.NewSession(session.Config{})
	handler := New(sess)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"State": "setup"`)
	assert.Contains(t, w.Body.String(), `"ObservedBalance": 0`)
}

func TestNew_allowsCrossOriginReads(t *testing.T) {
	sess := session.NewSession(session.Config{})
	handler := New(sess)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, 200, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
