package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestApp(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"user_id": 1, "name": "Ada"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	created := decodeBody(t, resp)
	code := created["code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected six character code, got %q", code)
	}
	if created["qr_url"] != "/api/sessions/"+code+"/qr" {
		t.Fatalf("unexpected qr url %#v", created["qr_url"])
	}
	if !strings.HasSuffix(created["join_url"].(string), "/?code="+code) {
		t.Fatalf("unexpected join url %#v", created["join_url"])
	}

	joinSession(t, ts, strings.ToLower(code), 2, "Brook")
	joinSession(t, ts, code, 3, "Cy")

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+code, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	snapshot := decodeBody(t, resp)
	if snapshot["phase"] != "lobby" {
		t.Fatalf("expected lobby phase, got %#v", snapshot["phase"])
	}
	players := snapshot["players"].([]any)
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	for _, raw := range players {
		if _, leaked := raw.(map[string]any)["role"]; leaked {
			t.Fatalf("session snapshot must not expose roles: %#v", raw)
		}
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/leave", map[string]any{"user_id": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	snapshot = decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/sessions/"+code, nil))
	if snapshot["host"] != float64(2) {
		t.Fatalf("expected host to pass to user 2, got %#v", snapshot["host"])
	}

	list := decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/sessions", nil))
	sessions := list["sessions"].([]any)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
}

func TestJoinErrors(t *testing.T) {
	_, ts := newTestApp(t)
	code := createSession(t, ts, 1, "Ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/ZZZZZZ/join", map[string]any{"user_id": 2, "name": "Brook"})
	expectError(t, resp, http.StatusNotFound, "session not found")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"user_id": 1, "name": "Ada"})
	expectError(t, resp, http.StatusConflict, "already in another session")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]any{"user_id": 2, "name": "<script>"})
	expectError(t, resp, http.StatusBadRequest, "name must be 1-20 letters, digits or simple punctuation")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]any{"name": "Brook"})
	expectError(t, resp, http.StatusBadRequest, "user_id is required")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/leave", map[string]any{"user_id": 9})
	expectError(t, resp, http.StatusNotFound, "not in a session")
}

func TestJoinAfterStartIsRejected(t *testing.T) {
	_, ts := newTestApp(t)
	code := createSession(t, ts, 1, "Ada")
	for user := int64(2); user <= 4; user++ {
		joinSession(t, ts, code, user, "p"+string(rune('0'+user)))
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/actions", map[string]any{"user_id": 1, "action": "start"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, resp.StatusCode)
	}
	snapshot := decodeBody(t, doRequest(t, ts, http.MethodGet, "/api/sessions/"+code, nil))
	if snapshot["phase"] != "setup" {
		t.Fatalf("expected setup phase, got %#v", snapshot["phase"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+code+"/join", map[string]any{"user_id": 5, "name": "Late"})
	expectError(t, resp, http.StatusConflict, "game already started")
}

func TestActionValidation(t *testing.T) {
	_, ts := newTestApp(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/actions", map[string]any{"user_id": 1, "action": "start"})
	expectError(t, resp, http.StatusNotFound, "not in a session")

	createSession(t, ts, 1, "Ada")
	resp = doRequest(t, ts, http.MethodPost, "/api/actions", map[string]any{"user_id": 1, "action": "DROP TABLE"})
	expectError(t, resp, http.StatusBadRequest, "action is malformed")

	resp = doRequest(t, ts, http.MethodPost, "/api/confirmations/task", map[string]any{"user_id": 1})
	expectError(t, resp, http.StatusBadRequest, "photo is required")

	resp = doRequest(t, ts, http.MethodPost, "/api/confirmations/sabotage", map[string]any{"user_id": 1, "photo": "repair.jpg"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, resp.StatusCode)
	}
}

func TestSessionQR(t *testing.T) {
	_, ts := newTestApp(t)
	code := createSession(t, ts, 1, "Ada")

	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/"+code+"/qr", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected png payload")
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/NOPE42/qr", nil)
	expectError(t, resp, http.StatusNotFound, "session not found")
}

func TestMatchesWithoutArchive(t *testing.T) {
	_, ts := newTestApp(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/matches", nil)
	expectError(t, resp, http.StatusServiceUnavailable, "match archive is disabled")

	resp = doRequest(t, ts, http.MethodGet, "/api/matches/1", nil)
	expectError(t, resp, http.StatusServiceUnavailable, "match archive is disabled")
}

func TestPagesRender(t *testing.T) {
	_, ts := newTestApp(t)
	code := createSession(t, ts, 1, "Ada")

	resp := doRequest(t, ts, http.MethodGet, "/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	page := string(data)
	if !strings.Contains(page, code) {
		t.Fatalf("expected status page to list %s", code)
	}
	if !strings.Contains(page, "The match archive is disabled.") {
		t.Fatalf("expected archive notice on status page")
	}

	resp = doRequest(t, ts, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("expected html, got %q", got)
	}
}
