package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/huddleup/huddle/internal/auth"
	"github.com/huddleup/huddle/internal/engine"
	"github.com/huddleup/huddle/internal/storage/sqlite"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "server-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})

	eng := engine.New(store)
	authn := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return New(eng, authn, jwtManager).Router()
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// registerAndLogin creates an account and returns a session token.
func registerAndLogin(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := doRequest(t, handler, http.MethodPost, "/register", "", map[string]string{
		"email":    "test@example.com",
		"name":     "Tester",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	var session sessionResponse
	decodeBody(t, rec, &session)
	if session.Token == "" {
		t.Fatal("register returned empty token")
	}
	return session.Token
}

func createTestGroup(t *testing.T, handler http.Handler, token string, handles ...string) string {
	t.Helper()

	members := make([]map[string]string, len(handles))
	for i, h := range handles {
		members[i] = map[string]string{"id": h, "handle": h}
	}
	rec := doRequest(t, handler, http.MethodPost, "/api/groups", token, map[string]any{
		"name":    "Test Group",
		"members": members,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group status = %d, body %s", rec.Code, rec.Body.String())
	}

	var group groupResponse
	decodeBody(t, rec, &group)
	return group.ID
}

func TestAuthFlow(t *testing.T) {
	handler := newTestHandler(t)

	// Protected routes reject missing and garbage tokens.
	if rec := doRequest(t, handler, http.MethodGet, "/api/groups", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/api/groups", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	token := registerAndLogin(t, handler)
	if rec := doRequest(t, handler, http.MethodGet, "/api/groups", token, nil); rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}

	// Duplicate email registration conflicts.
	rec := doRequest(t, handler, http.MethodPost, "/register", "", map[string]string{
		"email": "test@example.com", "name": "Again", "password": "correct-horse",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	// Wrong password is unauthorized.
	rec = doRequest(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email": "test@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/login", "", map[string]string{
		"email": "test@example.com", "password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLedgerFlow(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler)
	groupID := createTestGroup(t, handler, token, "A", "B", "C")

	rec := doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/expenses", token, map[string]any{
		"payer":            "A",
		"description":      "Dinner",
		"amountMinorUnits": 300,
		"participants":     []string{"A", "B", "C"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record expense status = %d, body %s", rec.Code, rec.Body.String())
	}
	var entry expenseResponse
	decodeBody(t, rec, &entry)
	if len(entry.Shares) != 3 || entry.Shares[0] != 100 {
		t.Errorf("shares = %v, want [100 100 100]", entry.Shares)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/groups/"+groupID+"/balances", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balances status = %d", rec.Code)
	}
	var balances map[string]int64
	decodeBody(t, rec, &balances)
	if balances["A"] != 200 || balances["B"] != -100 || balances["C"] != -100 {
		t.Errorf("balances = %v, want A:200 B:-100 C:-100", balances)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/groups/"+groupID+"/settlements/suggest", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest status = %d", rec.Code)
	}
	var transfers []transferResponse
	decodeBody(t, rec, &transfers)
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2: %v", len(transfers), transfers)
	}
	if transfers[0].From != "B" || transfers[0].To != "A" || transfers[0].AmountMinorUnits != 100 {
		t.Errorf("transfers[0] = %v, want B->A 100", transfers[0])
	}

	// Applying both transfers zeroes every balance.
	for _, tr := range transfers {
		rec = doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/settlements", token, map[string]any{
			"from": tr.From, "to": tr.To, "amountMinorUnits": tr.AmountMinorUnits,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("apply settlement status = %d, body %s", rec.Code, rec.Body.String())
		}
	}
	rec = doRequest(t, handler, http.MethodGet, "/api/groups/"+groupID+"/balances", token, nil)
	decodeBody(t, rec, &balances)
	for id, b := range balances {
		if b != 0 {
			t.Errorf("balance[%s] = %d after settling, want 0", id, b)
		}
	}

	// Voiding reverses the entry; voiding again conflicts.
	rec = doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/expenses/"+entry.ID+"/void", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("void status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/expenses/"+entry.ID+"/void", token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double void status = %d, want 409", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler)
	groupID := createTestGroup(t, handler, token, "A", "B")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{
			name: "missing group", method: http.MethodGet,
			path: "/api/groups/no-such-group", want: http.StatusNotFound,
		},
		{
			name: "zero amount", method: http.MethodPost,
			path: "/api/groups/" + groupID + "/expenses",
			body: map[string]any{"payer": "A", "amountMinorUnits": 0, "participants": []string{"A"}},
			want: http.StatusBadRequest,
		},
		{
			name: "unknown participant", method: http.MethodPost,
			path: "/api/groups/" + groupID + "/expenses",
			body: map[string]any{"payer": "A", "amountMinorUnits": 100, "participants": []string{"A", "ghost"}},
			want: http.StatusBadRequest,
		},
		{
			name: "bad shares", method: http.MethodPost,
			path: "/api/groups/" + groupID + "/expenses",
			body: map[string]any{"payer": "A", "amountMinorUnits": 100, "participants": []string{"A", "B"}, "shares": []int64{60, 39}},
			want: http.StatusBadRequest,
		},
		{
			name: "duplicate member", method: http.MethodPost,
			path: "/api/groups/" + groupID + "/members",
			body: map[string]string{"id": "A", "handle": "Alice again"},
			want: http.StatusConflict,
		},
		{
			name: "one poll option", method: http.MethodPost,
			path: "/api/groups/" + groupID + "/polls",
			body: map[string]any{"question": "Q?", "options": []string{"only"}},
			want: http.StatusBadRequest,
		},
		{
			name: "missing poll", method: http.MethodGet,
			path: "/api/polls/no-such-poll/results", want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, handler, tt.method, tt.path, token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestPollFlow(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler)
	groupID := createTestGroup(t, handler, token, "A", "B", "C", "D")

	rec := doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/polls", token, map[string]any{
		"question": "Movie night?",
		"options":  []string{"Yes", "No"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create poll status = %d, body %s", rec.Code, rec.Body.String())
	}
	var poll pollResponse
	decodeBody(t, rec, &poll)
	if len(poll.Options) != 2 || poll.Status != "open" {
		t.Fatalf("poll = %+v", poll)
	}
	yes := poll.Options[0].ID

	vote := func(member string) *httptest.ResponseRecorder {
		return doRequest(t, handler, http.MethodPost, "/api/polls/"+poll.ID+"/votes", token,
			map[string]string{"memberId": member, "optionId": yes})
	}

	if rec := vote("A"); rec.Code != http.StatusOK {
		t.Fatalf("first vote status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Default quorum is half the group: the second distinct voter closes
	// the poll and later votes conflict.
	if rec := vote("B"); rec.Code != http.StatusOK {
		t.Fatalf("second vote status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := vote("C"); rec.Code != http.StatusConflict {
		t.Errorf("vote after quorum status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/polls/"+poll.ID+"/results", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	var result resultResponse
	decodeBody(t, rec, &result)
	if result.Status != "closed_quorum" {
		t.Errorf("status = %s, want closed_quorum", result.Status)
	}
	if result.TotalVotes != 2 || len(result.Leaders) != 1 || result.Leaders[0] != yes {
		t.Errorf("result = %+v, want 2 votes with leader %s", result, yes)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/groups/"+groupID+"/polls", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list polls status = %d", rec.Code)
	}
	var polls []pollListItem
	decodeBody(t, rec, &polls)
	if len(polls) != 1 || polls[0].Results.TotalVotes != 2 {
		t.Errorf("polls = %+v, want one poll with 2 votes", polls)
	}
}

func TestManualClose(t *testing.T) {
	handler := newTestHandler(t)
	token := registerAndLogin(t, handler)
	groupID := createTestGroup(t, handler, token, "A", "B", "C")

	rec := doRequest(t, handler, http.MethodPost, "/api/groups/"+groupID+"/polls", token, map[string]any{
		"question": "Q?", "options": []string{"a", "b"},
	})
	var poll pollResponse
	decodeBody(t, rec, &poll)

	if rec := doRequest(t, handler, http.MethodPost, "/api/polls/"+poll.ID+"/close", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("close status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, handler, http.MethodPost, "/api/polls/"+poll.ID+"/close", token, nil); rec.Code != http.StatusConflict {
		t.Errorf("double close status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/polls/"+poll.ID+"/results", token, nil)
	var result resultResponse
	decodeBody(t, rec, &result)
	if result.Status != "closed_manual" {
		t.Errorf("status = %s, want closed_manual", result.Status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	handler := newTestHandler(t)

	if rec := doRequest(t, handler, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
}
