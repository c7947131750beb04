package vcntyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSessionJSON(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"access_token":"at","refresh_token":"rt","expires_at":1767225600,"token_type":"bearer","user":{"id":"u1","email":"seller@example.com"}}`)
	state, err := ParseSessionJSON(raw, time.Now())
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if state.AccessToken != "at" || state.RefreshToken != "rt" || state.ExpiresAt != 1767225600 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.UserID != "u1" || state.Email != "seller@example.com" {
		t.Fatalf("unexpected user: %+v", state)
	}
}

func TestParseSessionJSON_ExpiresIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state, err := ParseSessionJSON([]byte(`{"access_token":"at","expires_in":3600}`), now)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if state.ExpiresAt != now.Add(time.Hour).Unix() {
		t.Fatalf("unexpected expiry: %d", state.ExpiresAt)
	}

	if _, err := ParseSessionJSON([]byte(`{"refresh_token":"rt"}`), now); err == nil {
		t.Fatalf("expected error for session without access token")
	}
}

func TestIsSessionStorageKey(t *testing.T) {
	t.Parallel()

	if !IsSessionStorageKey("sb-abcd-auth-token") {
		t.Fatalf("expected key to match")
	}
	for _, key := range []string{"sb--auth-token", "auth-token", "sb-abcd-auth-token-code-verifier"} {
		if IsSessionStorageKey(key) {
			t.Fatalf("did not expect %q to match", key)
		}
	}
}

func TestSaveAndLoadAuthState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "auth-state.json")
	want := AuthState{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 42, Email: "a@b.c"}
	if err := SaveAuthState(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected permissions: %v", info.Mode().Perm())
	}
	got, err := LoadAuthState(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestLoadAuthState_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadAuthState(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestStateTokenSource_ValidTokenSkipsRefresh(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "auth-state.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := SaveAuthState(path, AuthState{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now.Add(time.Hour).Unix()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	source, err := NewStateTokenSource(StateTokenConfig{
		StatePath:   path,
		IdentityURL: "https://id.vcnty.test",
		HTTPClient: fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
			t.Fatalf("no refresh expected")
			return nil, nil
		}},
	})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	source.now = func() time.Time { return now }

	token, err := source.Token(context.Background())
	if err != nil || token != "at" {
		t.Fatalf("unexpected token %q err %v", token, err)
	}
}

func TestStateTokenSource_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "auth-state.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := SaveAuthState(path, AuthState{AccessToken: "old", RefreshToken: "rt", ExpiresAt: now.Add(-time.Minute).Unix()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls := 0
	source, err := NewStateTokenSource(StateTokenConfig{
		StatePath:   path,
		IdentityURL: "https://id.vcnty.test/",
		AnonKey:     "anon",
		HTTPClient: fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
			calls++
			if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "refresh_token" {
				return nil, fmt.Errorf("unexpected request %s %s", r.Method, r.URL.String())
			}
			if r.Header.Get("apikey") != "anon" {
				t.Fatalf("missing apikey header")
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["refresh_token"] != "rt" {
				t.Fatalf("unexpected refresh token: %v", body)
			}
			return jsonResponse(map[string]any{
				"access_token":  "new",
				"refresh_token": "rt2",
				"expires_in":    3600,
			}), nil
		}},
	})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	source.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		token, err := source.Token(context.Background())
		if err != nil || token != "new" {
			t.Fatalf("unexpected token %q err %v", token, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected exactly one refresh, got %d", calls)
	}

	saved, err := LoadAuthState(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved.AccessToken != "new" || saved.RefreshToken != "rt2" {
		t.Fatalf("refreshed state not saved: %+v", saved)
	}
}

func TestStateTokenSource_ExpiredWithoutIdentityURL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "auth-state.json")
	if err := SaveAuthState(path, AuthState{AccessToken: "old", RefreshToken: "rt", ExpiresAt: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	source, err := NewStateTokenSource(StateTokenConfig{StatePath: path})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, err := source.Token(context.Background()); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
