package vcntyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// expirySkew refreshes tokens slightly before they actually expire.
const expirySkew = time.Minute

var ErrNotLoggedIn = errors.New("not logged in: run `vcnty auth login` first")

// AuthState is the persisted identity-provider session.
type AuthState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
}

func (s AuthState) ExpiresTime() time.Time {
	if s.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// Expired reports whether the access token should no longer be used. States
// without an expiry never expire.
func (s AuthState) Expired(now time.Time) bool {
	if s.ExpiresAt <= 0 {
		return false
	}
	return !now.Add(expirySkew).Before(s.ExpiresTime())
}

func DefaultAuthStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".vcnty", "auth-state.json"), nil
}

func LoadAuthState(path string) (AuthState, error) {
	content, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return AuthState{}, ErrNotLoggedIn
		}
		return AuthState{}, fmt.Errorf("read auth state file: %w", err)
	}

	var state AuthState
	if err := json.Unmarshal(content, &state); err != nil {
		return AuthState{}, fmt.Errorf("decode auth state file: %w", err)
	}
	if strings.TrimSpace(state.AccessToken) == "" {
		return AuthState{}, ErrNotLoggedIn
	}
	return state, nil
}

func SaveAuthState(path string, state AuthState) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("auth state path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create auth state directory: %w", err)
	}
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write auth state file: %w", err)
	}
	return nil
}

// IsSessionStorageKey matches the browser storage key under which the
// identity provider keeps its session (sb-<project>-auth-token).
func IsSessionStorageKey(key string) bool {
	return strings.HasPrefix(key, "sb-") && strings.HasSuffix(key, "-auth-token") && len(key) > len("sb--auth-token")
}

type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// ParseSessionJSON converts an identity-provider session document (as stored
// in the browser or returned by the token endpoint) into an AuthState.
func ParseSessionJSON(raw []byte, now time.Time) (AuthState, error) {
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AuthState{}, fmt.Errorf("decode session: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return AuthState{}, errors.New("session has no access token")
	}

	expiresAt := payload.ExpiresAt
	if expiresAt <= 0 && payload.ExpiresIn > 0 {
		expiresAt = now.Add(time.Duration(payload.ExpiresIn) * time.Second).Unix()
	}
	return AuthState{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    expiresAt,
		UserID:       payload.User.ID,
		Email:        payload.User.Email,
	}, nil
}

type StateTokenConfig struct {
	StatePath   string
	IdentityURL string
	AnonKey     string
	HTTPClient  httpDoer
}

// StateTokenSource serves the access token from the auth state file and
// refreshes it through the identity provider when it has expired.
type StateTokenSource struct {
	statePath   string
	identityURL string
	anonKey     string
	httpClient  httpDoer
	now         func() time.Time

	mu    sync.Mutex
	state *AuthState
}

func NewStateTokenSource(cfg StateTokenConfig) (*StateTokenSource, error) {
	statePath := strings.TrimSpace(cfg.StatePath)
	if statePath == "" {
		resolved, err := DefaultAuthStatePath()
		if err != nil {
			return nil, err
		}
		statePath = resolved
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &StateTokenSource{
		statePath:   statePath,
		identityURL: strings.TrimRight(strings.TrimSpace(cfg.IdentityURL), "/"),
		anonKey:     strings.TrimSpace(cfg.AnonKey),
		httpClient:  doer,
		now:         time.Now,
	}, nil
}

func (s *StateTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		state, err := LoadAuthState(s.statePath)
		if err != nil {
			return "", err
		}
		s.state = &state
	}

	if !s.state.Expired(s.now()) {
		return s.state.AccessToken, nil
	}
	if s.identityURL == "" || s.state.RefreshToken == "" {
		return "", fmt.Errorf("access token expired at %s: run `vcnty auth login` again", s.state.ExpiresTime().Format(time.RFC3339))
	}

	refreshed, err := s.refresh(ctx, s.state.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := SaveAuthState(s.statePath, refreshed); err != nil {
		return "", err
	}
	s.state = &refreshed
	return refreshed.AccessToken, nil
}

func (s *StateTokenSource) refresh(ctx context.Context, refreshToken string) (AuthState, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return AuthState{}, fmt.Errorf("marshal refresh request: %w", err)
	}

	endpoint := s.identityURL + "/auth/v1/token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return AuthState{}, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.anonKey != "" {
		req.Header.Set("apikey", s.anonKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return AuthState{}, fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return AuthState{}, fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AuthState{}, fmt.Errorf("refresh access token failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	state, err := ParseSessionJSON(body, s.now())
	if err != nil {
		return AuthState{}, err
	}
	if state.RefreshToken == "" {
		state.RefreshToken = refreshToken
	}
	return state, nil
}
