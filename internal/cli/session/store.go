// Package session holds the console's authentication state: the bearer token
// and the email it was issued for, mirrored into a persistent KVStore so the
// session survives restarts until an explicit logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"BookmarkAdmin/internal/cli/api"
	"BookmarkAdmin/internal/cli/repo"
)

// Persistent storage keys.
const (
	KeyToken = "admin_token"
	KeyEmail = "admin_email"
)

// ErrNotPersisted wraps storage failures after a successful login. The session is
// valid for this process but will not survive a restart.
var ErrNotPersisted = errors.New("session not persisted")

// Authenticator exchanges credentials for a token. *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
}

// Session is a snapshot of the authentication state. An empty Token means logged out.
type Session struct {
	Token string
	Email string
}

func (s Session) LoggedIn() bool { return s.Token != "" }

// Store owns the in-memory session and is the only writer of its storage keys.
type Store struct {
	kv   repo.KVStore
	auth Authenticator
	log  *zap.SugaredLogger

	// loginMu sequences logins: overlapping calls run one after another, so the
	// last one issued decides the final state.
	loginMu sync.Mutex

	mu    sync.RWMutex
	token string
	email string
}

var _ api.TokenSource = (*Store)(nil)

// New loads the persisted session (absent keys mean logged out).
func New(ctx context.Context, kv repo.KVStore, auth Authenticator, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	token, err := kv.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyToken, err)
	}
	email, err := kv.Get(ctx, KeyEmail)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyEmail, err)
	}
	return &Store{kv: kv, auth: auth, log: log, token: token, email: email}, nil
}

// Login authenticates and, on success, stores token and email in memory and in
// persistent storage. On failure the error is returned unchanged and the current
// session is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.email = resp.Email
	s.mu.Unlock()

	if err := s.kv.Set(ctx, KeyToken, resp.Token); err != nil {
		return resp, fmt.Errorf("%w: %s: %v", ErrNotPersisted, KeyToken, err)
	}
	if err := s.kv.Set(ctx, KeyEmail, resp.Email); err != nil {
		// токен без email не оставляем: следующий запуск начнётся разлогиненным
		if rerr := s.kv.Remove(ctx, KeyToken); rerr != nil {
			s.log.Warnw("failed to roll back session key", "key", KeyToken, "error", rerr)
		}
		return resp, fmt.Errorf("%w: %s: %v", ErrNotPersisted, KeyEmail, err)
	}
	s.log.Infow("logged in", "email", resp.Email)
	return resp, nil
}

// Logout clears the session and removes both storage keys. It cannot fail and
// calling it on an empty session is a no-op; storage errors are only logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	was := s.email
	s.token = ""
	s.email = ""
	s.mu.Unlock()

	for _, k := range []string{KeyToken, KeyEmail} {
		if err := s.kv.Remove(ctx, k); err != nil {
			s.log.Warnw("failed to remove session key", "key", k, "error", err)
		}
	}
	if was != "" {
		s.log.Infow("logged out", "email", was)
	}
}

// Token returns the current bearer token or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// IsLoggedIn reports whether a token is present.
func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token, Email: s.email}
}
