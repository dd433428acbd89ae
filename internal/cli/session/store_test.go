package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"BookmarkAdmin/internal/cli/api"
	"BookmarkAdmin/internal/cli/api/apitest"
	"BookmarkAdmin/internal/cli/repo"
	"BookmarkAdmin/internal/cli/repo/memory"
)

// мок для Authenticator
type mockAuth struct{ mock.Mock }

func (m *mockAuth) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if r, ok := args.Get(0).(*api.LoginResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ Authenticator = (*mockAuth)(nil)

func newStore(t *testing.T, kv repo.KVStore, auth Authenticator) *Store {
	t.Helper()
	s, err := New(context.Background(), kv, auth, nil)
	require.NoError(t, err)
	return s
}

func TestStore_InitFromStorage(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	s := newStore(t, kv, &mockAuth{})
	assert.False(t, s.IsLoggedIn())
	assert.Equal(t, Session{}, s.Snapshot())

	_ = kv.Set(ctx, KeyToken, "T0")
	_ = kv.Set(ctx, KeyEmail, "old@b.com")
	s = newStore(t, kv, &mockAuth{})
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, "T0", s.Token())
	assert.Equal(t, "old@b.com", s.Email())
}

func TestStore_LoginPersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	m := new(mockAuth)
	payload := &api.LoginResponse{Token: "T1", Email: "a@b.com"}
	m.On("Login", mock.Anything, "a@b.com", "pw").Return(payload, nil).Once()

	s := newStore(t, kv, m)
	resp, err := s.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	assert.Same(t, payload, resp)
	assert.True(t, s.IsLoggedIn())

	tok, _ := kv.Get(ctx, KeyToken)
	email, _ := kv.Get(ctx, KeyEmail)
	assert.Equal(t, "T1", tok)
	assert.Equal(t, "a@b.com", email)
	m.AssertExpectations(t)
}

func TestStore_LogoutClearsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	m := new(mockAuth)
	m.On("Login", mock.Anything, "a@b.com", "pw").Return(&api.LoginResponse{Token: "T1", Email: "a@b.com"}, nil)

	s := newStore(t, kv, m)
	_, err := s.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	s.Logout(ctx)
	assert.False(t, s.IsLoggedIn())
	assert.False(t, kv.Has(KeyToken))
	assert.False(t, kv.Has(KeyEmail))
	first := s.Snapshot()

	s.Logout(ctx)
	assert.Equal(t, first, s.Snapshot())
	assert.False(t, kv.Has(KeyToken))
	assert.False(t, kv.Has(KeyEmail))
}

func TestStore_FailedLoginKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Set(ctx, KeyToken, "T0")
	_ = kv.Set(ctx, KeyEmail, "old@b.com")

	boom := errors.New("connection refused")
	m := new(mockAuth)
	m.On("Login", mock.Anything, "a@b.com", "pw").Return(nil, boom).Once()

	s := newStore(t, kv, m)
	resp, err := s.Login(ctx, "a@b.com", "pw")
	assert.Nil(t, resp)
	assert.Same(t, boom, err, "error must be propagated unchanged")
	assert.Equal(t, Session{Token: "T0", Email: "old@b.com"}, s.Snapshot())
	tok, _ := kv.Get(ctx, KeyToken)
	assert.Equal(t, "T0", tok)
}

type failingKV struct {
	*memory.Store
	failSet    bool
	failSetKey string
	failRemove bool
	failGet    bool
}

func (f *failingKV) Get(ctx context.Context, k string) (string, error) {
	if f.failGet {
		return "", errors.New("disk gone")
	}
	return f.Store.Get(ctx, k)
}

func (f *failingKV) Set(ctx context.Context, k, v string) error {
	if f.failSet || (f.failSetKey != "" && f.failSetKey == k) {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, k, v)
}

func (f *failingKV) Remove(ctx context.Context, k string) error {
	if f.failRemove {
		return errors.New("read-only")
	}
	return f.Store.Remove(ctx, k)
}

func TestStore_StorageFailures(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, &failingKV{Store: memory.New(), failGet: true}, &mockAuth{}, nil)
	assert.Error(t, err)

	kv := &failingKV{Store: memory.New(), failSet: true}
	m := new(mockAuth)
	m.On("Login", mock.Anything, "a@b.com", "pw").Return(&api.LoginResponse{Token: "T1", Email: "a@b.com"}, nil)
	s := newStore(t, kv, m)
	resp, err := s.Login(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, ErrNotPersisted)
	require.NotNil(t, resp)
	assert.True(t, s.IsLoggedIn(), "session stays valid for this process")

	kv.failRemove = true
	s.Logout(ctx) // must not panic or report
	assert.False(t, s.IsLoggedIn())
}

func TestStore_EmailWriteFailureRollsBackToken(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(), failSetKey: KeyEmail}
	m := new(mockAuth)
	m.On("Login", mock.Anything, "a@b.com", "pw").Return(&api.LoginResponse{Token: "T1", Email: "a@b.com"}, nil)
	s := newStore(t, kv, m)

	resp, err := s.Login(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, ErrNotPersisted)
	require.NotNil(t, resp)
	assert.Equal(t, Session{Token: "T1", Email: "a@b.com"}, s.Snapshot())
	assert.False(t, kv.Has(KeyToken), "token must not be left without email")

	reopened := newStore(t, kv.Store, m)
	assert.False(t, reopened.IsLoggedIn())
	assert.Empty(t, reopened.Email())
}

// blockingAuth lets the test control when each login resolves.
type blockingAuth struct {
	entered chan string
	release map[string]chan struct{}
}

func (b *blockingAuth) Login(ctx context.Context, email, _ string) (*api.LoginResponse, error) {
	b.entered <- email
	<-b.release[email]
	return &api.LoginResponse{Token: "tok-" + email, Email: email}, nil
}

func TestStore_OverlappingLoginsAreSequenced(t *testing.T) {
	ctx := context.Background()
	auth := &blockingAuth{
		entered: make(chan string, 2),
		release: map[string]chan struct{}{"first": make(chan struct{}), "second": make(chan struct{})},
	}
	s := newStore(t, memory.New(), auth)

	done := make(chan struct{}, 2)
	go func() { _, _ = s.Login(ctx, "first", "pw"); done <- struct{}{} }()
	require.Equal(t, "first", <-auth.entered)

	go func() { _, _ = s.Login(ctx, "second", "pw"); done <- struct{}{} }()
	select {
	case e := <-auth.entered:
		t.Fatalf("second login must wait for the first, but %q entered", e)
	case <-time.After(50 * time.Millisecond):
	}
	// reads are not blocked by the in-flight login
	assert.False(t, s.IsLoggedIn())

	close(auth.release["first"])
	<-done
	require.Equal(t, "second", <-auth.entered)
	close(auth.release["second"])
	<-done

	assert.Equal(t, Session{Token: "tok-second", Email: "second"}, s.Snapshot())
}

func TestStore_WithAPIClient(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("a@b.com", "pw", true)

	ctx := context.Background()
	kv := memory.New()
	client := api.New(srv.APIURL())
	s := newStore(t, kv, client)
	client.SetTokenSource(s)

	_, err := s.Login(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, s.IsLoggedIn())

	_, err = s.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	_, err = client.Stats(ctx)
	require.NoError(t, err)

	reqs := srv.Requests()
	assert.Equal(t, "Bearer "+s.Token(), reqs[len(reqs)-1].Authorization)
}
