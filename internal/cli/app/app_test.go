package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BookmarkAdmin/internal/cli/api"
	"BookmarkAdmin/internal/cli/api/apitest"
	"BookmarkAdmin/internal/cli/repo/memory"
	"BookmarkAdmin/internal/cli/session"
	"BookmarkAdmin/internal/config"
)

type recordingNav struct{ paths []string }

func (r *recordingNav) Navigate(p string) { r.paths = append(r.paths, p) }

func wire(t *testing.T, srv *apitest.Server, kv *memory.Store) (*App, *recordingNav) {
	t.Helper()
	nav := &recordingNav{}
	a, err := Wire(context.Background(), &config.Config{APIURL: srv.APIURL()}, kv, nav, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, nav
}

func TestUnauthorized_LogsOutNavigatesOnceAndPropagates(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("a@b.com", "pw", true)

	ctx := context.Background()
	kv := memory.New()
	// протухший токен лежит в хранилище с прошлого запуска
	_ = kv.Set(ctx, session.KeyToken, "stale-token")
	_ = kv.Set(ctx, session.KeyEmail, "a@b.com")

	a, nav := wire(t, srv, kv)
	require.True(t, a.Session.IsLoggedIn())

	_, err := a.API.Stats(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized, "original error must still reach the caller")

	assert.False(t, a.Session.IsLoggedIn())
	assert.Empty(t, a.Session.Email())
	assert.False(t, kv.Has(session.KeyToken))
	assert.False(t, kv.Has(session.KeyEmail))
	assert.Equal(t, []string{LoginPath}, nav.paths)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer stale-token", reqs[0].Authorization)
}

func TestLoginThenAuthorizedCalls(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("a@b.com", "pw", true)

	ctx := context.Background()
	kv := memory.New()
	a, nav := wire(t, srv, kv)

	// неверный пароль: ошибка, без навигации
	_, err := a.Session.Login(ctx, "a@b.com", "nope")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, nav.paths)

	resp, err := a.Session.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	tok, _ := kv.Get(ctx, session.KeyToken)
	assert.Equal(t, resp.Token, tok)

	users, err := a.API.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Empty(t, nav.paths)

	a.Session.Logout(ctx)
	_, err = a.API.ListUsers(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, []string{LoginPath}, nav.paths)
	last := srv.Requests()[len(srv.Requests())-1]
	assert.Empty(t, last.Authorization)
}

func TestExpiredToken(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	id := srv.AddUser("a@b.com", "pw", true)

	ctx := context.Background()
	kv := memory.New()
	_ = kv.Set(ctx, session.KeyToken, srv.Token(id, -time.Minute))
	a, nav := wire(t, srv, kv)

	_, err := a.API.GetUser(ctx, id)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, a.Session.IsLoggedIn())
	assert.Len(t, nav.paths, 1)
}

func TestOpen_FileStoreAndConsoleNavigator(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("a@b.com", "pw", true)

	dir := t.TempDir()
	cfg := &config.Config{
		APIURL:       srv.APIURL(),
		SessionStore: "file",
		SessionDir:   filepath.Join(dir, "session"),
		LogLevel:     "error",
	}
	var out bytes.Buffer
	ctx := context.Background()

	a, err := Open(ctx, cfg, &out)
	require.NoError(t, err)
	_, err = a.Session.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// новый процесс видит сохранённую сессию
	b, err := Open(ctx, cfg, &out)
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Session.IsLoggedIn())
	assert.Equal(t, "a@b.com", b.Session.Email())

	assert.Equal(t, "/", b.Navigator.(*ConsoleNavigator).Current())

	b.Session.Logout(ctx)
	c, err := Open(ctx, cfg, &out)
	require.NoError(t, err)
	defer c.Close()
	assert.False(t, c.Session.IsLoggedIn())
}

func TestOpen_BadConfig(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{LogLevel: "loud"}, nil)
	assert.Error(t, err)
	_, err = Open(context.Background(), &config.Config{LogLevel: "info", SessionStore: "floppy"}, nil)
	assert.Error(t, err)
}

func TestConsoleNavigator(t *testing.T) {
	var out bytes.Buffer
	n := NewConsoleNavigator(&out)
	assert.Equal(t, "/", n.Current())
	n.Navigate("/users")
	assert.Empty(t, out.String())
	n.Navigate(LoginPath)
	assert.Equal(t, LoginPath, n.Current())
	assert.Contains(t, out.String(), "admincli login")

	var got string
	NavigatorFunc(func(p string) { got = p }).Navigate("/x")
	assert.Equal(t, "/x", got)
}
