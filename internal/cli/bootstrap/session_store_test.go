package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsrepo "BookmarkAdmin/internal/cli/repo/fs"
	"BookmarkAdmin/internal/cli/repo/memory"
	redisrepo "BookmarkAdmin/internal/cli/repo/redis"
	"BookmarkAdmin/internal/cli/repo/sqlstore"
	"BookmarkAdmin/internal/config"
)

func TestOpenSessionStore_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	cases := []struct {
		store string
		check func(t *testing.T, v any)
	}{
		{BackendFile, func(t *testing.T, v any) { assert.IsType(t, fsrepo.FSStore{}, v) }},
		{BackendSQLite, func(t *testing.T, v any) { assert.IsType(t, &sqlstore.Store{}, v) }},
		{BackendRedis, func(t *testing.T, v any) { assert.IsType(t, &redisrepo.Store{}, v) }},
		{BackendMemory, func(t *testing.T, v any) { assert.IsType(t, &memory.Store{}, v) }},
	}
	for _, c := range cases {
		t.Run(c.store, func(t *testing.T) {
			cfg := &config.Config{
				SessionStore: c.store,
				SessionDir:   filepath.Join(dir, c.store),
				SessionDSN:   filepath.Join(dir, c.store, "session.sqlite"),
				RedisAddr:    mr.Addr(),
			}
			st, cleanup, err := OpenSessionStore(ctx, cfg)
			require.NoError(t, err)
			defer func() { require.NoError(t, cleanup()) }()
			c.check(t, st)

			require.NoError(t, st.Set(ctx, "admin_token", "T1"))
			got, err := st.Get(ctx, "admin_token")
			require.NoError(t, err)
			assert.Equal(t, "T1", got)
		})
	}
}

func TestOpenSessionStore_Unknown(t *testing.T) {
	_, _, err := OpenSessionStore(context.Background(), &config.Config{SessionStore: "floppy"})
	assert.ErrorContains(t, err, "unknown session store")
}
