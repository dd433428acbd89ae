package bootstrap

import (
	"context"
	"fmt"

	"BookmarkAdmin/internal/cli/repo"
	fsrepo "BookmarkAdmin/internal/cli/repo/fs"
	keyringrepo "BookmarkAdmin/internal/cli/repo/keyring"
	"BookmarkAdmin/internal/cli/repo/memory"
	redisrepo "BookmarkAdmin/internal/cli/repo/redis"
	"BookmarkAdmin/internal/cli/repo/sqlstore"
	"BookmarkAdmin/internal/config"
)

// Backend names accepted by SESSION_STORE / --store.
const (
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

func noop() error { return nil }

// OpenSessionStore открывает хранилище сессии, выбранное в конфиге,
// и возвращает (store, cleanup, error).
// cleanup необходимо вызвать после окончания работы, чтобы закрыть соединения.
func OpenSessionStore(ctx context.Context, cfg *config.Config) (repo.KVStore, func() error, error) {
	switch cfg.SessionStore {
	case BackendFile, "":
		st, err := fsrepo.New(cfg.SessionDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open session dir: %w", err)
		}
		return st, noop, nil
	case BackendSQLite, "sql", "postgres":
		st, err := sqlstore.Open(cfg.SessionDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case BackendKeyring:
		st, err := keyringrepo.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open keyring: %w", err)
		}
		return st, noop, nil
	case BackendRedis:
		st, err := redisrepo.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case BackendMemory:
		return memory.New(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q (file|sqlite|keyring|redis|memory)", cfg.SessionStore)
	}
}
