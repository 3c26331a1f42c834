package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/redis"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
)

const (
	// EnvConnection overrides the Postgres connection string
	EnvConnection = "HABITLIT_DB_CONNECTION"
	// EnvSyncToken overrides the keyring sync token
	EnvSyncToken = "HABITLIT_SYNC_TOKEN"
)

// SyncToken returns the bearer token for the sync endpoints, or ""
func SyncToken() string {
	if env := strings.TrimSpace(os.Getenv(EnvSyncToken)); env != "" {
		return env
	}
	return keyring.Lookup(keyring.SyncToken)
}

// OpenStorage builds the provider selected by cfg. It does not connect.
func OpenStorage(cfg config.StorageConfig) (storage.Provider, error) {
	switch cfg.Backend {
	case "", constants.BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = config.DefaultDBPath()
		}
		return sqlite.NewStore(path), nil

	case constants.BackendFile:
		path := cfg.Path
		if path == "" {
			path = config.DefaultFilePath()
		}
		return storage.NewFileStore(path), nil

	case constants.BackendMemory:
		return storage.NewMemoryStore(), nil

	case constants.BackendPostgres:
		connStr, err := postgresConnString(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr), nil

	case constants.BackendRedis:
		return redis.New(redisAddr(cfg), cfg.KeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// postgresConnString resolves the connection string. The configured DSN must
// be password-free; the keyring and the environment may carry one.
func postgresConnString(dsn string) (string, error) {
	if dsn != "" {
		if err := postgres.ValidateConnString(dsn); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return "", fmt.Errorf("%w; store it with 'habitlit config set-connection' or set %s", err, EnvConnection)
			}
			return "", err
		}
		return dsn, nil
	}
	if env := strings.TrimSpace(os.Getenv(EnvConnection)); env != "" {
		return env, nil
	}
	if stored := keyring.Lookup(keyring.ConnectionString); stored != "" {
		return stored, nil
	}
	return "", fmt.Errorf("no PostgreSQL connection configured: set storage.dsn, %s, or run 'habitlit config set-connection'", EnvConnection)
}

// redisAddr folds redis_db into a bare host:port address
func redisAddr(cfg config.StorageConfig) string {
	addr := cfg.RedisAddr
	if cfg.RedisDB > 0 && !strings.Contains(addr, "://") {
		return "redis://" + addr + "/" + strconv.Itoa(cfg.RedisDB)
	}
	return addr
}
