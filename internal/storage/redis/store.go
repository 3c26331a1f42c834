package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
)

// markerKey is written by Init so Load can tell an empty keyspace from an
// initialized one.
const markerKey = "meta:initialized"

// Store keeps each storage key as a plain Redis string under a prefix
type Store struct {
	url    string
	prefix string
	rdb    *goredis.Client
}

// New accepts a redis:// URL or a bare host:port
func New(url, prefix string) *Store {
	if prefix == "" {
		prefix = constants.DefaultKeyPrefix
	}
	return &Store{url: url, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) options() (*goredis.Options, error) {
	if strings.Contains(s.url, "://") {
		opts, err := goredis.ParseURL(s.url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	if strings.TrimSpace(s.url) == "" {
		return nil, errors.New("invalid redis url: empty address")
	}
	return &goredis.Options{Addr: s.url}, nil
}

func (s *Store) connect() error {
	if s.rdb != nil {
		return nil
	}
	opts, err := s.options()
	if err != nil {
		return err
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	s.rdb = rdb
	return nil
}

func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rdb.SetNX(ctx, s.key(markerKey), time.Now().UTC().Format(constants.TimestampFormat), 0).Err(); err != nil {
		return fmt.Errorf("failed to initialize keyspace: %w", err)
	}
	logger.Info("Redis storage initialized", "prefix", s.prefix)
	return nil
}

func (s *Store) Load() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := s.rdb.Exists(ctx, s.key(markerKey)).Result()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage not initialized, run 'habitlit init' first")
	}
	return nil
}

func (s *Store) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.url + " (prefix " + s.prefix + ")"
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// SetMany uses MSET, which Redis applies atomically
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	pairs := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, s.key(k), v)
	}
	if err := s.rdb.MSet(ctx, pairs...).Err(); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

var (
	_ storage.Provider = (*Store)(nil)
	_ storage.Batcher  = (*Store)(nil)
)
