// Package backend builds the storage, session and event stream backends that
// studybot commands share, from resolved viper configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/pkg/dotdir"
	"github.com/papercomputeco/studybot/pkg/eventstream"
	"github.com/papercomputeco/studybot/pkg/eventstream/kafka"
	"github.com/papercomputeco/studybot/pkg/eventstream/nop"
	"github.com/papercomputeco/studybot/pkg/session"
	"github.com/papercomputeco/studybot/pkg/session/inmemory"
	"github.com/papercomputeco/studybot/pkg/session/redis"
	"github.com/papercomputeco/studybot/pkg/storage"
	storageinmemory "github.com/papercomputeco/studybot/pkg/storage/inmemory"
	"github.com/papercomputeco/studybot/pkg/storage/postgres"
	"github.com/papercomputeco/studybot/pkg/storage/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLibSQL   = "libsql"
	DriverMemory   = "memory"

	ProviderRedis  = "redis"
	ProviderMemory = "memory"
	ProviderKafka  = "kafka"
	ProviderNone   = "none"
)

// ErrLibSQLUnavailable is returned when the binary was built without the
// libsql build tag.
var ErrLibSQLUnavailable = errors.New("libsql storage requires a build with -tags libsql")

// ResolveSQLitePath picks the SQLite database file: an explicit override,
// then STUDYBOT_SQLITE, then studybot.sqlite inside the resolved .studybot/
// directory.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("STUDYBOT_SQLITE")); envPath != "" {
		return envPath, nil
	}

	path, err := dotdir.NewManager().DatabasePath(configDir)
	if err != nil {
		return "", fmt.Errorf("could not resolve studybot SQLite database: %w", err)
	}
	return path, nil
}

// NewStorageDriver opens the fact repository selected by storage.driver.
func NewStorageDriver(ctx context.Context, v *viper.Viper, configDir string, log *slog.Logger) (storage.Driver, error) {
	driver := strings.ToLower(v.GetString("storage.driver"))
	switch driver {
	case "", DriverSQLite:
		path, err := ResolveSQLitePath(v.GetString("storage.sqlite_path"), configDir)
		if err != nil {
			return nil, err
		}
		d, err := sqlite.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", path)
		return d, nil

	case DriverPostgres:
		dsn := v.GetString("storage.postgres_dsn")
		if dsn == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		d, err := postgres.NewDriver(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return d, nil

	case DriverLibSQL:
		path := v.GetString("storage.libsql_path")
		if path == "" {
			return nil, errors.New("storage.libsql_path is required for the libsql driver")
		}
		d, err := openLibSQL(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Info("using libSQL storage", "path", path)
		return d, nil

	case DriverMemory:
		log.Info("using in-memory storage")
		return storageinmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}

// NewSessionCache opens the snapshot cache selected by session.provider.
func NewSessionCache(ctx context.Context, v *viper.Viper, log *slog.Logger) (session.Cache, error) {
	provider := strings.ToLower(v.GetString("session.provider"))
	switch provider {
	case "", ProviderMemory:
		log.Info("using in-memory session cache")
		return inmemory.NewCache(), nil

	case ProviderRedis:
		addr := v.GetString("session.redis_addr")
		c, err := redis.NewCache(ctx, redis.Config{
			Addr:     addr,
			Password: v.GetString("session.redis_password"),
			DB:       v.GetInt("session.redis_db"),
		})
		if err != nil {
			return nil, err
		}
		log.Info("using redis session cache", "addr", addr)
		return c, nil

	default:
		return nil, fmt.Errorf("unknown session provider: %q", provider)
	}
}

// NewSessionStore wraps the configured cache in a session.Store.
func NewSessionStore(ctx context.Context, v *viper.Viper, users session.UserSource, log *slog.Logger) (*session.Store, error) {
	cache, err := NewSessionCache(ctx, v, log)
	if err != nil {
		return nil, err
	}

	ttl, err := Duration(v, "session.ttl")
	if err != nil {
		cache.Close()
		return nil, err
	}

	store, err := session.NewStore(&session.Config{
		Cache:  cache,
		Users:  users,
		TTL:    ttl,
		Logger: log,
	})
	if err != nil {
		cache.Close()
		return nil, err
	}
	return store, nil
}

// NewPublisher creates the review event publisher selected by events.provider.
func NewPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	provider := strings.ToLower(v.GetString("events.provider"))
	switch provider {
	case "", ProviderNone:
		return nop.NewPublisher(), nil

	case ProviderKafka:
		brokers := SplitList(v.GetString("events.kafka_brokers"))
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   v.GetString("events.kafka_topic"),
		})
		if err != nil {
			return nil, err
		}
		log.Info("publishing review events to kafka", "brokers", brokers)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown events provider: %q", provider)
	}
}

// Duration parses a duration-valued config key.
func Duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
