package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent studybot configuration stored as
// config.toml in the .studybot/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	Session   SessionConfig   `toml:"session"`
	Messenger MessengerConfig `toml:"messenger"`
	Dialogue  DialogueConfig  `toml:"dialogue"`
	Reminder  ReminderConfig  `toml:"reminder"`
	API       APIConfig       `toml:"api"`
	Events    EventsConfig    `toml:"events"`
	Worker    WorkerConfig    `toml:"worker"`
}

// StorageConfig selects the fact repository backend.
type StorageConfig struct {
	// Driver is one of "sqlite", "postgres", "libsql" or "memory".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	LibSQLPath  string `toml:"libsql_path,omitempty"`
}

// SessionConfig selects the conversation snapshot cache.
type SessionConfig struct {
	// Provider is "redis" or "memory".
	Provider      string `toml:"provider,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`

	// TTL is the sliding idle expiry, as a Go duration string.
	TTL string `toml:"ttl,omitempty"`
}

// MessengerConfig holds Messenger Platform settings.
type MessengerConfig struct {
	APIURL          string `toml:"api_url,omitempty"`
	PageAccessToken string `toml:"page_access_token,omitempty"`
	VerifyToken     string `toml:"verify_token,omitempty"`
	MessageLimit    uint   `toml:"message_limit,omitempty"`
}

// DialogueConfig holds conversation settings.
type DialogueConfig struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold,omitempty"`
}

// ReminderConfig holds the periodic study prompt settings.
type ReminderConfig struct {
	// Interval is a Go duration string.
	Interval string `toml:"interval,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig selects where review events are published.
type EventsConfig struct {
	// Provider is "kafka" or "none".
	Provider     string `toml:"provider,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// WorkerConfig sizes the per-user worker pool.
type WorkerConfig struct {
	NumWorkers uint `toml:"num_workers,omitempty"`
	QueueSize  uint `toml:"queue_size,omitempty"`
}

// configKey binds a dotted key name to its field on *Config. get and set work
// on the string form used by "config get" and "config set"; value returns the
// typed field for viper defaults.
type configKey struct {
	name  string
	get   func(c *Config) string
	set   func(c *Config, v string) error
	value func(c *Config) any
}

func stringKey(name string, field func(c *Config) *string) configKey {
	return configKey{
		name:  name,
		get:   func(c *Config) string { return *field(c) },
		set:   func(c *Config, v string) error { *field(c) = v; return nil },
		value: func(c *Config) any { return *field(c) },
	}
}

func durationKey(name string, field func(c *Config) *string) configKey {
	k := stringKey(name, field)
	k.set = func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		*field(c) = v
		return nil
	}
	return k
}

func uintKey(name string, field func(c *Config) *uint) configKey {
	return configKey{
		name: name,
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
		value: func(c *Config) any { return *field(c) },
	}
}

// keyRegistry lists every supported key in config.toml section order.
var keyRegistry = []configKey{
	stringKey("storage.driver", func(c *Config) *string { return &c.Storage.Driver }),
	stringKey("storage.sqlite_path", func(c *Config) *string { return &c.Storage.SQLitePath }),
	stringKey("storage.postgres_dsn", func(c *Config) *string { return &c.Storage.PostgresDSN }),
	stringKey("storage.libsql_path", func(c *Config) *string { return &c.Storage.LibSQLPath }),

	stringKey("session.provider", func(c *Config) *string { return &c.Session.Provider }),
	stringKey("session.redis_addr", func(c *Config) *string { return &c.Session.RedisAddr }),
	stringKey("session.redis_password", func(c *Config) *string { return &c.Session.RedisPassword }),
	{
		name: "session.redis_db",
		get:  func(c *Config) string { return strconv.Itoa(c.Session.RedisDB) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for session.redis_db: %q", v)
			}
			c.Session.RedisDB = n
			return nil
		},
		value: func(c *Config) any { return c.Session.RedisDB },
	},
	durationKey("session.ttl", func(c *Config) *string { return &c.Session.TTL }),

	stringKey("messenger.api_url", func(c *Config) *string { return &c.Messenger.APIURL }),
	stringKey("messenger.page_access_token", func(c *Config) *string { return &c.Messenger.PageAccessToken }),
	stringKey("messenger.verify_token", func(c *Config) *string { return &c.Messenger.VerifyToken }),
	uintKey("messenger.message_limit", func(c *Config) *uint { return &c.Messenger.MessageLimit }),

	{
		name: "dialogue.confidence_threshold",
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Dialogue.ConfidenceThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("invalid value for dialogue.confidence_threshold: %q (must be between 0 and 1)", v)
			}
			c.Dialogue.ConfidenceThreshold = f
			return nil
		},
		value: func(c *Config) any { return c.Dialogue.ConfidenceThreshold },
	},

	durationKey("reminder.interval", func(c *Config) *string { return &c.Reminder.Interval }),

	stringKey("api.listen", func(c *Config) *string { return &c.API.Listen }),

	stringKey("events.provider", func(c *Config) *string { return &c.Events.Provider }),
	stringKey("events.kafka_brokers", func(c *Config) *string { return &c.Events.KafkaBrokers }),
	stringKey("events.kafka_topic", func(c *Config) *string { return &c.Events.KafkaTopic }),

	uintKey("worker.num_workers", func(c *Config) *uint { return &c.Worker.NumWorkers }),
	uintKey("worker.queue_size", func(c *Config) *uint { return &c.Worker.QueueSize }),
}

var configKeys = func() map[string]configKey {
	m := make(map[string]configKey, len(keyRegistry))
	for _, k := range keyRegistry {
		m[k.name] = k
	}
	return m
}()

// isZero reports whether a registry value is its type's zero value.
func isZero(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case uint:
		return t == 0
	case int:
		return t == 0
	case float64:
		return t == 0
	default:
		return v == nil
	}
}
