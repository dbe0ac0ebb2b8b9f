package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes one CLI flag shared across commands. Commands add flags by
// registry key, so --sqlite means the same thing on serve, remind, chat and
// facts list.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Registry keys for StudybotFlags.
const (
	FlagAPIListen        = "listen"
	FlagStorageDriver    = "storage-driver"
	FlagSQLite           = "sqlite"
	FlagPostgresDSN      = "postgres-dsn"
	FlagLibSQL           = "libsql"
	FlagSessionProvider  = "session-provider"
	FlagRedisAddr        = "redis-addr"
	FlagSessionTTL       = "session-ttl"
	FlagMessengerAPI     = "messenger-api"
	FlagPageToken        = "page-access-token"
	FlagVerifyToken      = "verify-token"
	FlagThreshold        = "confidence-threshold"
	FlagReminderInterval = "reminder-interval"
	FlagEventsProvider   = "events-provider"
	FlagKafkaBrokers     = "kafka-brokers"
	FlagKafkaTopic       = "kafka-topic"
	FlagNumWorkers       = "workers"
	FlagQueueSize        = "queue-size"
)

// StudybotFlags is the registry shared by every studybot subcommand.
var StudybotFlags = FlagSet{
	FlagAPIListen:        {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the webhook server to listen on"},
	FlagStorageDriver:    {Name: "storage-driver", ViperKey: "storage.driver", Description: "Fact repository driver (sqlite, postgres, libsql, memory)"},
	FlagSQLite:           {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database (default: .studybot/studybot.sqlite)"},
	FlagPostgresDSN:      {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagLibSQL:           {Name: "libsql", ViperKey: "storage.libsql_path", Description: "Path or URL of the libSQL database"},
	FlagSessionProvider:  {Name: "session-provider", ViperKey: "session.provider", Description: "Session cache provider (memory, redis)"},
	FlagRedisAddr:        {Name: "redis-addr", ViperKey: "session.redis_addr", Description: "Redis address for the session cache"},
	FlagSessionTTL:       {Name: "session-ttl", ViperKey: "session.ttl", Description: "Idle expiry for conversation sessions"},
	FlagMessengerAPI:     {Name: "messenger-api", ViperKey: "messenger.api_url", Description: "Messenger Graph API base URL"},
	FlagPageToken:        {Name: "page-access-token", ViperKey: "messenger.page_access_token", Description: "Messenger page access token"},
	FlagVerifyToken:      {Name: "verify-token", ViperKey: "messenger.verify_token", Description: "Token expected by the webhook verification handshake"},
	FlagThreshold:        {Name: "confidence-threshold", ViperKey: "dialogue.confidence_threshold", Description: "Minimum intent confidence required to act on a message"},
	FlagReminderInterval: {Name: "reminder-interval", ViperKey: "reminder.interval", Description: "How often due users are prompted to study"},
	FlagEventsProvider:   {Name: "events-provider", ViperKey: "events.provider", Description: "Review event publisher (none, kafka)"},
	FlagKafkaBrokers:     {Name: "kafka-brokers", ViperKey: "events.kafka_brokers", Description: "Comma separated Kafka broker addresses"},
	FlagKafkaTopic:       {Name: "kafka-topic", ViperKey: "events.kafka_topic", Description: "Kafka topic for review events"},
	FlagNumWorkers:       {Name: "workers", ViperKey: "worker.num_workers", Description: "Number of per-user turn workers"},
	FlagQueueSize:        {Name: "queue-size", ViperKey: "worker.queue_size", Description: "Buffered jobs per worker"},
}

// lookup returns the registry entry for key and a viper holding the defaults
// its flag starts from.
func (fs FlagSet) lookup(key string) (Flag, *viper.Viper, bool) {
	def, ok := fs[key]
	if !ok {
		return Flag{}, nil, false
	}
	return def, defaultsViper(), true
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands. Unknown keys are ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if def, defaults, ok := fs.lookup(key); ok {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaults.GetString(def.ViperKey), def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	if def, defaults, ok := fs.lookup(key); ok {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaults.GetUint(def.ViperKey), def.Description)
	}
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, key string, target *float64) {
	if def, defaults, ok := fs.lookup(key); ok {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaults.GetFloat64(def.ViperKey), def.Description)
	}
}

// BindRegisteredFlags binds flags already added to cmd to their viper keys,
// putting them on top of the precedence chain. Call it in PreRunE after
// InitViper. Keys without a registered flag are skipped.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		if f := cmd.Flags().Lookup(def.Name); f != nil {
			_ = v.BindPFlag(def.ViperKey, f)
		}
	}
}
