package config

const (
	defaultStorageDriver   = "sqlite"
	defaultSessionProvider = "memory"
	defaultRedisAddr       = "localhost:6379"
	defaultSessionTTL      = "300s"

	defaultMessengerAPIURL = "https://graph.facebook.com/v2.6"
	defaultMessageLimit    = 2000

	defaultConfidenceThreshold = 0.7
	defaultReminderInterval    = "1h"
	defaultAPIListen           = ":8081"

	defaultEventsProvider = "none"
	defaultKafkaTopic     = "studybot.reviews"

	defaultNumWorkers = 4
	defaultQueueSize  = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Session: SessionConfig{
			Provider:  defaultSessionProvider,
			RedisAddr: defaultRedisAddr,
			TTL:       defaultSessionTTL,
		},
		Messenger: MessengerConfig{
			APIURL:       defaultMessengerAPIURL,
			MessageLimit: defaultMessageLimit,
		},
		Dialogue: DialogueConfig{
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Reminder: ReminderConfig{
			Interval: defaultReminderInterval,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider:   defaultEventsProvider,
			KafkaTopic: defaultKafkaTopic,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
	}
}
