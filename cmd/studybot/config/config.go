// Package configcmder provides the config command for managing persistent
// studybot configuration stored in the .studybot/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
)

// secretKeys are masked on output unless --show-secrets is set.
var secretKeys = map[string]bool{
	"storage.postgres_dsn":        true,
	"session.redis_password":      true,
	"messenger.page_access_token": true,
	"messenger.verify_token":      true,
}

const configLongDesc string = `Manage persistent studybot configuration.

Configuration is stored as config.toml in the .studybot/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn, storage.libsql_path,
  session.provider, session.redis_addr, session.redis_password, session.redis_db, session.ttl,
  messenger.api_url, messenger.page_access_token, messenger.verify_token, messenger.message_limit,
  dialogue.confidence_threshold, reminder.interval, api.listen,
  events.provider, events.kafka_brokers, events.kafka_topic,
  worker.num_workers, worker.queue_size

Use subcommands to get, set, or list configuration values:
  studybot config set <key> <value>    Set a configuration value
  studybot config get <key>            Get a configuration value
  studybot config list                 List all configuration values

Examples:
  studybot config set session.provider redis
  studybot config set reminder.interval 30m
  studybot config get messenger.verify_token --show-secrets
  studybot config list

Secrets are better kept out of config.toml with "studybot auth".`

const configShortDesc string = "Manage persistent studybot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// openConfig validates key (when non-empty), loads the config and prints
// which file is in use.
func openConfig(out io.Writer, configDir, key string) (*config.Configer, error) {
	if key != "" && !config.IsValidConfigKey(key) {
		return nil, fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	return cfger, nil
}

// display returns value as it should be printed for key.
func display(key, value string, showSecrets bool) string {
	if secretKeys[key] && !showSecrets {
		return mask(value)
	}
	return value
}

// mask keeps the last four characters of long values.
func mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", 8)
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
