package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .studybot/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  storage.driver, storage.sqlite_path, storage.postgres_dsn, storage.libsql_path,
  session.provider, session.redis_addr, session.redis_password, session.redis_db, session.ttl,
  messenger.api_url, messenger.page_access_token, messenger.verify_token, messenger.message_limit,
  dialogue.confidence_threshold, reminder.interval, api.listen,
  events.provider, events.kafka_brokers, events.kafka_topic,
  worker.num_workers, worker.queue_size

Examples:
  studybot config set storage.driver postgres
  studybot config set storage.postgres_dsn postgres://localhost/studybot
  studybot config set dialogue.confidence_threshold 0.8`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(out io.Writer, key, value, configDir string) error {
	cfger, err := openConfig(out, configDir, key)
	if err != nil {
		return err
	}

	previous, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	if previous == "" || previous == value {
		fmt.Fprintf(out, "  %s Set %s = %s\n\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(key),
			cliui.ValueStyle.Render(display(key, value, false)),
		)
	} else {
		fmt.Fprintf(out, "  %s Set %s = %s %s\n\n",
			cliui.SuccessMark,
			cliui.KeyStyle.Render(key),
			cliui.ValueStyle.Render(display(key, value, false)),
			cliui.DimStyle.Render("(was "+display(key, previous, false)+")"),
		)
	}

	if secretKeys[key] {
		fmt.Fprintf(out, "  %s\n\n",
			cliui.DimStyle.Render("Tip: 'studybot auth' keeps secrets out of config.toml."))
	}
	return nil
}
