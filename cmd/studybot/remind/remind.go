// Package remindcmder provides the remind command, a one-shot run of the
// study reminder suited to an external scheduler such as cron.
package remindcmder

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/cmd/studybot/backend"
	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
	"github.com/papercomputeco/studybot/pkg/credentials"
	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/reminder"
)

type remindCommander struct {
	storageDriver   string
	sqlitePath      string
	postgresDSN     string
	libsqlPath      string
	sessionProvider string
	redisAddr       string
	messengerAPI    string
	pageToken       string

	configDir string
	debug     bool
	viper     *viper.Viper
	logger    *slog.Logger
}

var remindFlags = []string{
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagLibSQL,
	config.FlagSessionProvider,
	config.FlagRedisAddr,
	config.FlagMessengerAPI,
	config.FlagPageToken,
}

const remindLongDesc string = `Send a study prompt to every user with a due fact, then exit.

Users who asked for silence are skipped, as are users in the middle of another
conversation. Use this with an external scheduler when "studybot serve" is not
running its own reminder.

Examples:
  studybot remind --page-access-token $TOKEN
  studybot remind --storage-driver postgres --postgres-dsn postgres://localhost/studybot --session-provider redis`

const remindShortDesc string = "Prompt every due user to study once"

func NewRemindCmd() *cobra.Command {
	cmder := &remindCommander{}

	cmd := &cobra.Command{
		Use:   "remind",
		Short: remindShortDesc,
		Long:  remindLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.StudybotFlags, remindFlags)

			creds, err := credentials.NewManager(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			if err := creds.ApplyTo(v); err != nil {
				return fmt.Errorf("applying credentials: %w", err)
			}

			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	fs := config.StudybotFlags
	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagLibSQL, &cmder.libsqlPath)
	config.AddStringFlag(cmd, fs, config.FlagSessionProvider, &cmder.sessionProvider)
	config.AddStringFlag(cmd, fs, config.FlagRedisAddr, &cmder.redisAddr)
	config.AddStringFlag(cmd, fs, config.FlagMessengerAPI, &cmder.messengerAPI)
	config.AddStringFlag(cmd, fs, config.FlagPageToken, &cmder.pageToken)

	return cmd
}

func (c *remindCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(cmd.ErrOrStderr()))
	v := c.viper

	driver, err := backend.NewStorageDriver(ctx, v, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	sessions, err := backend.NewSessionStore(ctx, v, driver, c.logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	client, err := messenger.NewClient(&messenger.Config{
		APIURL:          v.GetString("messenger.api_url"),
		PageAccessToken: v.GetString("messenger.page_access_token"),
		MessageLimit:    v.GetInt("messenger.message_limit"),
		Logger:          c.logger,
	})
	if err != nil {
		return err
	}

	manager, err := dialogue.NewManager(&dialogue.Config{
		Sessions:  sessions,
		Facts:     driver,
		Names:     client,
		Threshold: v.GetFloat64("dialogue.confidence_threshold"),
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating dialogue manager: %w", err)
	}

	remind, err := reminder.New(&reminder.Config{
		Users:    driver,
		Prompter: manager,
		Sender:   client,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating reminder: %w", err)
	}

	var sent int
	err = cliui.Step(os.Stdout, "Prompting due users", func() error {
		sent, err = remind.RunOnce(ctx, time.Now())
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.KeyStyle.Render("Prompts sent:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", sent)),
	)
	return nil
}
