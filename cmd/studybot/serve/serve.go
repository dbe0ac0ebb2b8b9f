// Package servecmder provides the serve command that runs the webhook API
// server together with the periodic study reminder.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/api"
	mcpapi "github.com/papercomputeco/studybot/api/mcp"
	"github.com/papercomputeco/studybot/cmd/studybot/backend"
	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
	"github.com/papercomputeco/studybot/pkg/credentials"
	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/metrics"
	"github.com/papercomputeco/studybot/pkg/nlp"
	"github.com/papercomputeco/studybot/pkg/reminder"
	"github.com/papercomputeco/studybot/pkg/worker"
)

type serveCommander struct {
	listen           string
	storageDriver    string
	sqlitePath       string
	postgresDSN      string
	libsqlPath       string
	sessionProvider  string
	redisAddr        string
	sessionTTL       string
	messengerAPI     string
	pageToken        string
	verifyToken      string
	threshold        float64
	reminderInterval string
	eventsProvider   string
	kafkaBrokers     string
	kafkaTopic       string
	numWorkers       uint
	queueSize        uint

	logLevel string
	logFile  string

	configDir string
	debug     bool
	viper     *viper.Viper
	logger    *slog.Logger
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagLibSQL,
	config.FlagSessionProvider,
	config.FlagRedisAddr,
	config.FlagSessionTTL,
	config.FlagMessengerAPI,
	config.FlagPageToken,
	config.FlagVerifyToken,
	config.FlagThreshold,
	config.FlagReminderInterval,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagNumWorkers,
	config.FlagQueueSize,
}

const serveLongDesc string = `Run the StudyBot services.

Starts the Messenger webhook server, which also serves /ping, /metrics and
the /mcp tools endpoint, and the reminder that prompts users with due facts
on every interval.

Values come from flags, STUDYBOT_* environment variables and the
config.toml in the .studybot/ directory, in that order.

Examples:
  studybot serve --page-access-token $TOKEN --verify-token $VERIFY
  studybot serve --storage-driver postgres --postgres-dsn postgres://localhost/studybot
  studybot serve --session-provider redis --events-provider kafka --kafka-brokers localhost:9092
  studybot serve --log-level debug --log-file .studybot/serve.log`

const serveShortDesc string = "Run the StudyBot webhook server and reminder"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.StudybotFlags, serveFlags)

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

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	fs := config.StudybotFlags
	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagLibSQL, &cmder.libsqlPath)
	config.AddStringFlag(cmd, fs, config.FlagSessionProvider, &cmder.sessionProvider)
	config.AddStringFlag(cmd, fs, config.FlagRedisAddr, &cmder.redisAddr)
	config.AddStringFlag(cmd, fs, config.FlagSessionTTL, &cmder.sessionTTL)
	config.AddStringFlag(cmd, fs, config.FlagMessengerAPI, &cmder.messengerAPI)
	config.AddStringFlag(cmd, fs, config.FlagPageToken, &cmder.pageToken)
	config.AddStringFlag(cmd, fs, config.FlagVerifyToken, &cmder.verifyToken)
	config.AddFloatFlag(cmd, fs, config.FlagThreshold, &cmder.threshold)
	config.AddStringFlag(cmd, fs, config.FlagReminderInterval, &cmder.reminderInterval)
	config.AddStringFlag(cmd, fs, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, fs, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, fs, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddUintFlag(cmd, fs, config.FlagNumWorkers, &cmder.numWorkers)
	config.AddUintFlag(cmd, fs, config.FlagQueueSize, &cmder.queueSize)

	cmd.Flags().StringVar(&cmder.logLevel, "log-level", "info", "Minimum log level: debug, info, warn or error")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if _, err := logger.ParseLevel(c.logLevel); err != nil {
		return err
	}

	tty := cliui.IsTerminal(os.Stdout)
	console := logger.New(
		logger.WithLevel(c.logLevel),
		logger.WithDebug(c.debug),
		logger.WithPretty(tty),
		logger.WithJSON(!tty),
	)
	c.logger = console
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(console, logger.New(
			logger.WithWriter(f),
			logger.WithJSON(true),
			logger.WithLevel(c.logLevel),
			logger.WithDebug(c.debug),
			logger.WithService("studybot"),
		))
	}
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

	publisher, err := backend.NewPublisher(v, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	collector := metrics.NewCollector(metrics.DefaultNamespace)

	manager, err := dialogue.NewManager(&dialogue.Config{
		Sessions:  sessions,
		Facts:     driver,
		Names:     client,
		Publisher: publisher,
		Metrics:   collector,
		Threshold: v.GetFloat64("dialogue.confidence_threshold"),
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating dialogue manager: %w", err)
	}

	pool, err := worker.NewPool(&worker.Config{
		NumWorkers: v.GetUint("worker.num_workers"),
		QueueSize:  v.GetUint("worker.queue_size"),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Facts:  driver,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:  v.GetString("api.listen"),
		VerifyToken: v.GetString("messenger.verify_token"),
		Turns:       manager,
		Transport:   client,
		Classifier:  nlp.KeywordClassifier{},
		Pool:        pool,
		Metrics:     collector,
		MCP:         mcpServer.Handler(),
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	interval, err := backend.Duration(v, "reminder.interval")
	if err != nil {
		return err
	}
	remind, err := reminder.New(&reminder.Config{
		Users:    driver,
		Prompter: manager,
		Sender:   client,
		Pool:     pool,
		Interval: interval,
		Metrics:  collector,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating reminder: %w", err)
	}

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		if err := remind.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- fmt.Errorf("reminder error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		_ = server.Shutdown()
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return server.Shutdown()
	}
}
