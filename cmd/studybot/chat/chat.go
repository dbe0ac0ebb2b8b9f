// Package chatcmder provides the chat command for talking to StudyBot in the
// terminal, without Messenger.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/cmd/studybot/backend"
	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/nlp"
	"github.com/papercomputeco/studybot/pkg/session"
	sessioninmemory "github.com/papercomputeco/studybot/pkg/session/inmemory"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/storage/inmemory"
)

const (
	commandExit   = "/exit"
	commandRemind = "/remind"
)

var (
	userPrompt = cliui.PromptStyle.Render("you> ")
	botPrompt  = cliui.NameStyle.Render("studybot> ")
)

type chatCommander struct {
	user    string
	name    string
	persist bool

	configDir string
	debug     bool
	viper     *viper.Viper
	logger    *slog.Logger
}

// staticNamer answers every profile lookup with the same first name.
type staticNamer string

func (n staticNamer) FirstName(context.Context, string) (string, error) {
	return string(n), nil
}

const chatLongDesc string = `Start an interactive conversation with StudyBot in the terminal.

Messages are classified with the built-in keyword classifier, so phrases like
"add a fact", "show my facts", "study" and "silence for 2 days" work as they
do on Messenger. Facts live in memory unless --persist is set, in which case
the configured storage driver is used.

Type /remind to receive the study prompt the reminder would send, and /exit
or Ctrl+D to quit.

Examples:
  studybot chat
  studybot chat --name Ada --user ada
  studybot chat --persist --sqlite ./studybot.sqlite`

const chatShortDesc string = "Talk to StudyBot in the terminal"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.StudybotFlags, []string{
				config.FlagStorageDriver,
				config.FlagSQLite,
				config.FlagThreshold,
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&cmder.user, "user", "u", "local", "External id of the local user")
	cmd.Flags().StringVarP(&cmder.name, "name", "n", "friend", "First name the bot greets you with")
	cmd.Flags().BoolVar(&cmder.persist, "persist", false, "Use the configured storage driver instead of memory")

	var storageDriver, sqlitePath string
	var threshold float64
	config.AddStringFlag(cmd, config.StudybotFlags, config.FlagStorageDriver, &storageDriver)
	config.AddStringFlag(cmd, config.StudybotFlags, config.FlagSQLite, &sqlitePath)
	config.AddFloatFlag(cmd, config.StudybotFlags, config.FlagThreshold, &threshold)

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(errOut))
	if !c.debug {
		c.logger = logger.Nop()
	}

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	sessions, err := session.NewStore(&session.Config{
		Cache:  sessioninmemory.NewCache(),
		Users:  driver,
		Logger: c.logger,
	})
	if err != nil {
		return err
	}
	defer sessions.Close()

	manager, err := dialogue.NewManager(&dialogue.Config{
		Sessions:  sessions,
		Facts:     driver,
		Names:     staticNamer(c.name),
		Threshold: c.viper.GetFloat64("dialogue.confidence_threshold"),
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating dialogue manager: %w", err)
	}

	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Chatting as:"), cliui.NameStyle.Render(c.user))
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type a message and press Enter. /remind for a study prompt, /exit or Ctrl+D to quit."))

	return c.loop(ctx, manager, nlp.KeywordClassifier{}, in, out, errOut)
}

func (c *chatCommander) loop(ctx context.Context, manager *dialogue.Manager, classifier nlp.Classifier, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case commandExit:
			return nil
		case commandRemind:
			result, prompted, err := manager.PromptStudy(ctx, c.user)
			if err != nil {
				fmt.Fprintf(errOut, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			if !prompted {
				fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("Nothing to prompt right now."))
				continue
			}
			printReplies(out, result.Replies)
			continue
		}

		entities, err := classifier.Classify(ctx, input)
		if err != nil {
			fmt.Fprintf(errOut, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		result, err := manager.HandleTurn(ctx, dialogue.Turn{
			ExternalID: c.user,
			Text:       input,
			Entities:   entities,
		})
		if err != nil {
			fmt.Fprintf(errOut, "  %s %v\n", cliui.FailMark, err)
			continue
		}
		printReplies(out, result.Replies)
	}
}

func (c *chatCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	if !c.persist {
		return inmemory.NewDriver(), nil
	}
	return backend.NewStorageDriver(ctx, c.viper, c.configDir, c.logger)
}

func printReplies(out io.Writer, replies []string) {
	for _, reply := range replies {
		fmt.Fprintf(out, "%s%s\n", botPrompt, reply)
	}
}
