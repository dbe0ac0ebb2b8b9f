// Package studybotcmder
package studybotcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/studybot/cmd/studybot/auth"
	chatcmder "github.com/papercomputeco/studybot/cmd/studybot/chat"
	configcmder "github.com/papercomputeco/studybot/cmd/studybot/config"
	factscmder "github.com/papercomputeco/studybot/cmd/studybot/facts"
	initcmder "github.com/papercomputeco/studybot/cmd/studybot/init"
	remindcmder "github.com/papercomputeco/studybot/cmd/studybot/remind"
	servecmder "github.com/papercomputeco/studybot/cmd/studybot/serve"
	versioncmder "github.com/papercomputeco/studybot/cmd/version"
)

const studybotLongDesc string = `StudyBot is a Messenger flashcard tutor with spaced repetition.

Run services using:
  studybot serve       Run the webhook server and the study reminder
  studybot remind      Send study prompts to every due user once
  studybot chat        Talk to the bot locally in the terminal

Manage state using:
  studybot init        Initialize a local .studybot/ directory
  studybot facts list  List a user's facts
  studybot config      Manage persistent configuration
  studybot auth        Store Messenger tokens and backend passwords`

const studybotShortDesc string = "StudyBot - Spaced repetition flashcards over Messenger"

func NewStudybotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "studybot",
		Short:        studybotShortDesc,
		Long:         studybotLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .studybot/ configuration directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(remindcmder.NewRemindCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(factscmder.NewFactsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
