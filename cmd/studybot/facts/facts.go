// Package factscmder provides the facts command for inspecting the fact
// repository from the terminal.
package factscmder

import (
	"github.com/spf13/cobra"
)

const factsLongDesc string = `Inspect the facts stored for StudyBot users.

Use subcommands to query the configured fact repository:
  studybot facts list <external-id>    List a user's facts with scheduling details`

const factsShortDesc string = "Inspect stored facts"

func NewFactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: factsShortDesc,
		Long:  factsLongDesc,
	}

	cmd.AddCommand(newListCmd())

	return cmd
}
