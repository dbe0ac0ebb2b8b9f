package factscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/cmd/studybot/backend"
	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/storage"
)

type listCommander struct {
	storageDriver string
	sqlitePath    string
	postgresDSN   string
	libsqlPath    string
	raw           bool

	configDir string
	viper     *viper.Viper
}

var listFlags = []string{
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagLibSQL,
}

const listLongDesc string = `List every fact a user has saved, ordered by id, with its ease factor,
streak, last review and next due time.

Examples:
  studybot facts list 1234567890
  studybot facts list 1234567890 --raw
  studybot facts list local --sqlite ./studybot.sqlite`

const listShortDesc string = "List a user's facts"

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list <external-id>",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.StudybotFlags, listFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	fs := config.StudybotFlags
	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagLibSQL, &cmder.libsqlPath)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the markdown table without terminal rendering")

	return cmd
}

func (c *listCommander) run(ctx context.Context, out io.Writer, externalID string) error {
	driver, err := backend.NewStorageDriver(ctx, c.viper, c.configDir, logger.Nop())
	if err != nil {
		return err
	}
	defer driver.Close()

	user, err := driver.GetUser(ctx, externalID)
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("no user with external id %q", externalID)
		}
		return err
	}

	facts, err := driver.ListFacts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing facts: %w", err)
	}

	if len(facts) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No facts saved yet."))
		return nil
	}

	table := FactTable(facts, time.Now())
	if c.raw || !cliui.IsTerminal(out) {
		fmt.Fprint(out, table)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(table)
	if err != nil {
		fmt.Fprint(out, table)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}

// FactTable renders facts as a markdown table. Due dates also show how far
// they are from now.
func FactTable(facts []*flashcard.Fact, now time.Time) string {
	var b strings.Builder
	b.WriteString("| ID | Question | Answer | EF | Streak | Last reviewed | Next due |\n")
	b.WriteString("|---:|---|---|---:|---:|---|---|\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %d | %s | %s |\n",
			f.ID,
			escapeCell(f.Question),
			escapeCell(f.Answer),
			f.EaseFactor,
			f.ConsecutiveCorrect,
			formatTime(&f.LastReviewed, "never"),
			formatDue(f.NextDue, now),
		)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func formatDue(due *time.Time, now time.Time) string {
	if due == nil || due.IsZero() {
		return "now"
	}
	return fmt.Sprintf("%s (%s)", formatTime(due, ""), cliui.Relative(now, *due))
}

func formatTime(t *time.Time, unset string) string {
	if t == nil || t.IsZero() {
		return unset
	}
	return t.UTC().Format(time.RFC1123)
}
