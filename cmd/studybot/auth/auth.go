// Package authcmder provides the auth command for storing studybot secrets.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/credentials"
)

const authLongDesc string = `Store secrets for studybot outside of config.toml.

Secrets are stored in credentials.toml in the .studybot/ directory with
owner-only permissions. "studybot serve" and "studybot remind" use a stored
secret whenever the matching flag, STUDYBOT_* variable and config.toml value
are all empty.

Supported secrets: page-access-token, verify-token, redis-password, postgres-dsn

Examples:
  studybot auth page-access-token          Prompt for the Messenger page token
  studybot auth --list                     List stored secrets
  studybot auth --remove verify-token      Remove the stored verify token
  echo $TOKEN | studybot auth page-access-token`

const authShortDesc string = "Store Messenger tokens and backend passwords"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [secret]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			switch {
			case listFlag:
				return runList(out, configDir)
			case removeFlag != "":
				return runRemove(out, removeFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("secret argument required\n\nSupported secrets: %s",
						strings.Join(credentials.SupportedSecrets(), ", "))
				}
				return runAuth(cmd.InOrStdin(), out, args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedSecrets(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored secrets")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove a stored secret")

	return cmd
}

func runAuth(in io.Reader, out io.Writer, name, configDir string) error {
	name = strings.ToLower(strings.TrimSpace(name))

	if !credentials.IsSupportedSecret(name) {
		return fmt.Errorf("unsupported secret: %q\n\nSupported secrets: %s",
			name, strings.Join(credentials.SupportedSecrets(), ", "))
	}

	value, err := readSecret(in, out, name)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("secret cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetSecret(name, value); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(name),
		cliui.DimStyle.Render("(provides "+credentials.ConfigKeyForSecret(name)+")"),
	)
	return nil
}

func runList(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	names, err := mgr.ListSecrets()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintf(out, "\n  %s No stored secrets.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'studybot auth <secret>' to store one.\n")
		fmt.Fprintf(out, "  Supported secrets: %s\n\n", strings.Join(credentials.SupportedSecrets(), ", "))
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.KeyStyle.Render("Stored secrets"))
	for _, name := range names {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(name),
			cliui.DimStyle.Render("→ "+credentials.ConfigKeyForSecret(name)),
		)
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(out io.Writer, name, configDir string) error {
	name = strings.ToLower(strings.TrimSpace(name))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveSecret(name); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(name))

	return nil
}

// readSecret reads the first line of piped input, or prompts with hidden
// input when in is a terminal.
func readSecret(in io.Reader, out io.Writer, name string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter %s: ", name)
		value, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		return string(value), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
