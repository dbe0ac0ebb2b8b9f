package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .studybot/ directory. Tokens, passwords and
connection strings are masked unless --show-secrets is passed.

Examples:
  studybot config list
  studybot config list --show-secrets`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, showSecrets)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values in full")

	return cmd
}

func runList(out io.Writer, configDir string, showSecrets bool) error {
	cfger, err := openConfig(out, configDir, "")
	if err != nil {
		return err
	}

	keys := config.ValidConfigKeys()

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cliui.KeyValue(key, width, display(key, value, showSecrets)))
	}
	fmt.Fprintln(out)

	return nil
}
