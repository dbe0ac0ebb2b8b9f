package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from config.toml in the .studybot/
directory. Secret values are masked unless --show-secrets is passed.

Examples:
  studybot config get storage.driver
  studybot config get session.ttl
  studybot config get messenger.page_access_token --show-secrets`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args[0], configDir, showSecrets)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret values in full")

	return cmd
}

func runGet(out io.Writer, key, configDir string, showSecrets bool) error {
	cfger, err := openConfig(out, configDir, key)
	if err != nil {
		return err
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n\n", cliui.KeyValue(key, len(key), display(key, value, showSecrets)))
	return nil
}
