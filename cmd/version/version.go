// Package versioncmder
package versioncmder

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/utils"
)

type versionCommander struct {
	short bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this studybot binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.short, "short", false, "Print only the version")

	return cmd
}

func (c *versionCommander) run(out io.Writer) error {
	if c.short {
		_, err := fmt.Fprintln(out, utils.Version)
		return err
	}

	_, err := fmt.Fprintf(out, "Version: %s\nSha: %s\nBuilt at: %s\nGo: %s %s/%s\n",
		utils.Version, utils.Sha, utils.Buildtime,
		runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
	return err
}
