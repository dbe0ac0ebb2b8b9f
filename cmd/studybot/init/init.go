// Package initcmder provides the init command for initializing a local
// .studybot directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studybot/pkg/cliui"
	"github.com/papercomputeco/studybot/pkg/config"
	"github.com/papercomputeco/studybot/pkg/dotdir"
	"github.com/papercomputeco/studybot/pkg/utils"
)

const (
	remoteTimeout = 15 * time.Second
	maxRemoteSize = 1 << 20
)

const initLongDesc string = `Initialize a new .studybot/ directory in the current working directory.

Creates a local .studybot/ directory that takes precedence over the default
~/.studybot/ directory for the SQLite database and configuration, and writes
a config.toml with default values.

Use --preset to start from a deployment preset or from a config.toml served
over HTTP(S). A preset always overwrites an existing config.toml.

Presets:
  local        SQLite storage, in-memory sessions, no event stream
  production   PostgreSQL storage, Redis sessions, Kafka review events

Examples:
  studybot init
  studybot init --preset production
  studybot init --preset https://example.com/studybot/config.toml`

const initShortDesc string = "Initialize a local .studybot/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), preset)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Preset name ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL of a config.toml")

	return cmd
}

func runInit(ctx context.Context, preset string) error {
	dir, err := dotdir.NewManager().Local()
	if err != nil {
		return err
	}

	cfg, err := resolvePreset(ctx, preset)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if !existed {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .studybot directory: %w", err)
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, statErr := os.Stat(cfger.GetTarget())
	hasConfig := statErr == nil
	if preset != "" || !hasConfig {
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	}

	if existed {
		fmt.Printf("  %s Already initialized: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	} else {
		fmt.Printf("  %s Initialized .studybot directory: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	}
	if preset != "" {
		fmt.Printf("  %s Applied preset %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(preset))
	}
	return nil
}

// resolvePreset returns the config to write: defaults, a named preset, or a
// config.toml fetched from a URL.
func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchRemoteConfig(ctx, preset)
	default:
		return config.PresetConfig(preset)
	}
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}
	if len(data) > maxRemoteSize {
		return nil, errors.New("remote config exceeds 1 MiB")
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
