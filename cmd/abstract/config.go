// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abstractsdk/abstract/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `abstract config` command tree.
// Subcommands that read configuration use the App's config provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage abstract configuration",
		Long: `Manage abstract configuration.

Configuration is read from <state-dir>/config.cue (default ~/.abstract/config.cue)
or the file given with --config. Environment variables prefixed with
` + config.EnvPrefix + `_ override file values, e.g. ` + config.EnvPrefix + `_LOG_LEVEL=debug.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: app.run("show configuration", func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			path, err := config.ConfigPath(app.loadOptions())
			if err != nil {
				return err
			}
			return app.emit(cfg, func(w io.Writer) error {
				return showConfig(w, cfg, path)
			})
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: app.run("create configuration", func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigPath(app.loadOptions())
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			cfg := config.DefaultConfig()
			if app.flags.stateDir != "" {
				cfg.StateDir = app.flags.stateDir
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: app.run("resolve configuration path", func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigPath(app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: app.run("dump configuration", func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		}),
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) error {
	source := path
	if _, err := os.Stat(path); err != nil {
		source = SubtitleStyle.Render("(using defaults)")
	}
	fee := SubtitleStyle.Render("none")
	if coin := cfg.Registry.NamespaceFee.Coin(); coin != nil {
		fee = coin.String()
	}
	limit := "unlimited"
	if cfg.Registry.NamespaceLimit > 0 {
		limit = fmt.Sprint(cfg.Registry.NamespaceLimit)
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	_, err := fmt.Fprint(w, keyValue(
		[2]string{"Config file", source},
		[2]string{"state_dir", cfg.StateDir},
		[2]string{"store.backend", string(cfg.Store.Backend)},
		[2]string{"store.path", cfg.Store.Path},
		[2]string{"store.sync_writes", fmt.Sprint(cfg.Store.SyncWrites)},
		[2]string{"log.level", cfg.Log.Level},
		[2]string{"log.format", string(cfg.Log.Format)},
		[2]string{"registry.admin", cfg.Registry.Admin.String()},
		[2]string{"registry.security_enabled", fmt.Sprint(cfg.Registry.SecurityEnabled)},
		[2]string{"registry.namespace_limit", limit},
		[2]string{"registry.namespace_fee", fee},
		[2]string{"api.listen", cfg.API.Listen},
		[2]string{"metrics.enabled", fmt.Sprint(cfg.Metrics.Enabled)},
	))
	return err
}
