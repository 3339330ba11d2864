// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abstractsdk/abstract/internal/config"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/spf13/cobra"
)

type initOptions struct {
	admin          string
	security       bool
	namespaceLimit uint32
	namespaceFee   string
	version        string
}

func newInitCommand(app *App) *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Deploy the framework into the state directory",
		Long: `Deploy the registry, the module factory and the account base codes, then
create the treasury account (account 0) for the admin.

Flags override the registry section of the configuration. When no config
file exists yet, one is written with the effective settings.`,
		Args: cobra.NoArgs,
		RunE: app.run("initialize deployment", func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), app, cmd, opts)
		}),
	}
	cmd.Flags().StringVar(&opts.admin, "admin", "", "registry owner and account factory (default from config)")
	cmd.Flags().BoolVar(&opts.security, "security", false, "require admin approval for proposals")
	cmd.Flags().Uint32Var(&opts.namespaceLimit, "namespace-limit", 0, "namespaces an account may claim, 0 for unlimited")
	cmd.Flags().StringVar(&opts.namespaceFee, "namespace-fee", "", "fee to claim a namespace, e.g. 100uabs")
	cmd.Flags().StringVar(&opts.version, "account-version", deploy.DefaultVersion, "version the manager and proxy codes are published at")
	return cmd
}

func runInit(ctx context.Context, app *App, cmd *cobra.Command, opts initOptions) error {
	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	if _, err := deploy.Load(s.kv, s.chain); err == nil {
		return errAlreadyDeployed
	} else if !errors.Is(err, deploy.ErrNotDeployed) {
		return err
	}

	reg := &s.cfg.Registry
	flags := cmd.Flags()
	if flags.Changed("admin") {
		reg.Admin = types.Addr(opts.admin)
	}
	if flags.Changed("security") {
		reg.SecurityEnabled = opts.security
	}
	if flags.Changed("namespace-limit") {
		reg.NamespaceLimit = opts.namespaceLimit
	}
	if flags.Changed("namespace-fee") {
		fee, err := types.ParseCoin(opts.namespaceFee)
		if err != nil {
			return err
		}
		reg.NamespaceFee = config.FeeConfig{Denom: fee.Denom, Amount: fee.Amount}
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	d, err := deploy.Bootstrap(ctx, s.chain, reg.Admin, deploy.Options{
		SecurityEnabled: reg.SecurityEnabled,
		NamespaceLimit:  reg.NamespaceLimit,
		NamespaceFee:    reg.NamespaceFee.Coin(),
		Version:         opts.version,
	})
	if err != nil {
		return err
	}
	if err := d.Save(s.kv); err != nil {
		return err
	}

	path, err := config.ConfigPath(app.loadOptions())
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := config.Save(s.cfg, path); err != nil {
			return err
		}
		s.log.Info("config written", "path", path)
	}

	return app.emit(d.Record, func(w io.Writer) error {
		fmt.Fprintln(w, SuccessStyle.Render("✓")+" Framework deployed")
		fmt.Fprint(w, keyValue(
			[2]string{"Admin", CmdStyle.Render(d.Admin.String())},
			[2]string{"Registry", CmdStyle.Render(d.Registry.String())},
			[2]string{"Module factory", CmdStyle.Render(d.Factory.String())},
			[2]string{"Treasury", fmt.Sprintf("account %s (proxy %s)", d.Treasury.ID, CmdStyle.Render(d.Treasury.Proxy.String()))},
		))
		return nil
	})
}

func newMintCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mint <address> <coins>",
		Short: "Credit coins to an address on the local host",
		Example: `  abstract mint alice 1000uabs
  abstract mint alice 10uabs,5uatom`,
		Args: cobra.ExactArgs(2),
		RunE: app.run("mint coins", func(cmd *cobra.Command, args []string) error {
			addr := types.Addr(args[0])
			if err := addr.Validate(); err != nil {
				return err
			}
			coins, err := types.ParseCoins(args[1])
			if err != nil {
				return err
			}
			return app.withDeployment(cmd.Context(), func(s *session, d *deploy.Deployment) error {
				if err := d.Chain.Mint(cmd.Context(), addr, coins); err != nil {
					return err
				}
				balance, err := d.Chain.Balance(addr)
				if err != nil {
					return err
				}
				view := struct {
					Address types.Addr  `json:"address"`
					Balance types.Coins `json:"balance"`
				}{addr, balance}
				return app.emit(view, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s balance: %s\n", CmdStyle.Render(addr.String()), balance)
					return err
				})
			})
		}),
	}
}
