// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/httpapi"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/spf13/cobra"
)

// txView is the machine-readable output of commands that send a transaction.
type txView struct {
	Account types.AccountID `json:"account"`
	Events  []host.Event    `json:"events"`
}

func newAccountCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create accounts and manage their modules",
		Long: `Create accounts and manage the modules installed on them.

Commands acting on an account are sent by its owner unless --sender is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newAccountCreateCommand(app),
		newAccountListCommand(app),
		newAccountShowCommand(app),
		newAccountInstallCommand(app),
		newAccountUninstallCommand(app),
		newAccountUpgradeCommand(app),
		newAccountModulesCommand(app),
		newAccountDependentsCommand(app),
		newAccountSuspendCommand(app),
		newAccountExecCommand(app),
	)
	return cmd
}

func newAccountCreateCommand(app *App) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "create <owner>",
		Short: "Create an account, optionally claiming a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: app.run("create account", func(cmd *cobra.Command, args []string) error {
			owner := types.Addr(args[0])
			ns := module.Namespace(namespace)
			if ns != "" {
				if err := ns.Validate(); err != nil {
					return err
				}
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := d.CreateAccount(cmd.Context(), owner, ns)
				if err != nil {
					return err
				}
				return app.emit(acc, func(w io.Writer) error {
					fmt.Fprintf(w, "%s Account %s created\n", SuccessStyle.Render("✓"), acc.ID)
					_, err := fmt.Fprint(w, accountPairs(acc, ns))
					return err
				})
			})
		}),
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace to claim for the account")
	return cmd
}

func accountPairs(acc deploy.Account, namespaces ...module.Namespace) string {
	pairs := [][2]string{
		{"Owner", CmdStyle.Render(acc.Owner.String())},
		{"Manager", CmdStyle.Render(acc.Manager.String())},
		{"Proxy", CmdStyle.Render(acc.Proxy.String())},
	}
	var names []string
	for _, ns := range namespaces {
		if ns != "" {
			names = append(names, ns.String())
		}
	}
	if len(names) > 0 {
		pairs = append(pairs, [2]string{"Namespaces", strings.Join(names, ", ")})
	}
	return keyValue(pairs...)
}

func newAccountListCommand(app *App) *cobra.Command {
	var (
		startAfter string
		limit      uint32
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: app.run("list accounts", func(cmd *cobra.Command, _ []string) error {
			query := &protocol.AccountListQuery{}
			if cmd.Flags().Changed("limit") {
				query.Limit = &limit
			}
			if startAfter != "" {
				id, err := types.ParseAccountID(startAfter)
				if err != nil {
					return err
				}
				query.StartAfter = &id
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				var resp protocol.AccountListResponse
				if err := d.Chain.Query(cmd.Context(), d.Registry, protocol.RegistryQueryMsg{AccountList: query}, &resp); err != nil {
					return err
				}
				return app.emit(resp, func(w io.Writer) error {
					t := newTable("ID", "MANAGER", "PROXY")
					for _, a := range resp.Accounts {
						t.Row(a.AccountID.String(), a.Base.Manager.String(), a.Base.Proxy.String())
					}
					_, err := fmt.Fprintln(w, t)
					return err
				})
			})
		}),
	}
	cmd.Flags().StringVar(&startAfter, "start-after", "", "page after this account id")
	cmd.Flags().Uint32Var(&limit, "limit", protocol.DefaultPageLimit, "page size")
	return cmd
}

func newAccountShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account>",
		Short: "Show an account with its namespaces and modules",
		Args:  cobra.ExactArgs(1),
		RunE: app.run("show account", func(cmd *cobra.Command, args []string) error {
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				ctx := cmd.Context()
				acc, err := app.account(ctx, d, args[0])
				if err != nil {
					return err
				}
				var cfg protocol.ManagerConfigResponse
				if err := d.Chain.Query(ctx, acc.Manager, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
					return err
				}
				var ns protocol.NamespacesResponse
				if err := d.Chain.Query(ctx, d.Registry, protocol.RegistryQueryMsg{Namespaces: &protocol.NamespacesQuery{Accounts: []types.AccountID{acc.ID}}}, &ns); err != nil {
					return err
				}
				mods, err := d.InstalledModules(ctx, acc.Manager)
				if err != nil {
					return err
				}
				view := httpapi.AccountView{
					AccountResponse: protocol.AccountResponse{AccountID: acc.ID, Base: protocol.AccountBase{Manager: acc.Manager, Proxy: acc.Proxy}},
					Owner:           cfg.Owner,
					IsSuspended:     cfg.IsSuspended,
					Namespaces:      make([]module.Namespace, 0, len(ns.Namespaces)),
					Modules:         mods,
				}
				for _, e := range ns.Namespaces {
					view.Namespaces = append(view.Namespaces, e.Namespace)
				}
				return app.emit(view, func(w io.Writer) error {
					acc.Owner = cfg.Owner
					title := "Account " + acc.ID.String()
					if cfg.IsSuspended {
						title += " " + WarningStyle.Render("(suspended)")
					}
					fmt.Fprintln(w, TitleStyle.Render(title))
					fmt.Fprint(w, accountPairs(acc, view.Namespaces...))
					return printInstalled(w, mods)
				})
			})
		}),
	}
}

func printInstalled(w io.Writer, mods []protocol.ModuleInfo) error {
	if len(mods) == 0 {
		_, err := fmt.Fprintln(w, SubtitleStyle.Render("No modules installed."))
		return err
	}
	t := newTable("MODULE", "KIND", "VERSION", "ADDRESS")
	for _, m := range mods {
		t.Row(m.ID.String(), m.Kind.String(), m.Version.Version, m.Address.String())
	}
	_, err := fmt.Fprintln(w, t)
	return err
}

func newAccountInstallCommand(app *App) *cobra.Command {
	var (
		initMsg string
		funds   string
	)
	cmd := &cobra.Command{
		Use:   "install <account> <namespace:name[@version]>",
		Short: "Install a module on an account",
		Long: `Install a module on an account through the module factory. Every dependency
the module declares must already be installed at a matching version. Attach
the module's install fee with --funds.`,
		Example: `  abstract account install 1 demo:dex
  abstract account install 1 demo:autocompounder@1.0.0 --init '{"pool":"atom"}' --funds 10uabs`,
		Args: cobra.ExactArgs(2),
		RunE: app.run("install module", func(cmd *cobra.Command, args []string) error {
			mi, err := module.ParseInfo(args[1])
			if err != nil {
				return err
			}
			var payload json.RawMessage
			if initMsg != "" {
				if !json.Valid([]byte(initMsg)) {
					return fmt.Errorf("init message is not valid JSON: %s", initMsg)
				}
				payload = json.RawMessage(initMsg)
			}
			var coins types.Coins
			if funds != "" {
				if coins, err = types.ParseCoins(funds); err != nil {
					return err
				}
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				res, err := d.Install(cmd.Context(), acc, mi, payload, coins)
				if err != nil {
					return err
				}
				addr, _, err := d.ModuleAddress(cmd.Context(), acc, mi.ID())
				if err != nil {
					return err
				}
				return app.emit(txView{Account: acc.ID, Events: res.Events}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s Installed %s on account %s at %s\n",
						SuccessStyle.Render("✓"), CmdStyle.Render(mi.ID().String()), acc.ID, CmdStyle.Render(addr.String()))
					return err
				})
			})
		}),
	}
	cmd.Flags().StringVar(&initMsg, "init", "", "JSON init message for apps and standalone modules")
	cmd.Flags().StringVar(&funds, "funds", "", "coins to attach, e.g. 10uabs")
	return cmd
}

func newAccountUninstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <account> <namespace:name>",
		Short: "Remove a module from an account",
		Args:  cobra.ExactArgs(2),
		RunE: app.run("uninstall module", func(cmd *cobra.Command, args []string) error {
			id := module.ID(args[1])
			if err := id.Validate(); err != nil {
				return err
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				res, err := d.Uninstall(cmd.Context(), acc, id)
				if err != nil {
					return err
				}
				return app.emit(txView{Account: acc.ID, Events: res.Events}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s Uninstalled %s from account %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(id.String()), acc.ID)
					return err
				})
			})
		}),
	}
}

func newAccountUpgradeCommand(app *App) *cobra.Command {
	var migrateMsgs []string
	cmd := &cobra.Command{
		Use:   "upgrade <account> <namespace:name[@version]>...",
		Short: "Upgrade installed modules as one batch",
		Long: `Upgrade installed modules to newer registered versions in one transaction.

Modules are migrated with dependencies ahead of their dependents, then the
account verifies that every declared dependency still holds. If verification
fails the whole batch is reverted. Upgrade a module together with its
dependents when the new version breaks their requirements.

Standalone modules and the account base need a migrate message, given per
module with --migrate-msg.`,
		Example: `  abstract account upgrade 1 demo:dex demo:autocompounder
  abstract account upgrade 1 abstract:manager abstract:proxy --migrate-msg abstract:manager={} --migrate-msg abstract:proxy={}`,
		Args: cobra.MinimumNArgs(2),
		RunE: app.run("upgrade modules", func(cmd *cobra.Command, args []string) error {
			msgs, err := parseMigrateMsgs(migrateMsgs)
			if err != nil {
				return err
			}
			batch := make([]protocol.ModuleUpgrade, 0, len(args)-1)
			for _, arg := range args[1:] {
				mi, err := module.ParseInfo(arg)
				if err != nil {
					return err
				}
				batch = append(batch, protocol.ModuleUpgrade{Module: mi, MigrateMsg: msgs[mi.ID()]})
				delete(msgs, mi.ID())
			}
			if len(msgs) > 0 {
				extra := make([]string, 0, len(msgs))
				for id := range msgs {
					extra = append(extra, id.String())
				}
				slices.Sort(extra)
				return fmt.Errorf("--migrate-msg given for modules outside the upgrade: %s", strings.Join(extra, ", "))
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				res, err := d.Upgrade(cmd.Context(), acc, batch...)
				if err != nil {
					return err
				}
				return app.emit(txView{Account: acc.ID, Events: res.Events}, func(w io.Writer) error {
					for _, ev := range res.Events {
						if action, _ := ev.Attr("action"); ev.Type != account.EventType || action != "upgrade" {
							continue
						}
						mod, _ := ev.Attr("module")
						kind, _ := ev.Attr("kind")
						fmt.Fprintf(w, "%s Upgraded %s (%s)\n", SuccessStyle.Render("✓"), CmdStyle.Render(mod), kind)
					}
					return nil
				})
			})
		}),
	}
	cmd.Flags().StringArrayVar(&migrateMsgs, "migrate-msg", nil, "migrate message as namespace:name=JSON (repeatable)")
	return cmd
}

// parseMigrateMsgs reads --migrate-msg values of the form ns:name=JSON.
func parseMigrateMsgs(values []string) (map[module.ID]json.RawMessage, error) {
	msgs := make(map[module.ID]json.RawMessage, len(values))
	for _, v := range values {
		raw, payload, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("migrate message %q: expected namespace:name=JSON", v)
		}
		id := module.ID(raw)
		if err := id.Validate(); err != nil {
			return nil, err
		}
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("migrate message for %s is not valid JSON", id)
		}
		if _, dup := msgs[id]; dup {
			return nil, fmt.Errorf("migrate message for %s given twice", id)
		}
		msgs[id] = json.RawMessage(payload)
	}
	return msgs, nil
}

func newAccountModulesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "modules <account>",
		Short: "List the modules installed on an account",
		Args:  cobra.ExactArgs(1),
		RunE: app.run("list installed modules", func(cmd *cobra.Command, args []string) error {
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				mods, err := d.InstalledModules(cmd.Context(), acc.Manager)
				if err != nil {
					return err
				}
				return app.emit(protocol.ModuleInfosResponse{Modules: mods}, func(w io.Writer) error {
					return printInstalled(w, mods)
				})
			})
		}),
	}
}

func newAccountDependentsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dependents <account> <namespace:name>",
		Short: "List installed modules that depend on a module",
		Args:  cobra.ExactArgs(2),
		RunE: app.run("list dependents", func(cmd *cobra.Command, args []string) error {
			id := module.ID(args[1])
			if err := id.Validate(); err != nil {
				return err
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				var resp protocol.DependentsResponse
				if err := d.Chain.Query(cmd.Context(), acc.Manager, protocol.ManagerQueryMsg{Dependents: &protocol.DependentsQuery{ModuleID: id}}, &resp); err != nil {
					return err
				}
				return app.emit(resp, func(w io.Writer) error {
					if len(resp.Dependents) == 0 {
						_, err := fmt.Fprintf(w, "Nothing depends on %s\n", CmdStyle.Render(id.String()))
						return err
					}
					for _, dep := range resp.Dependents {
						fmt.Fprintln(w, dep)
					}
					return nil
				})
			})
		}),
	}
}

func newAccountSuspendCommand(app *App) *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "suspend <account>",
		Short: "Suspend an account, or resume it with --resume",
		Args:  cobra.ExactArgs(1),
		RunE: app.run("update account status", func(cmd *cobra.Command, args []string) error {
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				res, err := d.Chain.Execute(cmd.Context(), acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
					UpdateStatus: &protocol.UpdateStatusMsg{IsSuspended: !resume},
				}, nil)
				if err != nil {
					return err
				}
				state := "suspended"
				if resume {
					state = "resumed"
				}
				return app.emit(txView{Account: acc.ID, Events: res.Events}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s Account %s %s\n", SuccessStyle.Render("✓"), acc.ID, state)
					return err
				})
			})
		}),
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "lift the suspension")
	return cmd
}

func newAccountExecCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <account> <namespace:name> <json>",
		Short: "Send an execute message to an installed module",
		Args:  cobra.ExactArgs(3),
		RunE: app.run("execute on module", func(cmd *cobra.Command, args []string) error {
			id := module.ID(args[1])
			if err := id.Validate(); err != nil {
				return err
			}
			if !json.Valid([]byte(args[2])) {
				return fmt.Errorf("execute message is not valid JSON: %s", args[2])
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				acc, err := app.account(cmd.Context(), d, args[0])
				if err != nil {
					return err
				}
				res, err := d.Chain.Execute(cmd.Context(), acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
					ExecOnModule: &protocol.ExecOnModuleMsg{ModuleID: id, ExecMsg: json.RawMessage(args[2])},
				}, nil)
				if err != nil {
					return err
				}
				return app.emit(txView{Account: acc.ID, Events: res.Events}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s Executed on %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(id.String()))
					return err
				})
			})
		}),
	}
}
