// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/issue"
	"github.com/abstractsdk/abstract/pkg/manifest"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/spf13/cobra"
)

func newRegistryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Publish and moderate modules",
		Long: `Publish module versions to the registry and moderate proposals.

Moderation commands (approve, reject, yank, remove) are sent by the registry
admin unless --sender is given. Publishing commands are sent by --sender,
which must own the module's namespace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newRegistryProposeCommand(app),
		newRegistryPublishCommand(app),
		newRegistryModerateCommand(app, "approve", "Approve pending proposals"),
		newRegistryModerateCommand(app, "reject", "Reject pending proposals"),
		newRegistryModerateCommand(app, "yank", "Withdraw registered versions from new installs"),
		newRegistryModerateCommand(app, "remove", "Delete registered or yanked versions"),
		newRegistryListCommand(app),
		newRegistryShowCommand(app),
		newRegistryConfigCommand(app),
	)
	return cmd
}

func newRegistryProposeCommand(app *App) *cobra.Command {
	var (
		kind string
		deps []string
	)
	cmd := &cobra.Command{
		Use:   "propose <namespace:name@version>",
		Short: "Deploy a module and propose it to the registry",
		Example: `  abstract registry propose demo:dex@1.0.0 --kind adapter --sender alice
  abstract registry propose demo:autocompounder@1.0.0 --kind app --dep demo:dex@^1.0.0 --sender alice`,
		Args: cobra.ExactArgs(1),
		RunE: app.run("propose module", func(cmd *cobra.Command, args []string) error {
			mi, err := module.ParseInfo(args[0])
			if err != nil {
				return err
			}
			dependencies, err := parseDependencies(deps)
			if err != nil {
				return err
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				sender, err := app.sender(d.Admin)
				if err != nil {
					return err
				}
				ref, err := d.Publish(cmd.Context(), sender, mi, module.ReferenceKind(kind), dependencies)
				if err != nil {
					return err
				}
				entry := protocol.ModuleEntry{Info: mi, Reference: ref}
				return app.emit(entry, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s Proposed %s (%s)\n", SuccessStyle.Render("✓"), CmdStyle.Render(mi.String()), ref)
					return err
				})
			})
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", string(module.KindApp), "module kind: app, adapter or standalone")
	cmd.Flags().StringArrayVar(&deps, "dep", nil, "dependency as namespace:name[@requirement[,requirement]] (repeatable)")
	return cmd
}

// parseDependencies reads --dep values of the form ns:name@req1,req2.
func parseDependencies(values []string) ([]module.Dependency, error) {
	deps := make([]module.Dependency, 0, len(values))
	for _, v := range values {
		id, reqs, _ := strings.Cut(v, "@")
		dep := module.Dependency{ID: module.ID(id)}
		if reqs != "" {
			dep.VersionReq = strings.Split(reqs, ",")
		}
		if err := dep.Validate(); err != nil {
			return nil, fmt.Errorf("dependency %q: %w", v, err)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func newRegistryPublishCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish [manifest]",
		Short: "Publish every module listed in a manifest",
		Long: `Deploy and propose every module listed in a CUE manifest (default
` + manifest.DefaultFilename + `). Module configs are applied to versions that
are registered right away; pending proposals keep the registry defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.run("publish manifest", func(cmd *cobra.Command, args []string) error {
			path := manifest.DefaultFilename
			if len(args) == 1 {
				path = args[0]
			}
			m, err := manifest.Load(path)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("load manifest").
					WithResource(path).
					WithIssue(issue.ManifestInvalidId).
					Wrap(err).
					BuildError()
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				sender, err := app.sender(d.Admin)
				if err != nil {
					return err
				}
				entries, err := d.PublishManifest(cmd.Context(), sender, m)
				if err != nil {
					return err
				}
				view := protocol.ProposeModulesMsg{Modules: entries}
				return app.emit(view, func(w io.Writer) error {
					t := newTable("MODULE", "REFERENCE")
					for _, e := range entries {
						t.Row(e.Info.String(), e.Reference.String())
					}
					fmt.Fprintf(w, "%s Published %d modules from %s\n", SuccessStyle.Render("✓"), len(entries), path)
					_, err := fmt.Fprintln(w, t)
					return err
				})
			})
		}),
	}
}

// newRegistryModerateCommand builds approve, reject, yank and remove, which
// share their shape: a list of module versions sent by the admin.
func newRegistryModerateCommand(app *App, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <namespace:name@version>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: app.run(action+" modules", func(cmd *cobra.Command, args []string) error {
			infos := make([]module.Info, 0, len(args))
			for _, arg := range args {
				mi, err := module.ParseInfo(arg)
				if err != nil {
					return err
				}
				infos = append(infos, mi)
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				sender, err := app.sender(d.Admin)
				if err != nil {
					return err
				}
				if err := moderate(cmd.Context(), d, sender, action, infos); err != nil {
					return err
				}
				return app.emit(infos, func(w io.Writer) error {
					for _, mi := range infos {
						fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), pastTense(action), CmdStyle.Render(mi.String()))
					}
					return nil
				})
			})
		}),
	}
}

func moderate(ctx context.Context, d *deploy.Deployment, sender types.Addr, action string, infos []module.Info) error {
	var msgs []protocol.RegistryExecuteMsg
	switch action {
	case "approve":
		msgs = append(msgs, protocol.RegistryExecuteMsg{ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{Approves: infos}})
	case "reject":
		msgs = append(msgs, protocol.RegistryExecuteMsg{ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{Rejects: infos}})
	case "yank":
		for _, mi := range infos {
			msgs = append(msgs, protocol.RegistryExecuteMsg{YankModule: &protocol.YankModuleMsg{Module: mi}})
		}
	case "remove":
		for _, mi := range infos {
			msgs = append(msgs, protocol.RegistryExecuteMsg{RemoveModule: &protocol.RemoveModuleMsg{Module: mi}})
		}
	default:
		return fmt.Errorf("unknown registry action %q", action)
	}
	for _, msg := range msgs {
		if _, err := d.Chain.Execute(ctx, sender, d.Registry, msg, nil); err != nil {
			return err
		}
	}
	return nil
}

func pastTense(action string) string {
	switch action {
	case "approve":
		return "Approved"
	case "reject":
		return "Rejected"
	case "yank":
		return "Yanked"
	default:
		return "Removed"
	}
}

func newRegistryListCommand(app *App) *cobra.Command {
	var (
		filter     protocol.ModuleFilter
		status     string
		startAfter string
		limit      uint32
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules in the registry",
		Args:  cobra.NoArgs,
		RunE: app.run("list modules", func(cmd *cobra.Command, _ []string) error {
			filter.Status = module.Status(status)
			if filter.Status != "" {
				if err := filter.Status.Validate(); err != nil {
					return err
				}
			}
			query := &protocol.ModuleListQuery{Filter: &filter}
			if cmd.Flags().Changed("limit") {
				query.Limit = &limit
			}
			if startAfter != "" {
				mi, err := module.ParseInfo(startAfter)
				if err != nil {
					return err
				}
				query.StartAfter = &mi
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				var resp protocol.ModuleListResponse
				if err := d.Chain.Query(cmd.Context(), d.Registry, protocol.RegistryQueryMsg{ModuleList: query}, &resp); err != nil {
					return err
				}
				return app.emit(resp, func(w io.Writer) error {
					return printModules(w, resp.Modules)
				})
			})
		}),
	}
	cmd.Flags().StringVar((*string)(&filter.Namespace), "namespace", "", "only modules in this namespace")
	cmd.Flags().StringVar((*string)(&filter.Name), "name", "", "only modules with this name")
	cmd.Flags().StringVar(&filter.Version, "version", "", "only this version")
	cmd.Flags().StringVar(&status, "status", "", "registered (default), pending or yanked")
	cmd.Flags().StringVar(&startAfter, "start-after", "", "page after this namespace:name@version")
	cmd.Flags().Uint32Var(&limit, "limit", protocol.DefaultPageLimit, "page size")
	return cmd
}

func printModules(w io.Writer, mods []protocol.ModuleResponse) error {
	if len(mods) == 0 {
		_, err := fmt.Fprintln(w, SubtitleStyle.Render("No modules found."))
		return err
	}
	t := newTable("MODULE", "KIND", "STATUS", "REFERENCE")
	for _, m := range mods {
		t.Row(m.Info.String(), m.Reference.Kind.String(), m.Status.String(), m.Reference.String())
	}
	_, err := fmt.Fprintln(w, t)
	return err
}

func newRegistryShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <namespace:name[@version]>",
		Short: "Resolve a module to its registered version",
		Args:  cobra.ExactArgs(1),
		RunE: app.run("show module", func(cmd *cobra.Command, args []string) error {
			mi, err := module.ParseInfo(args[0])
			if err != nil {
				return err
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				var resp protocol.ModulesResponse
				if err := d.Chain.Query(cmd.Context(), d.Registry, protocol.RegistryQueryMsg{Modules: &protocol.ModulesQuery{Infos: []module.Info{mi}}}, &resp); err != nil {
					return err
				}
				if len(resp.Modules) == 0 {
					return fmt.Errorf("module %s not found", mi)
				}
				m := resp.Modules[0]
				return app.emit(m, func(w io.Writer) error {
					fee := "free"
					if cost := m.Config.InstallCost(); !cost.IsZero() {
						fee = cost.String()
					}
					_, err := fmt.Fprint(w, keyValue(
						[2]string{"Module", CmdStyle.Render(m.Info.String())},
						[2]string{"Kind", m.Reference.Kind.String()},
						[2]string{"Status", m.Status.String()},
						[2]string{"Reference", m.Reference.String()},
						[2]string{"Install fee", fee},
					))
					return err
				})
			})
		}),
	}
}

func newRegistryConfigCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the registry settings",
		Args:  cobra.NoArgs,
		RunE: app.run("show registry config", func(cmd *cobra.Command, _ []string) error {
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				var resp protocol.RegistryConfigResponse
				if err := d.Chain.Query(cmd.Context(), d.Registry, protocol.RegistryQueryMsg{Config: &protocol.Empty{}}, &resp); err != nil {
					return err
				}
				return app.emit(resp, func(w io.Writer) error {
					fee, limit := "none", "unlimited"
					if resp.NamespaceFee != nil {
						fee = resp.NamespaceFee.String()
					}
					if resp.NamespaceLimit > 0 {
						limit = fmt.Sprint(resp.NamespaceLimit)
					}
					_, err := fmt.Fprint(w, keyValue(
						[2]string{"Owner", CmdStyle.Render(resp.Owner.String())},
						[2]string{"Security", fmt.Sprint(resp.SecurityEnabled)},
						[2]string{"Namespace limit", limit},
						[2]string{"Namespace fee", fee},
						[2]string{"Account factory", CmdStyle.Render(resp.AccountFactory.String())},
					))
					return err
				})
			})
		}),
	}
}
