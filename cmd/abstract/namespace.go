// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"

	"github.com/spf13/cobra"
)

func newNamespaceCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"ns"},
		Short:   "Claim and release namespaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "claim <account> <namespace>",
			Short: "Claim a namespace for an account",
			Long: `Claim a namespace for an account. The account owner sends the claim unless
--sender is given; the configured namespace fee is attached.`,
			Args: cobra.ExactArgs(2),
			RunE: app.run("claim namespace", func(cmd *cobra.Command, args []string) error {
				ns := module.Namespace(args[1])
				if err := ns.Validate(); err != nil {
					return err
				}
				return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
					acc, err := app.account(cmd.Context(), d, args[0])
					if err != nil {
						return err
					}
					if err := d.ClaimNamespace(cmd.Context(), acc.Owner, acc.ID, ns); err != nil {
						return err
					}
					entry := protocol.NamespaceEntry{Namespace: ns, AccountID: acc.ID}
					return app.emit(entry, func(w io.Writer) error {
						_, err := fmt.Fprintf(w, "%s Namespace %s claimed by account %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(ns.String()), acc.ID)
						return err
					})
				})
			}),
		},
		&cobra.Command{
			Use:   "remove <namespace>...",
			Short: "Release namespaces and yank their modules",
			Args:  cobra.MinimumNArgs(1),
			RunE: app.run("remove namespaces", func(cmd *cobra.Command, args []string) error {
				namespaces := make([]module.Namespace, 0, len(args))
				for _, arg := range args {
					ns := module.Namespace(arg)
					if err := ns.Validate(); err != nil {
						return err
					}
					namespaces = append(namespaces, ns)
				}
				return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
					sender, err := app.sender(d.Admin)
					if err != nil {
						return err
					}
					_, err = d.Chain.Execute(cmd.Context(), sender, d.Registry, protocol.RegistryExecuteMsg{
						RemoveNamespaces: &protocol.RemoveNamespacesMsg{Namespaces: namespaces},
					}, nil)
					if err != nil {
						return err
					}
					return app.emit(namespaces, func(w io.Writer) error {
						for _, ns := range namespaces {
							fmt.Fprintf(w, "%s Released %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(ns.String()))
						}
						return nil
					})
				})
			}),
		},
		newNamespaceListCommand(app),
	)
	return cmd
}

func newNamespaceListCommand(app *App) *cobra.Command {
	var (
		startAfter string
		limit      uint32
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List claimed namespaces",
		Args:  cobra.NoArgs,
		RunE: app.run("list namespaces", func(cmd *cobra.Command, _ []string) error {
			query := &protocol.NamespaceListQuery{}
			if cmd.Flags().Changed("limit") {
				query.Limit = &limit
			}
			if startAfter != "" {
				ns := module.Namespace(startAfter)
				query.StartAfter = &ns
			}
			return app.withDeployment(cmd.Context(), func(_ *session, d *deploy.Deployment) error {
				var resp protocol.NamespacesResponse
				if err := d.Chain.Query(cmd.Context(), d.Registry, protocol.RegistryQueryMsg{NamespaceList: query}, &resp); err != nil {
					return err
				}
				return app.emit(resp, func(w io.Writer) error {
					if len(resp.Namespaces) == 0 {
						_, err := fmt.Fprintln(w, SubtitleStyle.Render("No namespaces claimed."))
						return err
					}
					t := newTable("NAMESPACE", "ACCOUNT")
					for _, e := range resp.Namespaces {
						t.Row(e.Namespace.String(), e.AccountID.String())
					}
					_, err := fmt.Fprintln(w, t)
					return err
				})
			})
		}),
	}
	cmd.Flags().StringVar(&startAfter, "start-after", "", "page after this namespace")
	cmd.Flags().Uint32Var(&limit, "limit", protocol.DefaultPageLimit, "page size")
	return cmd
}
