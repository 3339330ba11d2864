// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/issue"
	"github.com/abstractsdk/abstract/internal/modfactory"
	"github.com/abstractsdk/abstract/internal/registry"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/spf13/cobra"
)

// classifyError maps a command failure to an issue catalog entry and an exit code.
func classifyError(err error) (issue.Id, types.ExitCode) {
	code := types.ExitFailure
	var contractErr *host.ContractError
	if errors.As(err, &contractErr) {
		code = types.ExitRejected
	}

	switch {
	case errors.Is(err, deploy.ErrNotDeployed):
		return issue.NotDeployedId, types.ExitNotDeployed
	case errors.Is(err, account.ErrMigrationVerification):
		return issue.MigrationVerificationFailedId, types.ExitVerificationFailed
	case errors.Is(err, account.ErrHasDependents):
		return issue.HasDependentsId, code
	case errors.Is(err, account.ErrMissingDependency), errors.Is(err, module.ErrUnmetRequirement):
		return issue.MissingDependencyId, code
	case errors.Is(err, account.ErrAccountSuspended):
		return issue.AccountSuspendedId, code
	case errors.Is(err, modfactory.ErrInvalidInstallFunds):
		return issue.InstallFeeMismatchId, code
	case errors.Is(err, modfactory.ErrModuleNotInstallable):
		return issue.ModuleNotInstallableId, code
	case errors.Is(err, registry.ErrModuleNotFound), errors.Is(err, account.ErrModuleNotRegistered):
		return issue.ModuleNotFoundId, code
	case errors.Is(err, registry.ErrNamespaceOccupied),
		errors.Is(err, registry.ErrExceedsNamespaceLimit),
		errors.Is(err, registry.ErrReservedNamespace),
		errors.Is(err, registry.ErrUnknownNamespace):
		return issue.NamespaceConflictId, code
	case errors.Is(err, protocol.ErrUnauthorized):
		return issue.UnauthorizedId, code
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Issue, code
	}
	return 0, code
}

// fail renders err on stderr and returns the ExitError the command exits with.
// Errors that already carry context are shown as they are; others are wrapped
// with op and the catalog entry they classify as.
func (a *App) fail(cmd *cobra.Command, op string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	id, code := classifyError(err)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		hints := contractHints(err)
		if id == 0 && len(hints) == 0 {
			ae = issue.WrapWithOperation(err, op)
		} else {
			ae = issue.NewErrorContext().WithOperation(op).WithSuggestions(hints...).WithIssue(id).Wrap(err).Build()
		}
	}
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), ae.Format(a.flags.verbose))
	if !ae.HasSuggestions() && !a.flags.verbose {
		fmt.Fprintln(a.stderr, SubtitleStyle.Render("Run with --verbose to see the full error chain."))
	}
	if code.IsRejection() {
		fmt.Fprintln(a.stderr, SubtitleStyle.Render("The transaction was reverted; no state changed."))
	}

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: code, Err: ae}
}

// contractHints names the contract and message that rejected a transaction.
func contractHints(err error) []string {
	var contractErr *host.ContractError
	if !errors.As(err, &contractErr) {
		return nil
	}
	msg := contractErr.Entry
	if contractErr.Variant != "" {
		msg = contractErr.Variant
	}
	return []string{fmt.Sprintf("Check the %s message sent to %s", msg, contractErr.Contract)}
}

// run adapts a handler to cobra's RunE, routing failures through fail.
func (a *App) run(op string, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return a.fail(cmd, op, fn(cmd, args))
	}
}
