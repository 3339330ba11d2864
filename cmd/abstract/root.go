// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree on app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "abstract",
		Short: "Run and manage a modular smart-contract account framework",
		Long: TitleStyle.Render("abstract") + SubtitleStyle.Render(" - modular smart-contract accounts") + `

abstract runs the account framework on a local host whose state lives in
the state directory. A module registry tracks published module versions and
namespaces; accounts install modules from it, and the account manager keeps
their dependencies consistent across installs, removals and upgrades.

` + SubtitleStyle.Render("Quick Start:") + `
  1. abstract init                          Deploy the registry and factories
  2. abstract account create alice --namespace demo
  3. abstract registry propose demo:dex@1.0.0 --kind adapter --sender alice
  4. abstract account install 1 demo:dex

` + SubtitleStyle.Render("Examples:") + `
  abstract registry list --namespace demo   List registered demo modules
  abstract account modules 1                Show what account 1 runs
  abstract serve                            Serve the HTTP API
  abstract issue has-dependents             Explain a common error`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(app.flags.output); err != nil {
				cmd.SilenceErrors = true
				fmt.Fprintf(app.stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
				return &ExitError{Code: types.ExitUsage, Err: err}
			}
			return nil
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.configFile, "config", "", "config file (default is <state-dir>/config.cue)")
	flags.StringVar(&app.flags.stateDir, "state-dir", "", "state directory (default is ~/.abstract)")
	flags.StringVar(&app.flags.sender, "sender", "", "address sending the transactions (default depends on the command)")
	flags.StringVarP(&app.flags.output, "output", "o", outputText, "output format: text, json or toml")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(
		newInitCommand(app),
		newMintCommand(app),
		newRegistryCommand(app),
		newNamespaceCommand(app),
		newAccountCommand(app),
		newConfigCommand(app),
		newServeCommand(app),
		newIssueCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(renderError),
	)
	if err == nil {
		return int(types.ExitOK)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() && exitErr.Code.Validate() == nil {
		return int(exitErr.Code)
	}
	return int(types.ExitFailure)
}

// renderError prints errors cobra or fang raised. Command failures were
// already rendered by App.fail and arrive as ExitError.
func renderError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}
