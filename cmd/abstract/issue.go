// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/abstractsdk/abstract/internal/issue"

	"github.com/spf13/cobra"
)

type issueView struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions,omitempty"`
	Markdown    string   `json:"markdown,omitempty"`
}

func newIssueCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "issue [name]",
		Short: "Explain an error and how to fix it",
		Long: `Explain an error and how to fix it. Errors printed by abstract name the
entry to read. Without a name, every entry is listed.`,
		Example: `  abstract issue
  abstract issue has-dependents`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.run("show issue", func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listIssues(app)
			}
			iss, ok := issue.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown issue %q, run 'abstract issue' to list them", args[0])
			}
			view := issueView{Name: iss.Name(), Suggestions: iss.Suggestions(), Markdown: string(iss.MarkdownMsg())}
			return app.emit(view, func(w io.Writer) error {
				rendered, err := iss.Render(style)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(w, rendered)
				return err
			})
		}),
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or a style file")
	return cmd
}

func listIssues(app *App) error {
	all := issue.Values()
	views := make([]issueView, 0, len(all))
	for _, iss := range all {
		views = append(views, issueView{Name: iss.Name(), Suggestions: iss.Suggestions()})
	}
	return app.emit(map[string][]issueView{"issues": views}, func(w io.Writer) error {
		t := newTable("ISSUE", "FIRST SUGGESTION")
		for _, v := range views {
			hint := ""
			if len(v.Suggestions) > 0 {
				hint = v.Suggestions[0]
			}
			t.Row(v.Name, hint)
		}
		_, err := fmt.Fprintln(w, t)
		return err
	})
}
