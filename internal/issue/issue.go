// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry. The zero value is "no issue".
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	NotDeployedId
	ManifestInvalidId
	NamespaceConflictId
	ModuleNotFoundId
	ModuleNotInstallableId
	MissingDependencyId
	HasDependentsId
	InstallFeeMismatchId
	UnauthorizedId
	AccountSuspendedId
	MigrationVerificationFailedId
)

type (
	MarkdownMsg string

	HttpLink string

	Issue struct {
		id          Id
		name        string      // stable name used by `abstract issue <name>`
		mdMsg       MarkdownMsg // Markdown text that will be rendered
		suggestions []string    // short hints copied into ActionableError
		docLinks    []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Suggestions() []string {
	return slices.Clone(i.suggestions)
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		suggestions: []string{
			"Run 'abstract config show' to see the effective configuration",
		},
		mdMsg: `
# Failed to load the configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Check the error above for the offending path and value
- Compare your file with the defaults:
~~~
$ abstract config show
~~~

## Example configuration:
~~~cue
state_dir: "~/.abstract"
store: {
  backend: "badger"
}
log: {
  level:  "info"
  format: "text"
}
registry: {
  security_enabled: true
  namespace_limit:  10
}
~~~`,
	}

	notDeployedIssue = &Issue{
		id:   NotDeployedId,
		name: "not-deployed",
		suggestions: []string{
			"Run 'abstract init' to deploy the framework",
		},
		mdMsg: `
# The framework is not deployed!

No registry, module factory or treasury account was found in the state
directory.

## Things you can try:
- Deploy the framework:
~~~
$ abstract init
~~~
- Point the CLI at an existing state directory:
~~~
$ abstract --state-dir /path/to/state registry list
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id:   ManifestInvalidId,
		name: "manifest-invalid",
		suggestions: []string{
			"Check the manifest against the module schema",
		},
		mdMsg: `
# The module manifest is invalid!

A manifest lists modules to publish. Each one needs a name, an exact version
and a kind.

## Example manifest:
~~~cue
namespace: "demo"
modules: [
  {name: "dex", version: "1.0.0", kind: "adapter"},
  {
    name:    "autocompounder"
    version: "1.0.0"
    kind:    "app"
    dependencies: [{id: "demo:dex", version_req: ["^1.0.0"]}]
  },
]
~~~`,
	}

	namespaceConflictIssue = &Issue{
		id:   NamespaceConflictId,
		name: "namespace-conflict",
		suggestions: []string{
			"List claimed namespaces with 'abstract namespace list'",
		},
		mdMsg: `
# Namespace already claimed!

Each namespace belongs to exactly one account. The namespace you asked for is
taken, or your account reached the namespace limit.

## Things you can try:
- Pick another namespace
- Ask the registry owner to remove a stale claim
- Remove a namespace your account no longer publishes under:
~~~
$ abstract namespace remove <namespace>
~~~`,
	}

	moduleNotFoundIssue = &Issue{
		id:   ModuleNotFoundId,
		name: "module-not-found",
		suggestions: []string{
			"List registered modules with 'abstract registry list'",
		},
		mdMsg: `
# Module not found!

The registry has no registered version of the module you asked for. A
proposal may still be pending approval.

## Things you can try:
- List pending proposals:
~~~
$ abstract registry list --status pending
~~~
- Check the namespace, name and version for typos`,
	}

	moduleNotInstallableIssue = &Issue{
		id:   ModuleNotInstallableId,
		name: "module-not-installable",
		mdMsg: `
# Module cannot be installed!

Only registered modules can be installed. Yanked versions stay installed on
accounts that already use them but cannot be installed again.

## Things you can try:
- Install the latest registered version by leaving out the version
- Ask the publisher why the version was yanked`,
	}

	missingDependencyIssue = &Issue{
		id:   MissingDependencyId,
		name: "missing-dependency",
		suggestions: []string{
			"Install the dependencies listed by the module first",
		},
		mdMsg: `
# Module dependencies not satisfied!

A module declares the modules it needs together with semver requirements.
Every dependency must be installed on the account at a version that meets all
of its requirements.

## Things you can try:
- Install the missing dependency first:
~~~
$ abstract account install <account> <namespace:name>
~~~
- Upgrade the dependency and its dependents in a single batch:
~~~
$ abstract account upgrade <account> demo:dex@2.0.0 demo:autocompounder@2.0.0
~~~`,
	}

	hasDependentsIssue = &Issue{
		id:   HasDependentsId,
		name: "has-dependents",
		suggestions: []string{
			"Uninstall the dependent modules first",
		},
		mdMsg: `
# Module is still required!

Other modules installed on the account depend on this module. Removing it
would leave them broken.

## Things you can try:
- List the dependents:
~~~
$ abstract account modules <account>
~~~
- Uninstall the dependents, then retry`,
	}

	installFeeMismatchIssue = &Issue{
		id:   InstallFeeMismatchId,
		name: "install-fee-mismatch",
		suggestions: []string{
			"Attach exactly the install fee plus the instantiation funds",
		},
		mdMsg: `
# Wrong funds for installation!

Modules may charge an install fee and require instantiation funds. The funds
attached to the installation must match their sum exactly.

## Things you can try:
- Inspect the module configuration:
~~~
$ abstract registry show <namespace:name@version>
~~~`,
	}

	unauthorizedIssue = &Issue{
		id:   UnauthorizedId,
		name: "unauthorized",
		mdMsg: `
# Not authorized!

The sender is not allowed to perform this operation. Namespaces are managed by
the owner of the claiming account and the reserved namespace by the registry
owner. Accounts are managed by their owner.

## Things you can try:
- Run the command with the right sender:
~~~
$ abstract --sender <address> ...
~~~`,
	}

	accountSuspendedIssue = &Issue{
		id:   AccountSuspendedId,
		name: "account-suspended",
		mdMsg: `
# Account suspended!

A suspended account cannot install, upgrade or call modules. Uninstalling
remains possible.

## Things you can try:
- Resume the account:
~~~
$ abstract account suspend <account> --resume
~~~`,
	}

	migrationVerificationFailedIssue = &Issue{
		id:   MigrationVerificationFailedId,
		name: "migration-verification-failed",
		suggestions: []string{
			"Include every affected dependent in the same upgrade batch",
		},
		mdMsg: `
# Post-migration verification failed!

After an upgrade batch migrates its modules, the account re-reads each
module's declared dependencies and checks them against what is installed.
The check failed, so the whole batch was reverted and the account still runs
the previous versions.

## Partial migrations
On hosts that cannot revert a batch, modules may already run new code while
the dependency index still describes the old one. The account then refuses
further upgrades until the migration context is cleared. Restore the previous
versions from a backup of the state directory before retrying.

## Things you can try:
- Install the dependency the new version requires, then retry
- Upgrade the module together with its dependents
- Check the new version's declared dependencies:
~~~
$ abstract registry show <namespace:name@version>
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():            configLoadFailedIssue,
		notDeployedIssue.Id():                 notDeployedIssue,
		manifestInvalidIssue.Id():             manifestInvalidIssue,
		namespaceConflictIssue.Id():           namespaceConflictIssue,
		moduleNotFoundIssue.Id():              moduleNotFoundIssue,
		moduleNotInstallableIssue.Id():        moduleNotInstallableIssue,
		missingDependencyIssue.Id():           missingDependencyIssue,
		hasDependentsIssue.Id():               hasDependentsIssue,
		installFeeMismatchIssue.Id():          installFeeMismatchIssue,
		unauthorizedIssue.Id():                unauthorizedIssue,
		accountSuspendedIssue.Id():            accountSuspendedIssue,
		migrationVerificationFailedIssue.Id(): migrationVerificationFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (*Issue, bool) {
	for _, iss := range issues {
		if iss.name == name {
			return iss, true
		}
	}
	return nil, false
}
