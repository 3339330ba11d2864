// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// Admin owns the registry and creates accounts.
	Admin types.Addr = "admin"
	// Alice owns the "demo" namespace account.
	Alice types.Addr = "alice"
	// Bob owns an account without a namespace.
	Bob types.Addr = "bob"
	// Namespace is claimed by Alice's account.
	Namespace module.Namespace = "demo"
)

// Framework is a deployment with two user accounts.
type Framework struct {
	*deploy.Deployment

	t     testing.TB
	Ctx   context.Context
	Alice deploy.Account
	Bob   deploy.Account
}

// New bootstraps the framework over a fresh in-memory store.
func New(t testing.TB, opts deploy.Options) *Framework {
	t.Helper()
	ctx := context.Background()
	chain := host.New(store.NewMemory())
	d, err := deploy.Bootstrap(ctx, chain, Admin, opts)
	must(t, err)

	f := &Framework{Deployment: d, t: t, Ctx: ctx}
	if opts.NamespaceFee != nil && opts.NamespaceFee.Amount > 0 {
		must(t, chain.Mint(ctx, Admin, types.Coins{*opts.NamespaceFee}))
	}
	f.Alice, err = d.CreateAccount(ctx, Alice, Namespace)
	must(t, err)
	f.Bob, err = d.CreateAccount(ctx, Bob, "")
	must(t, err)
	return f
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// Info parses "namespace:name@version" or fails the test.
func (f *Framework) Info(s string) module.Info {
	f.t.Helper()
	mi, err := module.ParseInfo(s)
	must(f.t, err)
	return mi
}

// Dep declares a dependency on id with the given requirements.
func Dep(id module.ID, reqs ...string) module.Dependency {
	return module.Dependency{ID: id, VersionReq: reqs}
}

// MustPublish publishes a module as Alice.
func (f *Framework) MustPublish(info string, kind module.ReferenceKind, deps ...module.Dependency) module.Reference {
	f.t.Helper()
	ref, err := f.Publish(f.Ctx, Alice, f.Info(info), kind, deps)
	must(f.t, err)
	return ref
}

// MustInstall installs a module on acc without init message or funds.
func (f *Framework) MustInstall(acc deploy.Account, info string) types.Addr {
	f.t.Helper()
	mi := f.Info(info)
	_, err := f.Install(f.Ctx, acc, mi, nil, nil)
	must(f.t, err)
	addr, ok, err := f.ModuleAddress(f.Ctx, acc, mi.ID())
	must(f.t, err)
	if !ok {
		f.t.Fatalf("%s not installed after install", mi)
	}
	return addr
}

// Exec forwards msg to the installed module id of acc as its owner.
func (f *Framework) Exec(acc deploy.Account, id module.ID, msg any, funds ...types.Coin) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = f.Chain.Execute(f.Ctx, acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
		ExecOnModule: &protocol.ExecOnModuleMsg{ModuleID: id, ExecMsg: raw},
	}, types.Coins(funds))
	return err
}

// Installed returns the address of id on acc, or "" when it is not installed.
func (f *Framework) Installed(acc deploy.Account, id module.ID) types.Addr {
	f.t.Helper()
	addr, _, err := f.ModuleAddress(f.Ctx, acc, id)
	must(f.t, err)
	return addr
}

// Versions maps every installed module of acc to its running version.
func (f *Framework) Versions(acc deploy.Account) map[module.ID]string {
	f.t.Helper()
	var resp protocol.ModuleInfosResponse
	must(f.t, f.Chain.Query(f.Ctx, acc.Manager, protocol.ManagerQueryMsg{ModuleInfos: &protocol.ModuleInfosQuery{}}, &resp))
	out := make(map[module.ID]string, len(resp.Modules))
	for _, m := range resp.Modules {
		out[m.ID] = m.Version.Version
	}
	return out
}

// Dependents lists the modules of acc depending on id.
func (f *Framework) Dependents(acc deploy.Account, id module.ID) []module.ID {
	f.t.Helper()
	var resp protocol.DependentsResponse
	must(f.t, f.Chain.Query(f.Ctx, acc.Manager, protocol.ManagerQueryMsg{Dependents: &protocol.DependentsQuery{ModuleID: id}}, &resp))
	return resp.Dependents
}

// MigrationContext returns the pending migration entries of acc.
func (f *Framework) MigrationContext(acc deploy.Account) []protocol.MigrationEntry {
	f.t.Helper()
	var resp protocol.MigrationContextResponse
	must(f.t, f.Chain.Query(f.Ctx, acc.Manager, protocol.ManagerQueryMsg{MigrationContext: &protocol.Empty{}}, &resp))
	return resp.Entries
}

// Authorized lists the callers adapter accepts on behalf of acc.
func (f *Framework) Authorized(adapter types.Addr, acc deploy.Account) []types.Addr {
	f.t.Helper()
	var resp protocol.AuthorizedAddressesResponse
	q := protocol.AdapterQueryMsg{Base: &protocol.AdapterBaseQuery{AuthorizedAddresses: &protocol.AuthorizedAddressesQuery{ProxyAddress: acc.Proxy}}}
	must(f.t, f.Chain.Query(f.Ctx, adapter, q, &resp))
	return resp.Addresses
}

// Whitelist lists the modules the proxy of acc accepts actions from.
func (f *Framework) Whitelist(acc deploy.Account) []types.Addr {
	f.t.Helper()
	var resp protocol.ProxyConfigResponse
	must(f.t, f.Chain.Query(f.Ctx, acc.Proxy, protocol.ProxyQueryMsg{Config: &protocol.Empty{}}, &resp))
	return resp.Modules
}

// Upgrade builds an upgrade entry for info with an optional migrate message.
func Upgrade(mi module.Info, migrateMsg string) protocol.ModuleUpgrade {
	u := protocol.ModuleUpgrade{Module: mi}
	if migrateMsg != "" {
		u.MigrateMsg = json.RawMessage(migrateMsg)
	}
	return u
}
