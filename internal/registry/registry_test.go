// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deployer types.Addr = "deployer"
	alice    types.Addr = "alice"
	bob      types.Addr = "bob"
)

type (
	// stubAccount plays the manager of an account: it answers the config query
	// with the owner it was created with. It optionally records module data so it
	// can also stand in for an adapter.
	stubAccount struct{}

	stubInit struct {
		Owner     types.Addr      `json:"owner"`
		AccountID types.AccountID `json:"account_id"`
		Module    *module.Data    `json:"module,omitempty"`
	}

	testEnv struct {
		t        *testing.T
		ctx      context.Context
		chain    *host.Chain
		registry types.Addr
		stubCode host.CodeID
		treasury protocol.AccountBase
		alice    protocol.AccountBase
	}
)

var stubState = store.NewItem[stubInit]("stub")

func (stubAccount) Instantiate(_ context.Context, deps host.Deps, _ host.Env, _ host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[stubInit](raw)
	if err != nil {
		return nil, err
	}
	if msg.Module != nil {
		if err := modbase.Init(deps.Store, *msg.Module); err != nil {
			return nil, err
		}
	}
	return host.NewResponse(), stubState.Save(deps.Store, msg)
}

func (stubAccount) Execute(context.Context, host.Deps, host.Env, host.MessageInfo, json.RawMessage) (*host.Response, error) {
	return host.NewResponse(), nil
}

func (stubAccount) Query(_ context.Context, deps host.Deps, _ host.Env, _ json.RawMessage) (json.RawMessage, error) {
	st, err := stubState.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	return host.QueryResponse(protocol.ManagerConfigResponse{AccountID: st.AccountID, Owner: st.Owner})
}

func newTestEnv(t *testing.T, init protocol.RegistryInstantiateMsg) *testEnv {
	t.Helper()
	e := &testEnv{t: t, ctx: context.Background(), chain: host.New(store.NewMemory())}
	e.chain.RegisterBuilder(BuilderName, Build)
	e.chain.RegisterBuilder("stub", func(json.RawMessage) (host.Contract, error) { return stubAccount{}, nil })

	regCode, err := e.chain.StoreCode(BuilderName, nil)
	require.NoError(t, err)
	e.stubCode, err = e.chain.StoreCode("stub", nil)
	require.NoError(t, err)

	e.registry, _, err = e.chain.Instantiate(e.ctx, deployer, regCode, init, nil, deployer, "registry")
	require.NoError(t, err)

	e.treasury = e.addAccount(0, deployer)
	e.alice = e.addAccount(1, alice)
	return e
}

func (e *testEnv) stub(msg stubInit, admin types.Addr) types.Addr {
	e.t.Helper()
	addr, _, err := e.chain.Instantiate(e.ctx, deployer, e.stubCode, msg, nil, admin, "stub")
	require.NoError(e.t, err)
	return addr
}

func (e *testEnv) addAccount(id types.AccountID, owner types.Addr) protocol.AccountBase {
	e.t.Helper()
	base := protocol.AccountBase{
		Manager: e.stub(stubInit{Owner: owner, AccountID: id}, ""),
		Proxy:   e.stub(stubInit{Owner: owner, AccountID: id}, ""),
	}
	_, err := e.exec(deployer, protocol.RegistryExecuteMsg{AddAccount: &protocol.AddAccountMsg{AccountID: id, Base: base}})
	require.NoError(e.t, err)
	return base
}

func (e *testEnv) exec(sender types.Addr, msg protocol.RegistryExecuteMsg, funds ...types.Coin) (*host.Result, error) {
	return e.chain.Execute(e.ctx, sender, e.registry, msg, types.Coins(funds))
}

func (e *testEnv) claim(sender types.Addr, id types.AccountID, ns module.Namespace, funds ...types.Coin) error {
	_, err := e.exec(sender, protocol.RegistryExecuteMsg{ClaimNamespace: &protocol.ClaimNamespaceMsg{AccountID: id, Namespace: ns}}, funds...)
	return err
}

func (e *testEnv) propose(sender types.Addr, entries ...protocol.ModuleEntry) error {
	_, err := e.exec(sender, protocol.RegistryExecuteMsg{ProposeModules: &protocol.ProposeModulesMsg{Modules: entries}})
	return err
}

func (e *testEnv) modules(infos ...module.Info) (protocol.ModulesResponse, error) {
	var resp protocol.ModulesResponse
	err := e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{Modules: &protocol.ModulesQuery{Infos: infos}}, &resp)
	return resp, err
}

func (e *testEnv) list(q protocol.ModuleListQuery) protocol.ModuleListResponse {
	e.t.Helper()
	var resp protocol.ModuleListResponse
	require.NoError(e.t, e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{ModuleList: &q}, &resp))
	return resp
}

func info(t *testing.T, s string) module.Info {
	t.Helper()
	mi, err := module.ParseInfo(s)
	require.NoError(t, err)
	return mi
}

func app(t *testing.T, s string, code host.CodeID) protocol.ModuleEntry {
	return protocol.ModuleEntry{Info: info(t, s), Reference: module.AppRef(code)}
}

func TestProposeModules_RegistersWithoutSecurity(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))

	require.NoError(t, e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode)))

	resp, err := e.modules(info(t, "acme:vault"))
	require.NoError(t, err)
	require.Len(t, resp.Modules, 1)
	assert.Equal(t, "acme:vault@1.0.0", resp.Modules[0].Info.String())
	assert.Equal(t, module.StatusRegistered, resp.Modules[0].Status)
	assert.Equal(t, module.AppRef(e.stubCode), resp.Modules[0].Reference)
}

func TestProposeModules_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sender  types.Addr
		entry   func(t *testing.T, e *testEnv) protocol.ModuleEntry
		wantErr error
	}{
		{
			name:    "latest version",
			sender:  alice,
			entry:   func(t *testing.T, e *testEnv) protocol.ModuleEntry { return app(t, "acme:vault", e.stubCode) },
			wantErr: module.ErrLatestNotAllowed,
		},
		{
			name:    "foreign namespace",
			sender:  bob,
			entry:   func(t *testing.T, e *testEnv) protocol.ModuleEntry { return app(t, "acme:vault@1.0.0", e.stubCode) },
			wantErr: protocol.ErrUnauthorized,
		},
		{
			name:    "reserved namespace by non-owner",
			sender:  alice,
			entry:   func(t *testing.T, e *testEnv) protocol.ModuleEntry { return app(t, "abstract:vault@1.0.0", e.stubCode) },
			wantErr: protocol.ErrUnauthorized,
		},
		{
			name:    "unclaimed namespace",
			sender:  alice,
			entry:   func(t *testing.T, e *testEnv) protocol.ModuleEntry { return app(t, "nobody:vault@1.0.0", e.stubCode) },
			wantErr: ErrUnknownNamespace,
		},
		{
			name:    "unknown code",
			sender:  alice,
			entry:   func(t *testing.T, _ *testEnv) protocol.ModuleEntry { return app(t, "acme:vault@1.0.0", 99) },
			wantErr: host.ErrUnknownCode,
		},
		{
			name:   "adapter with admin",
			sender: alice,
			entry: func(t *testing.T, e *testEnv) protocol.ModuleEntry {
				addr := e.stub(stubInit{}, deployer)
				return protocol.ModuleEntry{Info: info(t, "acme:dex@1.0.0"), Reference: module.AdapterRef(addr)}
			},
			wantErr: ErrAdminMustBeNone,
		},
		{
			name:   "account code outside reserved namespace",
			sender: alice,
			entry: func(t *testing.T, e *testEnv) protocol.ModuleEntry {
				return protocol.ModuleEntry{Info: info(t, "acme:manager@1.0.0"), Reference: module.AccountBaseRef(e.stubCode)}
			},
			wantErr: ErrAccountBaseNamespace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
			require.NoError(t, e.claim(alice, 1, "acme"))
			err := e.propose(tt.sender, tt.entry(t, e))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProposeModules_DuplicateAcrossStates(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))

	require.NoError(t, e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode)))
	require.ErrorIs(t, e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode)), ErrDuplicateModule)

	_, err := e.exec(alice, protocol.RegistryExecuteMsg{YankModule: &protocol.YankModuleMsg{Module: info(t, "acme:vault@1.0.0")}})
	require.NoError(t, err)
	err = e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode))
	require.ErrorIs(t, err, ErrDuplicateModule)
	var dup *DuplicateModuleError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, module.StatusYanked, dup.Status)
}

func TestModules_LatestUsesSemverOrder(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))
	require.NoError(t, e.propose(alice,
		app(t, "acme:vault@1.0.0", e.stubCode),
		app(t, "acme:vault@1.10.0", e.stubCode),
		app(t, "acme:vault@1.9.0", e.stubCode),
	))

	resp, err := e.modules(info(t, "acme:vault"))
	require.NoError(t, err)
	assert.Equal(t, "acme:vault@1.10.0", resp.Modules[0].Info.String())

	_, err = e.exec(alice, protocol.RegistryExecuteMsg{YankModule: &protocol.YankModuleMsg{Module: info(t, "acme:vault@1.10.0")}})
	require.NoError(t, err)

	resp, err = e.modules(info(t, "acme:vault"))
	require.NoError(t, err)
	assert.Equal(t, "acme:vault@1.9.0", resp.Modules[0].Info.String())

	resp, err = e.modules(info(t, "acme:vault@1.10.0"))
	require.NoError(t, err)
	assert.Equal(t, module.StatusYanked, resp.Modules[0].Status)

	_, err = e.modules(info(t, "acme:vault@2.0.0"))
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestSecurity_PendingApprovalFlow(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{SecurityEnabled: true, NamespaceLimit: 1})
	require.ErrorIs(t, e.claim(alice, 1, "acme"), protocol.ErrUnauthorized)
	require.NoError(t, e.claim(deployer, 1, "acme"))

	require.NoError(t, e.propose(alice,
		app(t, "acme:vault@1.0.0", e.stubCode),
		app(t, "acme:vault@2.0.0", e.stubCode),
	))
	_, err := e.modules(info(t, "acme:vault"))
	require.ErrorIs(t, err, ErrModuleNotFound)

	pendingList := e.list(protocol.ModuleListQuery{Filter: &protocol.ModuleFilter{Status: module.StatusPending}})
	assert.Len(t, pendingList.Modules, 2)

	_, err = e.exec(alice, protocol.RegistryExecuteMsg{ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{
		Approves: []module.Info{info(t, "acme:vault@1.0.0")},
	}})
	require.ErrorIs(t, err, protocol.ErrUnauthorized)

	_, err = e.exec(deployer, protocol.RegistryExecuteMsg{ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{
		Approves: []module.Info{info(t, "acme:vault@1.0.0")},
		Rejects:  []module.Info{info(t, "acme:vault@2.0.0")},
	}})
	require.NoError(t, err)

	resp, err := e.modules(info(t, "acme:vault"))
	require.NoError(t, err)
	assert.Equal(t, "acme:vault@1.0.0", resp.Modules[0].Info.String())
	assert.Empty(t, e.list(protocol.ModuleListQuery{Filter: &protocol.ModuleFilter{Status: module.StatusPending}}).Modules)

	_, err = e.exec(deployer, protocol.RegistryExecuteMsg{ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{
		Approves: []module.Info{info(t, "acme:vault@2.0.0")},
	}})
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestSecurity_SelfDescribedAdapterSkipsPending(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{SecurityEnabled: true, NamespaceLimit: 1})
	require.NoError(t, e.claim(deployer, 1, "acme"))

	good := e.stub(stubInit{Module: &module.Data{Module: "acme:dex", Version: "1.0.0"}}, "")
	liar := e.stub(stubInit{Module: &module.Data{Module: "acme:dex", Version: "0.9.0"}}, "")

	require.NoError(t, e.propose(alice,
		protocol.ModuleEntry{Info: info(t, "acme:dex@1.0.0"), Reference: module.AdapterRef(good)},
		protocol.ModuleEntry{Info: info(t, "acme:dex@1.1.0"), Reference: module.AdapterRef(liar)},
	))

	resp, err := e.modules(info(t, "acme:dex@1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, module.StatusRegistered, resp.Modules[0].Status)

	_, err = e.modules(info(t, "acme:dex@1.1.0"))
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestRemoveModule(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))
	require.NoError(t, e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode)))

	_, err := e.exec(alice, protocol.RegistryExecuteMsg{UpdateModuleConfiguration: &protocol.UpdateModuleConfigMsg{
		Module: info(t, "acme:vault"),
		Config: module.Config{Metadata: "https://acme.example/vault"},
	}})
	require.NoError(t, err)

	remove := func(sender types.Addr, s string) error {
		_, err := e.exec(sender, protocol.RegistryExecuteMsg{RemoveModule: &protocol.RemoveModuleMsg{Module: info(t, s)}})
		return err
	}

	require.ErrorIs(t, remove(alice, "acme:vault@1.0.0"), protocol.ErrUnauthorized)
	require.ErrorIs(t, remove(deployer, "acme:vault"), module.ErrLatestNotAllowed)
	require.ErrorIs(t, remove(deployer, "acme:vault@9.9.9"), ErrModuleNotFound)
	require.NoError(t, remove(deployer, "acme:vault@1.0.0"))
	require.NoError(t, remove(deployer, "acme:vault@1.0.0"), "removing twice is a no-op")

	_, err = e.modules(info(t, "acme:vault@1.0.0"))
	require.ErrorIs(t, err, ErrModuleNotFound)

	// The default config went away with the last version.
	require.NoError(t, e.propose(alice, app(t, "acme:vault@1.0.0", e.stubCode)))
	resp, err := e.modules(info(t, "acme:vault"))
	require.NoError(t, err)
	assert.Empty(t, resp.Modules[0].Config.Metadata)
}

func TestUpdateModuleConfig(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))
	adapterAddr := e.stub(stubInit{}, "")
	require.NoError(t, e.propose(alice,
		app(t, "acme:vault@1.0.0", e.stubCode),
		app(t, "acme:vault@1.1.0", e.stubCode),
		protocol.ModuleEntry{Info: info(t, "acme:dex@1.0.0"), Reference: module.AdapterRef(adapterAddr)},
	))

	update := func(s string, cfg module.Config) error {
		_, err := e.exec(alice, protocol.RegistryExecuteMsg{UpdateModuleConfiguration: &protocol.UpdateModuleConfigMsg{Module: info(t, s), Config: cfg}})
		return err
	}
	fee := types.NewCoin("uabs", 50)

	require.NoError(t, update("acme:vault", module.Config{Metadata: "default"}))
	require.NoError(t, update("acme:vault@1.1.0", module.Config{
		Metadata:     "pinned",
		Monetization: module.Monetization{InstallFee: &fee},
	}))
	require.ErrorIs(t, update("acme:dex@1.0.0", module.Config{InstantiationFunds: types.Coins{fee}}), ErrRedundantInitFunds)
	require.ErrorIs(t, update("acme:vault@3.0.0", module.Config{}), ErrModuleNotFound)

	resp, err := e.modules(info(t, "acme:vault@1.0.0"), info(t, "acme:vault@1.1.0"))
	require.NoError(t, err)
	assert.Equal(t, "default", resp.Modules[0].Config.Metadata)
	assert.Equal(t, "pinned", resp.Modules[1].Config.Metadata)
	assert.Equal(t, types.Coins{fee}, resp.Modules[1].Config.InstallCost())
}

func TestClaimNamespace(t *testing.T) {
	t.Parallel()
	fee := types.NewCoin("uabs", 100)
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1, NamespaceFee: &fee})
	require.NoError(t, e.chain.Mint(e.ctx, alice, types.Coins{types.NewCoin("uabs", 1000)}))

	require.ErrorIs(t, e.claim(alice, 1, "acme"), ErrInvalidFee)
	require.ErrorIs(t, e.claim(alice, 1, "acme", types.NewCoin("uabs", 99)), ErrInvalidFee)
	require.ErrorIs(t, e.claim(bob, 1, "acme"), protocol.ErrUnauthorized)
	require.NoError(t, e.claim(alice, 1, "acme", fee))

	treasury, err := e.chain.Balance(e.treasury.Proxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), treasury.AmountOf("uabs"))

	require.ErrorIs(t, e.claim(alice, 1, "acme2", fee), ErrExceedsNamespaceLimit)
	require.ErrorIs(t, e.claim(deployer, 0, "acme"), ErrNamespaceOccupied)
	require.ErrorIs(t, e.claim(deployer, 7, "other"), ErrAccountNotFound)

	var ns protocol.NamespaceResponse
	require.NoError(t, e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: "acme"}}, &ns))
	assert.True(t, ns.Claimed)
	assert.Equal(t, types.AccountID(1), ns.AccountID)
	require.NotNil(t, ns.Base)
	assert.Equal(t, e.alice.Manager, ns.Base.Manager)

	var unclaimed protocol.NamespaceResponse
	require.NoError(t, e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: "free"}}, &unclaimed))
	assert.False(t, unclaimed.Claimed)
}

func TestRemoveNamespaces_YanksModules(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))
	require.NoError(t, e.propose(alice,
		app(t, "acme:vault@1.0.0", e.stubCode),
		app(t, "acme:oracle@1.0.0", e.stubCode),
	))

	_, err := e.exec(bob, protocol.RegistryExecuteMsg{RemoveNamespaces: &protocol.RemoveNamespacesMsg{Namespaces: []module.Namespace{"acme"}}})
	require.ErrorIs(t, err, protocol.ErrUnauthorized)
	_, err = e.exec(deployer, protocol.RegistryExecuteMsg{RemoveNamespaces: &protocol.RemoveNamespacesMsg{Namespaces: []module.Namespace{module.AbstractNamespace}}})
	require.ErrorIs(t, err, ErrReservedNamespace)
	_, err = e.exec(alice, protocol.RegistryExecuteMsg{RemoveNamespaces: &protocol.RemoveNamespacesMsg{Namespaces: []module.Namespace{"acme"}}})
	require.NoError(t, err)

	assert.Empty(t, e.list(protocol.ModuleListQuery{}).Modules)
	assert.Len(t, e.list(protocol.ModuleListQuery{Filter: &protocol.ModuleFilter{Status: module.StatusYanked}}).Modules, 2)

	// The account can claim a namespace again once it released its only one.
	require.NoError(t, e.claim(alice, 1, "acme-two"))

	// The released namespace is open to any account.
	e.addAccount(2, bob)
	require.NoError(t, e.claim(bob, 2, "acme"))

	var ns protocol.NamespaceResponse
	require.NoError(t, e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: "acme"}}, &ns))
	assert.True(t, ns.Claimed)
	assert.Equal(t, types.AccountID(2), ns.AccountID)
}

func TestModuleList_PagingAndFilters(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})
	require.NoError(t, e.claim(alice, 1, "acme"))

	var entries []protocol.ModuleEntry
	for _, s := range []string{"acme:a@1.0.0", "acme:b@1.0.0", "acme:b@2.0.0", "acme:c@1.0.0"} {
		entries = append(entries, app(t, s, e.stubCode))
	}
	require.NoError(t, e.propose(alice, entries...))

	limit := uint32(2)
	page := e.list(protocol.ModuleListQuery{Limit: &limit})
	require.Len(t, page.Modules, 2)
	assert.Equal(t, "acme:a@1.0.0", page.Modules[0].Info.String())
	assert.Equal(t, "acme:b@1.0.0", page.Modules[1].Info.String())

	last := page.Modules[1].Info
	page = e.list(protocol.ModuleListQuery{StartAfter: &last, Limit: &limit})
	require.Len(t, page.Modules, 2)
	assert.Equal(t, "acme:b@2.0.0", page.Modules[0].Info.String())
	assert.Equal(t, "acme:c@1.0.0", page.Modules[1].Info.String())

	byName := e.list(protocol.ModuleListQuery{Filter: &protocol.ModuleFilter{Namespace: "acme", Name: "b"}})
	assert.Len(t, byName.Modules, 2)

	byVersion := e.list(protocol.ModuleListQuery{Filter: &protocol.ModuleFilter{Version: "2.0.0"}})
	require.Len(t, byVersion.Modules, 1)
	assert.Equal(t, module.Name("b"), byVersion.Modules[0].Info.Name)
}

func TestAddAccount(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, protocol.RegistryInstantiateMsg{NamespaceLimit: 1})

	_, err := e.exec(alice, protocol.RegistryExecuteMsg{AddAccount: &protocol.AddAccountMsg{AccountID: 5, Base: e.alice}})
	require.ErrorIs(t, err, protocol.ErrUnauthorized)
	_, err = e.exec(deployer, protocol.RegistryExecuteMsg{AddAccount: &protocol.AddAccountMsg{AccountID: 1, Base: e.alice}})
	require.ErrorIs(t, err, ErrAccountExists)

	var list protocol.AccountListResponse
	require.NoError(t, e.chain.Query(e.ctx, e.registry, protocol.RegistryQueryMsg{AccountList: &protocol.AccountListQuery{}}, &list))
	require.Len(t, list.Accounts, 2)
	assert.Equal(t, types.AccountID(0), list.Accounts[0].AccountID)
	assert.Equal(t, types.AccountID(1), list.Accounts[1].AccountID)
}
