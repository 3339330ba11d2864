// SPDX-License-Identifier: MPL-2.0

package account_test

import (
	"testing"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/app"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/testutil"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dexID module.ID = "demo:dex"
	appID module.ID = "demo:autocompounder"
)

// newDexAndApp publishes demo:dex@1.0.0 and an app depending on it, then
// installs both on Alice's account.
func newDexAndApp(t *testing.T) (f *testutil.Framework, dex, compounder types.Addr) {
	t.Helper()
	f = testutil.New(t, deploy.Options{})
	f.MustPublish("demo:dex@1.0.0", module.KindAdapter)
	f.MustPublish("demo:autocompounder@1.0.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))
	dex = f.MustInstall(f.Alice, "demo:dex")
	compounder = f.MustInstall(f.Alice, "demo:autocompounder")
	return f, dex, compounder
}

func TestInstall(t *testing.T) {
	t.Parallel()

	f, dex, compounder := newDexAndApp(t)

	assert.Equal(t, []module.ID{appID}, f.Dependents(f.Alice, dexID))
	assert.Equal(t, []types.Addr{compounder}, f.Authorized(dex, f.Alice))
	assert.ElementsMatch(t, []types.Addr{f.Alice.Manager, dex, compounder}, f.Whitelist(f.Alice))

	versions := f.Versions(f.Alice)
	assert.Equal(t, "1.0.0", versions[dexID])
	assert.Equal(t, "1.0.0", versions[appID])
}

func TestInstallRequiresDependencies(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	f.MustPublish("demo:dex@1.0.0", module.KindAdapter)
	f.MustPublish("demo:autocompounder@1.0.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))

	_, err := f.Install(f.Ctx, f.Alice, f.Info("demo:autocompounder"), nil, nil)
	require.ErrorIs(t, err, account.ErrMissingDependency)
	assert.Empty(t, f.Installed(f.Alice, appID))

	f.MustPublish("demo:strict@1.0.0", module.KindApp, testutil.Dep(dexID, ">=2.0.0"))
	f.MustInstall(f.Alice, "demo:dex")
	_, err = f.Install(f.Ctx, f.Alice, f.Info("demo:strict"), nil, nil)
	require.ErrorIs(t, err, module.ErrUnmetRequirement)
}

func TestInstallGuards(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)

	tests := []struct {
		name    string
		acc     deploy.Account
		sender  types.Addr
		info    string
		wantErr error
	}{
		{name: "already installed", acc: f.Alice, sender: testutil.Alice, info: "demo:dex", wantErr: account.ErrModuleAlreadyInstalled},
		{name: "proxy", acc: f.Alice, sender: testutil.Alice, info: "abstract:proxy", wantErr: account.ErrProtectedModule},
		{name: "manager", acc: f.Alice, sender: testutil.Alice, info: "abstract:manager", wantErr: account.ErrProtectedModule},
		{name: "not the owner", acc: f.Alice, sender: testutil.Bob, info: "demo:dex", wantErr: protocol.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := tt.acc
			acc.Owner = tt.sender
			_, err := f.Install(f.Ctx, acc, f.Info(tt.info), nil, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	f, dex, compounder := newDexAndApp(t)

	_, err := f.Uninstall(f.Ctx, f.Alice, dexID)
	var hasDependents *account.HasDependentsError
	require.ErrorAs(t, err, &hasDependents)
	assert.Equal(t, []module.ID{appID}, hasDependents.Dependents)
	assert.Equal(t, dex, f.Installed(f.Alice, dexID))

	_, err = f.Uninstall(f.Ctx, f.Alice, appID)
	require.NoError(t, err)
	assert.Empty(t, f.Installed(f.Alice, appID))
	assert.Empty(t, f.Authorized(dex, f.Alice))
	assert.Empty(t, f.Dependents(f.Alice, dexID))
	assert.NotContains(t, f.Whitelist(f.Alice), compounder)

	_, err = f.Uninstall(f.Ctx, f.Alice, dexID)
	require.NoError(t, err)
	assert.Equal(t, []types.Addr{f.Alice.Manager}, f.Whitelist(f.Alice))

	_, err = f.Uninstall(f.Ctx, f.Alice, dexID)
	require.ErrorIs(t, err, account.ErrModuleNotInstalled)
}

func TestProxyCannotBeRemoved(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})

	_, err := f.Uninstall(f.Ctx, f.Alice, module.ProxyID)
	require.ErrorIs(t, err, account.ErrProtectedModule)

	_, err = f.Chain.Execute(f.Ctx, testutil.Alice, f.Alice.Manager, protocol.ManagerExecuteMsg{
		UpdateModuleAddresses: &protocol.UpdateModuleAddressesMsg{ToRemove: []module.ID{module.ProxyID}},
	}, nil)
	require.ErrorIs(t, err, account.ErrProtectedModule)
	assert.Equal(t, f.Alice.Proxy, f.Installed(f.Alice, module.ProxyID))
}

func TestSuspendedAccount(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)
	f.MustPublish("demo:vault@1.0.0", module.KindStandalone)

	_, err := f.Chain.Execute(f.Ctx, testutil.Alice, f.Alice.Manager, protocol.ManagerExecuteMsg{
		UpdateStatus: &protocol.UpdateStatusMsg{IsSuspended: true},
	}, nil)
	require.NoError(t, err)

	_, err = f.Install(f.Ctx, f.Alice, f.Info("demo:vault"), nil, nil)
	require.ErrorIs(t, err, account.ErrAccountSuspended)
	_, err = f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:dex"), ""))
	require.ErrorIs(t, err, account.ErrAccountSuspended)
	require.ErrorIs(t, f.Exec(f.Alice, appID, app.PingMsg()), account.ErrAccountSuspended)

	_, err = f.Uninstall(f.Ctx, f.Alice, appID)
	require.NoError(t, err)
}

func TestExecOnModule(t *testing.T) {
	t.Parallel()

	f, _, compounder := newDexAndApp(t)

	require.NoError(t, f.Exec(f.Alice, appID, app.PingMsg()))
	require.NoError(t, f.Exec(f.Alice, appID, app.PingMsg()))

	var state app.StateResponse
	require.NoError(t, f.Chain.Query(f.Ctx, compounder, protocol.AppQueryMsg{Module: []byte(`{}`)}, &state))
	assert.Equal(t, uint64(2), state.Pings)

	require.ErrorIs(t, f.Exec(f.Alice, "demo:missing", app.PingMsg()), account.ErrModuleNotInstalled)
}

func TestSetOwner(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	_, err := f.Chain.Execute(f.Ctx, testutil.Alice, f.Alice.Manager, protocol.ManagerExecuteMsg{
		SetOwner: &protocol.SetOwnerMsg{Owner: testutil.Bob},
	}, nil)
	require.NoError(t, err)

	var cfg protocol.ManagerConfigResponse
	require.NoError(t, f.Chain.Query(f.Ctx, f.Alice.Manager, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg))
	assert.Equal(t, testutil.Bob, cfg.Owner)

	f.MustPublish("demo:vault@1.0.0", module.KindStandalone)
	_, err = f.Install(f.Ctx, f.Alice, f.Info("demo:vault"), nil, nil)
	require.ErrorIs(t, err, protocol.ErrUnauthorized)
}
