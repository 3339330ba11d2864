// SPDX-License-Identifier: MPL-2.0

package account_test

import (
	"testing"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/testutil"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeApp(t *testing.T) {
	t.Parallel()

	f, dex, compounder := newDexAndApp(t)
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder"), ""))
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", f.Versions(f.Alice)[appID])
	assert.Equal(t, compounder, f.Installed(f.Alice, appID), "apps keep their address")
	assert.Equal(t, []types.Addr{compounder}, f.Authorized(dex, f.Alice))
	assert.Empty(t, f.MigrationContext(f.Alice))
}

func TestUpgradeRejects(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)
	f.MustPublish("demo:autocompounder@0.9.0", module.KindApp)
	f.MustPublish("demo:vault@1.0.0", module.KindStandalone)

	tests := []struct {
		name    string
		batch   []protocol.ModuleUpgrade
		wantErr error
	}{
		{
			name:    "empty batch",
			wantErr: account.ErrNoUpdates,
		},
		{
			name:    "older version",
			batch:   []protocol.ModuleUpgrade{testutil.Upgrade(f.Info("demo:autocompounder@0.9.0"), "")},
			wantErr: account.ErrOlderVersion,
		},
		{
			name: "duplicate module",
			batch: []protocol.ModuleUpgrade{
				testutil.Upgrade(f.Info("demo:autocompounder@1.0.0"), ""),
				testutil.Upgrade(f.Info("demo:autocompounder"), ""),
			},
			wantErr: account.ErrDuplicateUpgrade,
		},
		{
			name:    "not installed",
			batch:   []protocol.ModuleUpgrade{testutil.Upgrade(f.Info("demo:vault"), `{}`)},
			wantErr: account.ErrModuleNotInstalled,
		},
		{
			name:    "proxy needs a migrate message",
			batch:   []protocol.ModuleUpgrade{testutil.Upgrade(f.Info("abstract:proxy"), "")},
			wantErr: account.ErrMissingMigrateMsg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Upgrade(f.Ctx, f.Alice, tt.batch...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, "1.0.0", f.Versions(f.Alice)[appID])
	assert.Empty(t, f.MigrationContext(f.Alice))
}

func TestUpgradeSameVersionFailsMigration(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder@1.0.0"), ""))
	require.ErrorIs(t, err, module.ErrCannotDowngrade)
}

func TestUpgradeAdapterMovesAuthorizations(t *testing.T) {
	t.Parallel()

	f, oldDex, compounder := newDexAndApp(t)
	ref := f.MustPublish("demo:dex@1.1.0", module.KindAdapter)
	newDex := ref.Address
	require.NotEqual(t, oldDex, newDex)

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:dex"), ""))
	require.NoError(t, err)

	assert.Equal(t, newDex, f.Installed(f.Alice, dexID))
	assert.Equal(t, "1.1.0", f.Versions(f.Alice)[dexID])
	assert.Empty(t, f.Authorized(oldDex, f.Alice))
	assert.Equal(t, []types.Addr{compounder}, f.Authorized(newDex, f.Alice))

	whitelist := f.Whitelist(f.Alice)
	assert.Contains(t, whitelist, newDex)
	assert.NotContains(t, whitelist, oldDex)
	assert.Equal(t, []module.ID{appID}, f.Dependents(f.Alice, dexID))
}

func TestUpgradeRespectsDependents(t *testing.T) {
	t.Parallel()

	f, _, compounder := newDexAndApp(t)
	dex2 := f.MustPublish("demo:dex@2.0.0", module.KindAdapter).Address
	f.MustPublish("demo:autocompounder@2.0.0", module.KindApp, testutil.Dep(dexID, "^2.0.0"))

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:dex@2.0.0"), ""))
	require.ErrorIs(t, err, module.ErrUnmetRequirement)

	_, err = f.Upgrade(f.Ctx, f.Alice,
		testutil.Upgrade(f.Info("demo:autocompounder@2.0.0"), ""),
		testutil.Upgrade(f.Info("demo:dex@2.0.0"), ""),
	)
	require.NoError(t, err)

	versions := f.Versions(f.Alice)
	assert.Equal(t, "2.0.0", versions[dexID])
	assert.Equal(t, "2.0.0", versions[appID])
	assert.Equal(t, []types.Addr{compounder}, f.Authorized(dex2, f.Alice))
	assert.Equal(t, []module.ID{appID}, f.Dependents(f.Alice, dexID))
}

func TestUpgradeLinksNewDependencies(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	f.MustPublish("demo:dex@1.0.0", module.KindAdapter)
	f.MustPublish("demo:autocompounder@1.0.0", module.KindApp)
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))
	dex := f.MustInstall(f.Alice, "demo:dex")
	compounder := f.MustInstall(f.Alice, "demo:autocompounder@1.0.0")
	require.Empty(t, f.Authorized(dex, f.Alice))

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder"), ""))
	require.NoError(t, err)

	assert.Equal(t, []module.ID{appID}, f.Dependents(f.Alice, dexID))
	assert.Equal(t, []types.Addr{compounder}, f.Authorized(dex, f.Alice))

	f.MustPublish("demo:autocompounder@1.2.0", module.KindApp)
	_, err = f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder"), ""))
	require.NoError(t, err)

	assert.Empty(t, f.Dependents(f.Alice, dexID))
	assert.Empty(t, f.Authorized(dex, f.Alice))
}

func TestUpgradeVerificationFailureReverts(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp,
		testutil.Dep(dexID, "^1.0.0"),
		testutil.Dep("demo:oracle", "^1.0.0"),
	)

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder"), ""))
	require.ErrorIs(t, err, account.ErrMigrationVerification)
	require.ErrorIs(t, err, account.ErrMissingDependency)

	var verr *account.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, appID, verr.Module)

	assert.Equal(t, "1.0.0", f.Versions(f.Alice)[appID])
	assert.Empty(t, f.MigrationContext(f.Alice))
}

func TestUpgradeAccountBase(t *testing.T) {
	t.Parallel()

	f, _, _ := newDexAndApp(t)
	oldManagerCode, oldProxyCode := f.ManagerCode, f.ProxyCode
	require.NoError(t, f.PublishAccountBase(f.Ctx, "0.20.0"))
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))

	_, err := f.Upgrade(f.Ctx, f.Alice,
		testutil.Upgrade(f.Info("abstract:manager"), `{}`),
		testutil.Upgrade(f.Info("abstract:proxy"), `{}`),
		testutil.Upgrade(f.Info("demo:autocompounder"), ""),
	)
	require.NoError(t, err)

	manager, err := f.Chain.ContractInfo(f.Alice.Manager)
	require.NoError(t, err)
	assert.Equal(t, f.ManagerCode, manager.CodeID)
	assert.NotEqual(t, oldManagerCode, manager.CodeID)

	proxy, err := f.Chain.ContractInfo(f.Alice.Proxy)
	require.NoError(t, err)
	assert.Equal(t, f.ProxyCode, proxy.CodeID)
	assert.NotEqual(t, oldProxyCode, proxy.CodeID)

	versions := f.Versions(f.Alice)
	assert.Equal(t, "0.20.0", versions[module.ProxyID])
	assert.Equal(t, "1.1.0", versions[appID])
	assert.Empty(t, f.MigrationContext(f.Alice))

	// Bob's account still runs the previous codes.
	bob, err := f.Chain.ContractInfo(f.Bob.Manager)
	require.NoError(t, err)
	assert.Equal(t, oldManagerCode, bob.CodeID)
}

func TestUpgradeMessageOrder(t *testing.T) {
	t.Parallel()

	f, _, compounder := newDexAndApp(t)
	require.NoError(t, f.PublishAccountBase(f.Ctx, "0.20.0"))
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp, testutil.Dep(dexID, "^1.0.0"))

	// The manager is listed first but must migrate after every other module.
	res, err := f.Upgrade(f.Ctx, f.Alice,
		testutil.Upgrade(f.Info("abstract:manager"), `{}`),
		testutil.Upgrade(f.Info("abstract:proxy"), `{}`),
		testutil.Upgrade(f.Info("demo:autocompounder"), ""),
	)
	require.NoError(t, err)

	type step struct {
		contract types.Addr
		action   string
	}
	var steps []step
	for _, ev := range res.Events {
		action, _ := ev.Attr("action")
		if ev.Type == "wasm" && (action == "migrate" || action == "migration_callback") {
			steps = append(steps, step{ev.Contract, action})
		}
	}
	assert.Equal(t, []step{
		{f.Alice.Proxy, "migrate"},
		{compounder, "migrate"},
		{f.Alice.Manager, "migrate"},
		{f.Alice.Manager, "migration_callback"},
	}, steps)
}

func TestCallbackOnlyFromSelf(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	_, err := f.Chain.Execute(f.Ctx, testutil.Alice, f.Alice.Manager, protocol.ManagerExecuteMsg{Callback: &protocol.Empty{}}, nil)
	require.ErrorIs(t, err, protocol.ErrUnauthorized)

	// A suspended account rejects the callback even from itself.
	_, err = f.Chain.Execute(f.Ctx, testutil.Alice, f.Alice.Manager, protocol.ManagerExecuteMsg{
		UpdateStatus: &protocol.UpdateStatusMsg{IsSuspended: true},
	}, nil)
	require.NoError(t, err)
	_, err = f.Chain.Execute(f.Ctx, f.Alice.Manager, f.Alice.Manager, protocol.ManagerExecuteMsg{Callback: &protocol.Empty{}}, nil)
	require.ErrorIs(t, err, account.ErrAccountSuspended)
}
