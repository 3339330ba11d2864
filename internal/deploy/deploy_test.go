// SPDX-License-Identifier: MPL-2.0

package deploy_test

import (
	"testing"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/internal/testutil"
	"github.com/abstractsdk/abstract/pkg/manifest"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()

	for _, security := range []bool{false, true} {
		f := testutil.New(t, deploy.Options{SecurityEnabled: security})

		assert.Equal(t, types.AccountID(0), f.Treasury.ID)
		assert.Equal(t, types.AccountID(1), f.Alice.ID)
		assert.Equal(t, types.AccountID(2), f.Bob.ID)

		var ns protocol.NamespaceResponse
		require.NoError(t, f.Chain.Query(f.Ctx, f.Registry, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: testutil.Namespace}}, &ns))
		assert.True(t, ns.Claimed)
		assert.Equal(t, f.Alice.ID, ns.AccountID)

		var acc protocol.AccountResponse
		require.NoError(t, f.Chain.Query(f.Ctx, f.Registry, protocol.RegistryQueryMsg{Account: &protocol.AccountQuery{AccountID: f.Bob.ID}}, &acc))
		assert.Equal(t, protocol.AccountBase{Manager: f.Bob.Manager, Proxy: f.Bob.Proxy}, acc.Base)

		var mods protocol.ModulesResponse
		q := protocol.ModulesQuery{Infos: []module.Info{f.Info("abstract:manager"), f.Info("abstract:proxy")}}
		require.NoError(t, f.Chain.Query(f.Ctx, f.Registry, protocol.RegistryQueryMsg{Modules: &q}, &mods), "security=%v", security)
		for _, m := range mods.Modules {
			assert.Equal(t, module.StatusRegistered, m.Status)
			assert.Equal(t, module.KindAccountBase, m.Reference.Kind)
		}

		info, err := f.Chain.ContractInfo(f.Alice.Manager)
		require.NoError(t, err)
		assert.Equal(t, f.Alice.Manager, info.Admin, "managers administer themselves")
		info, err = f.Chain.ContractInfo(f.Alice.Proxy)
		require.NoError(t, err)
		assert.Equal(t, f.Alice.Manager, info.Admin)
	}
}

func TestBootstrapNamespaceFee(t *testing.T) {
	t.Parallel()

	fee := types.NewCoin("uatom", 50)
	f := testutil.New(t, deploy.Options{NamespaceFee: &fee})

	treasury, err := f.Chain.Balance(f.Treasury.Proxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), treasury.AmountOf("uatom"))

	_, err = f.CreateAccount(f.Ctx, "carol", "carol")
	require.Error(t, err, "the admin has no funds left for a second fee")
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	s := store.NewMemory()
	_, err := deploy.Load(s, f.Chain)
	require.ErrorIs(t, err, deploy.ErrNotDeployed)

	require.NoError(t, f.Save(s))
	loaded, err := deploy.Load(s, host.New(store.NewMemory()))
	require.NoError(t, err)
	assert.Equal(t, f.Record, loaded.Record)
}

func TestPublishManifest(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	m, err := manifest.Parse([]byte(`
namespace: "demo"
modules: [
	{name: "dex", version: "1.0.0", kind: "adapter"},
	{
		name: "autocompounder", version: "1.0.0", kind: "app"
		dependencies: [{id: "demo:dex", version_req: ["^1.0.0"]}]
		config: monetization: install_fee: {denom: "uatom", amount: 3}
	},
]
`), manifest.DefaultFilename)
	require.NoError(t, err)

	entries, err := f.PublishManifest(f.Ctx, testutil.Alice, m)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, module.KindAdapter, entries[0].Reference.Kind)
	assert.Equal(t, module.KindApp, entries[1].Reference.Kind)

	var mods protocol.ModulesResponse
	q := protocol.ModulesQuery{Infos: []module.Info{f.Info("demo:autocompounder")}}
	require.NoError(t, f.Chain.Query(f.Ctx, f.Registry, protocol.RegistryQueryMsg{Modules: &q}, &mods))
	require.Len(t, mods.Modules, 1)
	require.NotNil(t, mods.Modules[0].Config.Monetization.InstallFee)
	assert.Equal(t, uint64(3), mods.Modules[0].Config.Monetization.InstallFee.Amount)

	_, err = f.PublishManifest(f.Ctx, testutil.Bob, m)
	require.ErrorIs(t, err, protocol.ErrUnauthorized)
}

func TestDeployRejectsNonDeployableKinds(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	for _, kind := range []module.ReferenceKind{module.KindService, module.KindAccountBase, "plugin"} {
		_, err := f.Deploy(f.Ctx, testutil.Alice, f.Info("demo:thing@1.0.0"), kind, nil)
		require.ErrorIs(t, err, module.ErrInvalidReference)
	}
	_, err := f.Deploy(f.Ctx, testutil.Alice, f.Info("demo:thing"), module.KindApp, nil)
	require.ErrorIs(t, err, module.ErrLatestNotAllowed)
}

func TestAccountLookup(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})

	acc, err := f.Account(f.Ctx, f.Bob.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Bob, acc)

	_, err = f.Account(f.Ctx, 99)
	require.Error(t, err)
}
