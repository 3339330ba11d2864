// SPDX-License-Identifier: MPL-2.0

package proxy_test

import (
	"testing"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/proxy"
	"github.com/abstractsdk/abstract/internal/testutil"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	var cfg protocol.ProxyConfigResponse
	require.NoError(t, f.Chain.Query(f.Ctx, f.Alice.Proxy, protocol.ProxyQueryMsg{Config: &protocol.Empty{}}, &cfg))
	assert.Equal(t, f.Alice.ID, cfg.AccountID)
	assert.Equal(t, f.Alice.Manager, cfg.Manager)
	assert.Equal(t, []types.Addr{f.Alice.Manager}, cfg.Modules)
}

func TestWhitelist(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	exec := func(sender types.Addr, msg protocol.ProxyExecuteMsg) error {
		_, err := f.Chain.Execute(f.Ctx, sender, f.Alice.Proxy, msg, nil)
		return err
	}
	add := func(addrs ...types.Addr) protocol.ProxyExecuteMsg {
		return protocol.ProxyExecuteMsg{AddModules: &protocol.ProxyModulesMsg{Modules: addrs}}
	}
	remove := func(addr types.Addr) protocol.ProxyExecuteMsg {
		return protocol.ProxyExecuteMsg{RemoveModule: &protocol.ProxyModuleMsg{Module: addr}}
	}

	require.ErrorIs(t, exec(testutil.Alice, add("keeper")), protocol.ErrUnauthorized)
	require.ErrorIs(t, exec(f.Bob.Manager, add("keeper")), protocol.ErrUnauthorized)

	require.NoError(t, exec(f.Alice.Manager, add("keeper")))
	require.ErrorIs(t, exec(f.Alice.Manager, add("keeper")), proxy.ErrAlreadyWhitelisted)
	assert.ElementsMatch(t, []types.Addr{f.Alice.Manager, "keeper"}, f.Whitelist(f.Alice))

	require.NoError(t, exec(f.Alice.Manager, remove("keeper")))
	require.ErrorIs(t, exec(f.Alice.Manager, remove("keeper")), proxy.ErrNotWhitelisted)
}

func TestModuleAction(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	require.NoError(t, f.Chain.Mint(f.Ctx, f.Alice.Proxy, types.Coins{types.NewCoin("uatom", 100)}))
	action := protocol.ProxyExecuteMsg{ModuleAction: &protocol.ModuleActionMsg{
		To:     testutil.Bob,
		Amount: types.Coins{types.NewCoin("uatom", 40)},
	}}

	_, err := f.Chain.Execute(f.Ctx, "keeper", f.Alice.Proxy, action, nil)
	require.ErrorIs(t, err, protocol.ErrUnauthorized)

	_, err = f.Chain.Execute(f.Ctx, f.Alice.Manager, f.Alice.Proxy, action, nil)
	require.NoError(t, err)

	bob, err := f.Chain.Balance(testutil.Bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), bob.AmountOf("uatom"))
	left, err := f.Chain.Balance(f.Alice.Proxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), left.AmountOf("uatom"))
}
