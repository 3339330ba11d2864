// SPDX-License-Identifier: MPL-2.0

package adapter

import (
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// ErrSameAdapterAddress is returned when an adapter would be replaced by itself.
var ErrSameAdapterAddress = errors.New("new adapter address is the current address")

// ReplaceMsgs returns the messages a manager emits to move its account from the
// adapter at oldAddr to the one at newAddr, in order:
//
//  1. revoke the account's authorized callers on the old adapter
//  2. remove the account from the old adapter
//  3. authorize the same callers on the new adapter
//  4. drop the old adapter from the proxy whitelist
//  5. whitelist the new adapter on the proxy
func ReplaceMsgs(q host.Querier, proxy, oldAddr, newAddr types.Addr) ([]host.Msg, error) {
	if oldAddr == newAddr {
		return nil, fmt.Errorf("%w: %s", ErrSameAdapterAddress, newAddr)
	}
	var resp protocol.AuthorizedAddressesResponse
	query := protocol.AdapterQueryMsg{Base: &protocol.AdapterBaseQuery{
		AuthorizedAddresses: &protocol.AuthorizedAddressesQuery{ProxyAddress: proxy},
	}}
	if err := q.QuerySmart(oldAddr, query, &resp); err != nil {
		return nil, fmt.Errorf("read authorized addresses of %s: %w", oldAddr, err)
	}
	callers := resp.Addresses

	return []host.Msg{
		host.WasmExecute{Contract: oldAddr, Msg: UpdateAuthorized(nil, callers)},
		host.WasmExecute{Contract: oldAddr, Msg: protocol.AdapterExecuteMsg{Base: &protocol.AdapterBaseMsg{Remove: &protocol.Empty{}}}},
		host.WasmExecute{Contract: newAddr, Msg: UpdateAuthorized(callers, nil)},
		host.WasmExecute{Contract: proxy, Msg: protocol.ProxyExecuteMsg{RemoveModule: &protocol.ProxyModuleMsg{Module: oldAddr}}},
		host.WasmExecute{Contract: proxy, Msg: protocol.ProxyExecuteMsg{AddModules: &protocol.ProxyModulesMsg{Modules: []types.Addr{newAddr}}}},
	}, nil
}

// UpdateAuthorized builds the base message editing an adapter's authorized callers.
func UpdateAuthorized(toAdd, toRemove []types.Addr) protocol.AdapterExecuteMsg {
	return protocol.AdapterExecuteMsg{Base: &protocol.AdapterBaseMsg{
		UpdateAuthorizedAddresses: &protocol.UpdateAuthorizedAddressesMsg{ToAdd: toAdd, ToRemove: toRemove},
	}}
}
