// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"encoding/json"

	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	// ProxyInstantiateMsg creates the proxy of an account. Manager is whitelisted.
	ProxyInstantiateMsg struct {
		AccountID types.AccountID `json:"account_id"`
		Manager   types.Addr      `json:"manager"`
	}

	// ProxyExecuteMsg is the execute surface of the proxy.
	ProxyExecuteMsg struct {
		AddModules   *ProxyModulesMsg `json:"add_modules,omitempty"`
		RemoveModule *ProxyModuleMsg  `json:"remove_module,omitempty"`
		ModuleAction *ModuleActionMsg `json:"module_action,omitempty"`
	}

	// ProxyModulesMsg whitelists addresses.
	ProxyModulesMsg struct {
		Modules []types.Addr `json:"modules"`
	}

	// ProxyModuleMsg removes an address from the whitelist.
	ProxyModuleMsg struct {
		Module types.Addr `json:"module"`
	}

	// ModuleActionMsg is a transfer a whitelisted module performs on behalf of the
	// account.
	ModuleActionMsg struct {
		To     types.Addr  `json:"to"`
		Amount types.Coins `json:"amount"`
	}

	// ProxyQueryMsg is the query surface of the proxy.
	ProxyQueryMsg struct {
		Config *Empty `json:"config,omitempty"`
	}

	// ProxyConfigResponse answers the proxy config query.
	ProxyConfigResponse struct {
		AccountID types.AccountID `json:"account_id"`
		Manager   types.Addr      `json:"manager"`
		Modules   []types.Addr    `json:"modules"`
	}

	// FactoryInstantiateMsg configures the module factory.
	FactoryInstantiateMsg struct {
		Registry types.Addr `json:"registry"`
	}

	// FactoryExecuteMsg is the execute surface of the module factory.
	FactoryExecuteMsg struct {
		InstallModule *InstallModuleMsg       `json:"install_module,omitempty"`
		UpdateConfig  *FactoryUpdateConfigMsg `json:"update_config,omitempty"`
	}

	// FactoryUpdateConfigMsg changes the registry the factory resolves against.
	FactoryUpdateConfigMsg struct {
		Registry types.Addr `json:"registry"`
	}

	// FactoryQueryMsg is the query surface of the module factory.
	FactoryQueryMsg struct {
		Config *Empty `json:"config,omitempty"`
	}

	// FactoryConfigResponse answers the factory config query.
	FactoryConfigResponse struct {
		Owner    types.Addr `json:"owner"`
		Registry types.Addr `json:"registry"`
	}

	// AdapterInstantiateMsg creates a shared adapter instance.
	AdapterInstantiateMsg struct {
		Registry types.Addr `json:"registry"`
	}

	// AdapterExecuteMsg is the execute surface of adapters.
	AdapterExecuteMsg struct {
		Base   *AdapterBaseMsg    `json:"base,omitempty"`
		Module *AdapterRequestMsg `json:"module,omitempty"`
	}

	// AdapterBaseMsg carries the management variants every adapter supports. Only
	// the manager of an account may send them.
	AdapterBaseMsg struct {
		UpdateAuthorizedAddresses *UpdateAuthorizedAddressesMsg `json:"update_authorized_addresses,omitempty"`
		Remove                    *Empty                        `json:"remove,omitempty"`
	}

	// UpdateAuthorizedAddressesMsg edits the callers allowed to act for an account.
	UpdateAuthorizedAddressesMsg struct {
		ToAdd    []types.Addr `json:"to_add,omitempty"`
		ToRemove []types.Addr `json:"to_remove,omitempty"`
	}

	// AdapterRequestMsg is a domain request executed for ProxyAddress. When
	// ProxyAddress is empty the sender must be a manager.
	AdapterRequestMsg struct {
		ProxyAddress types.Addr      `json:"proxy_address,omitempty"`
		Request      json.RawMessage `json:"request"`
	}

	// AdapterQueryMsg is the query surface of adapters.
	AdapterQueryMsg struct {
		Base   *AdapterBaseQuery `json:"base,omitempty"`
		Module json.RawMessage   `json:"module,omitempty"`
	}

	// AdapterBaseQuery carries the management queries of adapters.
	AdapterBaseQuery struct {
		AuthorizedAddresses *AuthorizedAddressesQuery `json:"authorized_addresses,omitempty"`
		ModuleData          *Empty                    `json:"module_data,omitempty"`
	}

	// AuthorizedAddressesQuery lists the callers authorized for an account.
	AuthorizedAddressesQuery struct {
		ProxyAddress types.Addr `json:"proxy_address"`
	}

	// AuthorizedAddressesResponse answers AuthorizedAddressesQuery.
	AuthorizedAddressesResponse struct {
		Addresses []types.Addr `json:"addresses"`
	}

	// AppBase tells an app which account it belongs to.
	AppBase struct {
		Manager  types.Addr `json:"manager"`
		Proxy    types.Addr `json:"proxy"`
		Registry types.Addr `json:"registry"`
	}

	// AppInstantiateMsg creates an app or standalone instance for an account.
	AppInstantiateMsg struct {
		Base   AppBase         `json:"base"`
		Module json.RawMessage `json:"module,omitempty"`
	}

	// AppExecuteMsg is the execute surface of apps.
	AppExecuteMsg struct {
		Module json.RawMessage `json:"module,omitempty"`
	}

	// AppQueryMsg is the query surface of apps.
	AppQueryMsg struct {
		Base   *AppBaseQuery   `json:"base,omitempty"`
		Module json.RawMessage `json:"module,omitempty"`
	}

	// AppBaseQuery carries the management queries of apps.
	AppBaseQuery struct {
		Config     *Empty `json:"base_config,omitempty"`
		ModuleData *Empty `json:"module_data,omitempty"`
	}

	// AppConfigResponse answers the app base config query.
	AppConfigResponse struct {
		Base   AppBase   `json:"base"`
		Module module.ID `json:"module"`
	}
)
