// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	// RegistryInstantiateMsg configures a new registry. The sender becomes its owner.
	RegistryInstantiateMsg struct {
		SecurityEnabled bool        `json:"security_enabled"`
		NamespaceLimit  uint32      `json:"namespace_limit"`
		NamespaceFee    *types.Coin `json:"namespace_registration_fee,omitempty"`
		// AccountFactory may add accounts. Defaults to the owner.
		AccountFactory types.Addr `json:"account_factory,omitempty"`
	}

	// RegistryExecuteMsg is the execute surface of the registry.
	RegistryExecuteMsg struct {
		ProposeModules            *ProposeModulesMsg         `json:"propose_modules,omitempty"`
		ApproveOrRejectModules    *ApproveOrRejectModulesMsg `json:"approve_or_reject_modules,omitempty"`
		RemoveModule              *RemoveModuleMsg           `json:"remove_module,omitempty"`
		YankModule                *YankModuleMsg             `json:"yank_module,omitempty"`
		UpdateModuleConfiguration *UpdateModuleConfigMsg     `json:"update_module_configuration,omitempty"`
		ClaimNamespace            *ClaimNamespaceMsg         `json:"claim_namespace,omitempty"`
		RemoveNamespaces          *RemoveNamespacesMsg       `json:"remove_namespaces,omitempty"`
		AddAccount                *AddAccountMsg             `json:"add_account,omitempty"`
		UpdateConfig              *UpdateRegistryConfigMsg   `json:"update_config,omitempty"`
		UpdateOwnership           *UpdateOwnershipMsg        `json:"update_ownership,omitempty"`
	}

	// ModuleEntry pairs a module descriptor with the reference to publish.
	ModuleEntry struct {
		Info      module.Info      `json:"info"`
		Reference module.Reference `json:"reference"`
	}

	// ProposeModulesMsg publishes module versions.
	ProposeModulesMsg struct {
		Modules []ModuleEntry `json:"modules"`
	}

	// ApproveOrRejectModulesMsg settles pending proposals.
	ApproveOrRejectModulesMsg struct {
		Approves []module.Info `json:"approves,omitempty"`
		Rejects  []module.Info `json:"rejects,omitempty"`
	}

	// RemoveModuleMsg permanently deletes a registered or yanked version.
	RemoveModuleMsg struct {
		Module module.Info `json:"module"`
	}

	// YankModuleMsg withdraws a registered version from new installations.
	YankModuleMsg struct {
		Module module.Info `json:"module"`
	}

	// UpdateModuleConfigMsg sets the default config (latest version) or a
	// versioned config (exact version) of a module.
	UpdateModuleConfigMsg struct {
		Module module.Info   `json:"module"`
		Config module.Config `json:"config"`
	}

	// ClaimNamespaceMsg binds a namespace to an account.
	ClaimNamespaceMsg struct {
		AccountID types.AccountID  `json:"account_id"`
		Namespace module.Namespace `json:"namespace"`
	}

	// RemoveNamespacesMsg releases namespaces and yanks their modules.
	RemoveNamespacesMsg struct {
		Namespaces []module.Namespace `json:"namespaces"`
	}

	// AddAccountMsg records a newly created account.
	AddAccountMsg struct {
		AccountID types.AccountID `json:"account_id"`
		Base      AccountBase     `json:"account_base"`
	}

	// UpdateRegistryConfigMsg changes registry settings. Nil fields are kept.
	UpdateRegistryConfigMsg struct {
		SecurityEnabled   *bool       `json:"security_enabled,omitempty"`
		NamespaceLimit    *uint32     `json:"namespace_limit,omitempty"`
		NamespaceFee      *types.Coin `json:"namespace_registration_fee,omitempty"`
		ClearNamespaceFee bool        `json:"clear_namespace_registration_fee,omitempty"`
		AccountFactory    *types.Addr `json:"account_factory,omitempty"`
	}

	// UpdateOwnershipMsg hands a contract to a new owner.
	UpdateOwnershipMsg struct {
		NewOwner types.Addr `json:"new_owner"`
	}

	// RegistryQueryMsg is the query surface of the registry.
	RegistryQueryMsg struct {
		Modules       *ModulesQuery       `json:"modules,omitempty"`
		ModuleList    *ModuleListQuery    `json:"module_list,omitempty"`
		Namespace     *NamespaceQuery     `json:"namespace,omitempty"`
		Namespaces    *NamespacesQuery    `json:"namespaces,omitempty"`
		NamespaceList *NamespaceListQuery `json:"namespace_list,omitempty"`
		Account       *AccountQuery       `json:"account,omitempty"`
		AccountList   *AccountListQuery   `json:"account_list,omitempty"`
		Config        *Empty              `json:"config,omitempty"`
	}

	// ModulesQuery resolves descriptors to their registered references.
	ModulesQuery struct {
		Infos []module.Info `json:"infos"`
	}

	// ModuleFilter narrows a module listing. Empty fields match everything; Status
	// defaults to registered.
	ModuleFilter struct {
		Namespace module.Namespace `json:"namespace,omitempty"`
		Name      module.Name      `json:"name,omitempty"`
		Version   string           `json:"version,omitempty"`
		Status    module.Status    `json:"status,omitempty"`
	}

	// ModuleListQuery pages through modules in (namespace, name, version) order.
	ModuleListQuery struct {
		Filter     *ModuleFilter `json:"filter,omitempty"`
		StartAfter *module.Info  `json:"start_after,omitempty"`
		Limit      *uint32       `json:"limit,omitempty"`
	}

	// NamespaceQuery looks up the owner of a namespace.
	NamespaceQuery struct {
		Namespace module.Namespace `json:"namespace"`
	}

	// NamespacesQuery lists the namespaces of accounts.
	NamespacesQuery struct {
		Accounts []types.AccountID `json:"accounts"`
	}

	// NamespaceListQuery pages through claimed namespaces.
	NamespaceListQuery struct {
		StartAfter *module.Namespace `json:"start_after,omitempty"`
		Limit      *uint32           `json:"limit,omitempty"`
	}

	// AccountQuery looks up an account.
	AccountQuery struct {
		AccountID types.AccountID `json:"account_id"`
	}

	// AccountListQuery pages through accounts by id.
	AccountListQuery struct {
		StartAfter *types.AccountID `json:"start_after,omitempty"`
		Limit      *uint32          `json:"limit,omitempty"`
	}

	// ModuleResponse describes one registered module version.
	ModuleResponse struct {
		Info      module.Info      `json:"info"`
		Reference module.Reference `json:"reference"`
		Config    module.Config    `json:"config"`
		Status    module.Status    `json:"status"`
	}

	// ModulesResponse answers ModulesQuery in request order.
	ModulesResponse struct {
		Modules []ModuleResponse `json:"modules"`
	}

	// ModuleListResponse answers ModuleListQuery.
	ModuleListResponse struct {
		Modules []ModuleResponse `json:"modules"`
	}

	// NamespaceResponse answers NamespaceQuery.
	NamespaceResponse struct {
		Namespace module.Namespace `json:"namespace"`
		Claimed   bool             `json:"claimed"`
		AccountID types.AccountID  `json:"account_id,omitempty"`
		Base      *AccountBase     `json:"account_base,omitempty"`
	}

	// NamespaceEntry binds a namespace to its account.
	NamespaceEntry struct {
		Namespace module.Namespace `json:"namespace"`
		AccountID types.AccountID  `json:"account_id"`
	}

	// NamespacesResponse answers NamespacesQuery and NamespaceListQuery.
	NamespacesResponse struct {
		Namespaces []NamespaceEntry `json:"namespaces"`
	}

	// AccountResponse describes one account.
	AccountResponse struct {
		AccountID types.AccountID `json:"account_id"`
		Base      AccountBase     `json:"account_base"`
	}

	// AccountListResponse answers AccountListQuery.
	AccountListResponse struct {
		Accounts []AccountResponse `json:"accounts"`
	}

	// RegistryConfigResponse answers the config query.
	RegistryConfigResponse struct {
		Owner           types.Addr  `json:"owner"`
		SecurityEnabled bool        `json:"security_enabled"`
		NamespaceLimit  uint32      `json:"namespace_limit"`
		NamespaceFee    *types.Coin `json:"namespace_registration_fee,omitempty"`
		AccountFactory  types.Addr  `json:"account_factory"`
	}
)
