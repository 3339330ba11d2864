// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"encoding/json"

	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	// ManagerInstantiateMsg configures the manager of a new account.
	ManagerInstantiateMsg struct {
		AccountID     types.AccountID `json:"account_id"`
		Owner         types.Addr      `json:"owner"`
		Registry      types.Addr      `json:"registry"`
		ModuleFactory types.Addr      `json:"module_factory"`
		// AccountFactory may wire the proxy after instantiation. Defaults to the sender.
		AccountFactory types.Addr `json:"account_factory,omitempty"`
	}

	// ManagerExecuteMsg is the execute surface of the account manager.
	ManagerExecuteMsg struct {
		InstallModule         *InstallModuleMsg         `json:"install_module,omitempty"`
		RegisterModule        *RegisterModuleMsg        `json:"register_module,omitempty"`
		UninstallModule       *UninstallModuleMsg       `json:"uninstall_module,omitempty"`
		UpgradeModules        *UpgradeModulesMsg        `json:"upgrade,omitempty"`
		ExecOnModule          *ExecOnModuleMsg          `json:"exec_on_module,omitempty"`
		Callback              *Empty                    `json:"callback,omitempty"`
		UpdateModuleAddresses *UpdateModuleAddressesMsg `json:"update_module_addresses,omitempty"`
		UpdateStatus          *UpdateStatusMsg          `json:"update_status,omitempty"`
		SetOwner              *SetOwnerMsg              `json:"set_owner,omitempty"`
	}

	// InstallModuleMsg asks the manager to install a module through the factory.
	InstallModuleMsg struct {
		Module  module.Info     `json:"module"`
		InitMsg json.RawMessage `json:"init_msg,omitempty"`
	}

	// RegisterModuleMsg is sent by the factory once a module is reachable.
	RegisterModuleMsg struct {
		Module    module.Info      `json:"module"`
		Reference module.Reference `json:"reference"`
		Address   types.Addr       `json:"address"`
	}

	// UninstallModuleMsg removes an installed module.
	UninstallModuleMsg struct {
		ModuleID module.ID `json:"module_id"`
	}

	// ModuleUpgrade names one module to upgrade. A nil MigrateMsg means no payload
	// was given.
	ModuleUpgrade struct {
		Module     module.Info     `json:"module"`
		MigrateMsg json.RawMessage `json:"migrate_msg,omitempty"`
	}

	// UpgradeModulesMsg upgrades a batch of installed modules.
	UpgradeModulesMsg struct {
		Modules []ModuleUpgrade `json:"modules"`
	}

	// ExecOnModuleMsg forwards a message to an installed module.
	ExecOnModuleMsg struct {
		ModuleID module.ID       `json:"module_id"`
		ExecMsg  json.RawMessage `json:"exec_msg"`
	}

	// ModuleAddress binds a module id to a contract address.
	ModuleAddress struct {
		ID      module.ID  `json:"id"`
		Address types.Addr `json:"address"`
	}

	// UpdateModuleAddressesMsg overrides installed module addresses directly.
	UpdateModuleAddressesMsg struct {
		ToAdd    []ModuleAddress `json:"to_add,omitempty"`
		ToRemove []module.ID     `json:"to_remove,omitempty"`
	}

	// UpdateStatusMsg suspends or resumes the account.
	UpdateStatusMsg struct {
		IsSuspended bool `json:"is_suspended"`
	}

	// SetOwnerMsg transfers the account.
	SetOwnerMsg struct {
		Owner types.Addr `json:"owner"`
	}

	// ManagerQueryMsg is the query surface of the account manager.
	ManagerQueryMsg struct {
		Config           *Empty                `json:"config,omitempty"`
		ModuleAddresses  *ModuleAddressesQuery `json:"module_addresses,omitempty"`
		ModuleInfos      *ModuleInfosQuery     `json:"module_infos,omitempty"`
		Dependents       *DependentsQuery      `json:"dependents,omitempty"`
		MigrationContext *Empty                `json:"migration_context,omitempty"`
	}

	// ModuleAddressesQuery resolves installed module ids. Unknown ids are skipped.
	ModuleAddressesQuery struct {
		IDs []module.ID `json:"ids"`
	}

	// ModuleInfosQuery pages through installed modules by id.
	ModuleInfosQuery struct {
		StartAfter *module.ID `json:"start_after,omitempty"`
		Limit      *uint32    `json:"limit,omitempty"`
	}

	// DependentsQuery lists the installed modules depending on ModuleID.
	DependentsQuery struct {
		ModuleID module.ID `json:"module_id"`
	}

	// ManagerConfigResponse answers the manager config query.
	ManagerConfigResponse struct {
		AccountID      types.AccountID `json:"account_id"`
		Owner          types.Addr      `json:"owner"`
		Registry       types.Addr      `json:"registry"`
		ModuleFactory  types.Addr      `json:"module_factory"`
		AccountFactory types.Addr      `json:"account_factory"`
		IsSuspended    bool            `json:"is_suspended"`
	}

	// InstalledModule is one entry of the installed-modules index.
	InstalledModule struct {
		ID      module.ID            `json:"id"`
		Address types.Addr           `json:"address"`
		Kind    module.ReferenceKind `json:"kind"`
	}

	// ModuleAddressesResponse answers ModuleAddressesQuery.
	ModuleAddressesResponse struct {
		Modules []InstalledModule `json:"modules"`
	}

	// ModuleInfo describes an installed module with its running version.
	ModuleInfo struct {
		InstalledModule
		Version module.ContractVersion `json:"version"`
	}

	// ModuleInfosResponse answers ModuleInfosQuery.
	ModuleInfosResponse struct {
		Modules []ModuleInfo `json:"modules"`
	}

	// DependentsResponse answers DependentsQuery.
	DependentsResponse struct {
		Dependents []module.ID `json:"dependents"`
	}

	// MigrationEntry records one module migrated in the current upgrade and the
	// dependencies it declared before migrating.
	MigrationEntry struct {
		ID      module.ID           `json:"id"`
		OldDeps []module.Dependency `json:"old_deps,omitempty"`
	}

	// MigrationContextResponse answers the migration-context query.
	MigrationContextResponse struct {
		Entries []MigrationEntry `json:"entries"`
	}
)
