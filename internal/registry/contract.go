// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// BuilderName is the code builder the registry is stored under.
	BuilderName = "registry"
	// Version is the version of the registry contract.
	Version = "0.19.0"

	// TreasuryAccount receives namespace fees and owns the reserved namespace.
	TreasuryAccount types.AccountID = 0
)

// Contract is the module registry. It holds no state outside its store.
type Contract struct{}

var (
	_ host.Contract = (*Contract)(nil)
	_ host.Migrator = (*Contract)(nil)
)

// Build satisfies host.Builder.
func Build(json.RawMessage) (host.Contract, error) {
	return &Contract{}, nil
}

// Instantiate makes the sender the owner and reserves the framework namespace for
// the treasury account.
func (c *Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.RegistryInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	cfg := config{
		SecurityEnabled: msg.SecurityEnabled,
		NamespaceLimit:  msg.NamespaceLimit,
		NamespaceFee:    msg.NamespaceFee,
		AccountFactory:  msg.AccountFactory,
	}
	if cfg.AccountFactory.IsEmpty() {
		cfg.AccountFactory = info.Sender
	}
	if err := owner.Save(deps.Store, info.Sender); err != nil {
		return nil, err
	}
	if err := regConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	if err := claimNamespace(deps.Store, module.AbstractNamespace, TreasuryAccount); err != nil {
		return nil, err
	}
	if err := host.SetContractVersion(deps.Store, string(module.RegistryID), Version); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("owner", info.Sender.String()), nil
}

// Execute routes an execute message to its handler.
func (c *Contract) Execute(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.RegistryExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.ProposeModules != nil:
		return proposeModules(deps, info, msg.ProposeModules.Modules)
	case msg.ApproveOrRejectModules != nil:
		return approveOrReject(deps, info, *msg.ApproveOrRejectModules)
	case msg.RemoveModule != nil:
		return removeModule(deps, info, msg.RemoveModule.Module)
	case msg.YankModule != nil:
		return yankModule(deps, info, msg.YankModule.Module)
	case msg.UpdateModuleConfiguration != nil:
		return updateModuleConfig(deps, info, *msg.UpdateModuleConfiguration)
	case msg.ClaimNamespace != nil:
		return claimNamespaceMsg(deps, info, *msg.ClaimNamespace)
	case msg.RemoveNamespaces != nil:
		return removeNamespaces(deps, info, msg.RemoveNamespaces.Namespaces)
	case msg.AddAccount != nil:
		return addAccount(deps, info, *msg.AddAccount)
	case msg.UpdateConfig != nil:
		return updateConfig(deps, info, *msg.UpdateConfig)
	case msg.UpdateOwnership != nil:
		return updateOwnership(deps, info, msg.UpdateOwnership.NewOwner)
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Query routes a query message to its handler.
func (c *Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.RegistryQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	var resp any
	switch {
	case msg.Modules != nil:
		resp, err = queryModules(deps, msg.Modules.Infos)
	case msg.ModuleList != nil:
		resp, err = queryModuleList(deps, *msg.ModuleList)
	case msg.Namespace != nil:
		resp, err = queryNamespace(deps, msg.Namespace.Namespace)
	case msg.Namespaces != nil:
		resp, err = queryNamespaces(deps, msg.Namespaces.Accounts)
	case msg.NamespaceList != nil:
		resp, err = queryNamespaceList(deps, *msg.NamespaceList)
	case msg.Account != nil:
		resp, err = queryAccount(deps, msg.Account.AccountID)
	case msg.AccountList != nil:
		resp, err = queryAccountList(deps, *msg.AccountList)
	case msg.Config != nil:
		resp, err = queryConfig(deps)
	default:
		return nil, protocol.ErrNoVariant
	}
	if err != nil {
		return nil, err
	}
	return host.QueryResponse(resp)
}

// Migrate upgrades the registry code in place.
func (c *Contract) Migrate(_ context.Context, deps host.Deps, _ host.Env, _ json.RawMessage) (*host.Response, error) {
	current, err := host.GetContractVersion(deps.Store)
	if err != nil {
		return nil, err
	}
	if err := module.AssertContractUpgrade(current, string(module.RegistryID), Version); err != nil {
		return nil, err
	}
	if err := host.SetContractVersion(deps.Store, string(module.RegistryID), Version); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "migrate").AddAttribute("version", Version), nil
}

func assertOwner(deps host.Deps, sender types.Addr, action string) error {
	o, err := owner.Load(deps.Store)
	if err != nil {
		return err
	}
	if sender != o {
		return protocol.Unauthorized(sender, action, "registry owner")
	}
	return nil
}

// accountOwner asks the manager of an account who owns it.
func accountOwner(deps host.Deps, id types.AccountID) (types.Addr, error) {
	base, err := loadAccount(deps.Store, id)
	if err != nil {
		return "", err
	}
	var cfg protocol.ManagerConfigResponse
	if err := deps.Querier.QuerySmart(base.Manager, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return "", err
	}
	return cfg.Owner, nil
}

// assertNamespaceOwner checks that sender administers ns: the registry owner for
// the reserved namespace, the owner of the claiming account otherwise.
func assertNamespaceOwner(deps host.Deps, sender types.Addr, ns module.Namespace, action string) error {
	if ns.IsReserved() {
		return assertOwner(deps, sender, action)
	}
	id, ok, err := namespaces.MayLoad(deps.Store, string(ns))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNamespace, ns)
	}
	o, err := accountOwner(deps, id)
	if err != nil {
		return err
	}
	if sender != o {
		return protocol.Unauthorized(sender, action, "owner of namespace "+string(ns))
	}
	return nil
}
