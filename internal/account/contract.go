// SPDX-License-Identifier: MPL-2.0

package account

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// BuilderName is the code builder the manager is stored under.
	BuilderName = "account"
	// EventType is the type of the per-module events the manager emits.
	EventType = "abstract_account"
)

type (
	// Params carry the code version of the manager.
	Params struct {
		Version string `json:"version"`
	}

	// Contract is the account manager code.
	Contract struct {
		version string
	}
)

var (
	_ host.Contract = (*Contract)(nil)
	_ host.Migrator = (*Contract)(nil)
)

// Build satisfies host.Builder.
func Build(raw json.RawMessage) (host.Contract, error) {
	p, err := host.Decode[Params](raw)
	if err != nil {
		return nil, err
	}
	if _, err := module.ParseVersion(p.Version); err != nil {
		return nil, err
	}
	return &Contract{version: p.Version}, nil
}

func (c *Contract) data() module.Data {
	return module.Data{Module: module.ManagerID, Version: c.version}
}

// Instantiate configures a new account. The sender becomes the account factory
// unless one is given.
func (c *Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.ManagerInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	for _, a := range []types.Addr{msg.Owner, msg.Registry, msg.ModuleFactory} {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	cfg := config{
		AccountID:      msg.AccountID,
		Owner:          msg.Owner,
		Registry:       msg.Registry,
		ModuleFactory:  msg.ModuleFactory,
		AccountFactory: msg.AccountFactory,
	}
	if cfg.AccountFactory.IsEmpty() {
		cfg.AccountFactory = info.Sender
	}
	if err := accountConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	if err := modbase.Init(deps.Store, c.data()); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("account_id", msg.AccountID.String()).
		AddAttribute("owner", msg.Owner.String()), nil
}

// Execute routes an execute message to its handler.
func (c *Contract) Execute(_ context.Context, deps host.Deps, env host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.ManagerExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.InstallModule != nil:
		return installModule(deps, info, *msg.InstallModule)
	case msg.RegisterModule != nil:
		return registerModule(deps, info, *msg.RegisterModule)
	case msg.UninstallModule != nil:
		return uninstallModule(deps, info, msg.UninstallModule.ModuleID)
	case msg.UpgradeModules != nil:
		return upgradeModules(deps, env, info, msg.UpgradeModules.Modules)
	case msg.Callback != nil:
		return callback(deps, env, info)
	case msg.ExecOnModule != nil:
		return execOnModule(deps, info, *msg.ExecOnModule)
	case msg.UpdateModuleAddresses != nil:
		return updateModuleAddresses(deps, info, *msg.UpdateModuleAddresses)
	case msg.UpdateStatus != nil:
		return updateStatus(deps, info, msg.UpdateStatus.IsSuspended)
	case msg.SetOwner != nil:
		return setOwner(deps, info, msg.SetOwner.Owner)
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Query routes a query message to its handler.
func (c *Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.ManagerQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	var resp any
	switch {
	case msg.Config != nil:
		resp, err = queryConfig(deps)
	case msg.ModuleAddresses != nil:
		resp, err = queryModuleAddresses(deps, msg.ModuleAddresses.IDs)
	case msg.ModuleInfos != nil:
		resp, err = queryModuleInfos(deps, *msg.ModuleInfos)
	case msg.Dependents != nil:
		var ids []module.ID
		ids, err = graph.Dependents(deps.Store, msg.Dependents.ModuleID)
		resp = protocol.DependentsResponse{Dependents: ids}
	case msg.MigrationContext != nil:
		var entries []protocol.MigrationEntry
		entries, _, err = migrations.MayLoad(deps.Store)
		if entries == nil {
			entries = []protocol.MigrationEntry{}
		}
		resp = protocol.MigrationContextResponse{Entries: entries}
	default:
		return nil, protocol.ErrNoVariant
	}
	if err != nil {
		return nil, err
	}
	return host.QueryResponse(resp)
}

// Migrate moves the manager to the version of this code.
func (c *Contract) Migrate(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (*host.Response, error) {
	if _, err := host.Decode[map[string]json.RawMessage](raw); err != nil {
		return nil, err
	}
	if err := modbase.Migrate(deps.Store, c.data()); err != nil {
		return nil, err
	}
	deps.Log.Info("manager migrated", "version", c.version)
	return host.NewResponse().AddAttribute("action", "migrate").AddAttribute("version", c.version), nil
}

func loadConfig(deps host.Deps) (config, error) {
	return accountConfig.Load(deps.Store)
}

func assertOwner(cfg config, sender types.Addr, action string) error {
	if sender != cfg.Owner {
		return protocol.Unauthorized(sender, action, "account owner")
	}
	return nil
}

// assertActive rejects calls on a suspended account.
func assertActive(cfg config) error {
	if cfg.Suspended {
		return ErrAccountSuspended
	}
	return nil
}

func updateStatus(deps host.Deps, info host.MessageInfo, suspended bool) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "change the account status"); err != nil {
		return nil, err
	}
	cfg.Suspended = suspended
	if err := accountConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	deps.Log.Info("account status changed", "account", cfg.AccountID, "suspended", suspended)
	return host.NewResponse().
		AddAttribute("action", "update_status").
		AddAttribute("is_suspended", strconv.FormatBool(suspended)), nil
}

func setOwner(deps host.Deps, info host.MessageInfo, next types.Addr) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "transfer the account"); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	cfg.Owner = next
	if err := accountConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "set_owner").AddAttribute("owner", next.String()), nil
}

func queryConfig(deps host.Deps) (protocol.ManagerConfigResponse, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return protocol.ManagerConfigResponse{}, err
	}
	return protocol.ManagerConfigResponse{
		AccountID:      cfg.AccountID,
		Owner:          cfg.Owner,
		Registry:       cfg.Registry,
		ModuleFactory:  cfg.ModuleFactory,
		AccountFactory: cfg.AccountFactory,
		IsSuspended:    cfg.Suspended,
	}, nil
}

func queryModuleAddresses(deps host.Deps, ids []module.ID) (protocol.ModuleAddressesResponse, error) {
	resp := protocol.ModuleAddressesResponse{Modules: []protocol.InstalledModule{}}
	for _, id := range ids {
		m, ok, err := loadInstalled(deps.Store, id)
		if err != nil {
			return resp, err
		}
		if ok {
			resp.Modules = append(resp.Modules, protocol.InstalledModule{ID: id, Address: m.Address, Kind: m.Kind})
		}
	}
	return resp, nil
}

// queryModuleInfos pages through installed modules. Modules without a contract
// version report an empty one.
func queryModuleInfos(deps host.Deps, q protocol.ModuleInfosQuery) (protocol.ModuleInfosResponse, error) {
	var startAfter []string
	if q.StartAfter != nil {
		startAfter = []string{string(*q.StartAfter)}
	}
	entries, err := modules.Entries(deps.Store, nil, startAfter, protocol.PageLimit(q.Limit))
	if err != nil {
		return protocol.ModuleInfosResponse{}, err
	}
	resp := protocol.ModuleInfosResponse{Modules: make([]protocol.ModuleInfo, 0, len(entries))}
	for _, e := range entries {
		id := module.ID(e.Key[0])
		kind, _, err := kinds.MayLoad(deps.Store, e.Key[0])
		if err != nil {
			return resp, err
		}
		cv, err := host.QueryContractVersion(deps.Querier, e.Value)
		if err != nil {
			deps.Log.Debug("module has no contract version", "module", id, "address", e.Value, "err", err)
		}
		resp.Modules = append(resp.Modules, protocol.ModuleInfo{
			InstalledModule: protocol.InstalledModule{ID: id, Address: e.Value, Kind: kind},
			Version:         cv,
		})
	}
	return resp, nil
}
