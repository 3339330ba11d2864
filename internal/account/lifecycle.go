// SPDX-License-Identifier: MPL-2.0

package account

import (
	"fmt"

	"github.com/abstractsdk/abstract/internal/adapter"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// isProtected reports whether id names one of the account's own contracts.
func isProtected(id module.ID) bool {
	return id == module.ProxyID || id == module.ManagerID
}

// installModule forwards an install request and the attached funds to the module
// factory. The module is recorded when the factory calls registerModule.
func installModule(deps host.Deps, info host.MessageInfo, msg protocol.InstallModuleMsg) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "install modules"); err != nil {
		return nil, err
	}
	if err := assertActive(cfg); err != nil {
		return nil, err
	}
	if err := msg.Module.Validate(); err != nil {
		return nil, err
	}
	id := msg.Module.ID()
	if isProtected(id) {
		return nil, fmt.Errorf("%w: %s", ErrProtectedModule, id)
	}
	present, err := modules.Has(deps.Store, string(id))
	if err != nil {
		return nil, err
	}
	if present {
		return nil, fmt.Errorf("%w: %s", ErrModuleAlreadyInstalled, id)
	}

	deps.Log.Info("installing module", "module", msg.Module, "account", cfg.AccountID)
	return host.NewResponse().
		AddMessage(host.WasmExecute{
			Contract: cfg.ModuleFactory,
			Msg:      protocol.FactoryExecuteMsg{InstallModule: &msg},
			Funds:    info.Funds,
		}).
		AddAttribute("action", "install_module").
		AddAttribute("module", msg.Module.String()), nil
}

// registerModule binds a module instantiated by the factory. Apps and adapters
// have their declared dependencies checked and linked, and are authorized on the
// adapters they depend on.
func registerModule(deps host.Deps, info host.MessageInfo, msg protocol.RegisterModuleMsg) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.ModuleFactory {
		return nil, protocol.Unauthorized(info.Sender, "register modules", "module factory")
	}
	if err := msg.Address.Validate(); err != nil {
		return nil, err
	}
	if err := msg.Reference.Validate(); err != nil {
		return nil, err
	}
	id := msg.Module.ID()
	present, err := modules.Has(deps.Store, string(id))
	if err != nil {
		return nil, err
	}
	if present {
		return nil, fmt.Errorf("%w: %s", ErrModuleAlreadyInstalled, id)
	}

	res := host.NewResponse().
		AddAttribute("action", "register_module").
		AddAttribute("module", msg.Module.String()).
		AddAttribute("address", msg.Address.String())

	kind := msg.Reference.Kind
	if kind.HasDependencies() {
		if err := modbase.AssertValidity(deps.Querier, msg.Address, msg.Module); err != nil {
			return nil, err
		}
		data, err := modbase.Query(deps.Querier, msg.Address)
		if err != nil {
			return nil, err
		}
		for _, d := range data.Dependencies {
			if err := assertDependency(deps, d); err != nil {
				return nil, fmt.Errorf("register %s: %w", msg.Module, err)
			}
		}
		if err := graph.Link(deps.Store, id, data.Dependencies); err != nil {
			return nil, err
		}
		grants, err := adapterUpdates(deps, data.Dependencies, []types.Addr{msg.Address}, nil)
		if err != nil {
			return nil, err
		}
		res.AddMessages(grants...)
	}

	if err := saveInstalled(deps.Store, id, installed{Address: msg.Address, Kind: kind}); err != nil {
		return nil, err
	}
	if whitelisted(kind) {
		proxy, err := proxyAddr(deps.Store)
		if err != nil {
			return nil, err
		}
		res.AddMessage(host.WasmExecute{
			Contract: proxy,
			Msg:      protocol.ProxyExecuteMsg{AddModules: &protocol.ProxyModulesMsg{Modules: []types.Addr{msg.Address}}},
		})
	}
	deps.Log.Info("module registered", "module", msg.Module, "address", msg.Address, "kind", kind, "account", cfg.AccountID)
	return res, nil
}

// assertDependency checks that d is installed at a version meeting its requirements.
func assertDependency(deps host.Deps, d module.Dependency) error {
	m, ok, err := loadInstalled(deps.Store, d.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingDependency, d.ID)
	}
	cv, err := host.QueryContractVersion(deps.Querier, m.Address)
	if err != nil {
		return fmt.Errorf("dependency %s: %w", d.ID, err)
	}
	return d.Check(cv.Version)
}

// adapterUpdates builds the authorization changes for every adapter among deps.
// Dependencies that are not installed adapters are skipped.
func adapterUpdates(deps host.Deps, list []module.Dependency, toAdd, toRemove []types.Addr) ([]host.Msg, error) {
	var msgs []host.Msg
	for _, d := range list {
		m, ok, err := loadInstalled(deps.Store, d.ID)
		if err != nil {
			return nil, err
		}
		if !ok || m.Kind != module.KindAdapter {
			continue
		}
		msgs = append(msgs, host.WasmExecute{Contract: m.Address, Msg: adapter.UpdateAuthorized(toAdd, toRemove)})
	}
	return msgs, nil
}

// uninstallModule removes an installed module that nothing depends on.
func uninstallModule(deps host.Deps, info host.MessageInfo, id module.ID) (*host.Response, error) {
	if isProtected(id) {
		return nil, fmt.Errorf("%w: %s", ErrProtectedModule, id)
	}
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "uninstall modules"); err != nil {
		return nil, err
	}
	m, err := mustInstalled(deps.Store, id)
	if err != nil {
		return nil, err
	}
	dependents, err := graph.Dependents(deps.Store, id)
	if err != nil {
		return nil, err
	}
	if len(dependents) > 0 {
		return nil, &HasDependentsError{Module: id, Dependents: dependents}
	}

	res := host.NewResponse().
		AddAttribute("action", "uninstall_module").
		AddAttribute("module", string(id))

	declared, err := graph.Unlink(deps.Store, id)
	if err != nil {
		return nil, err
	}
	revokes, err := adapterUpdates(deps, declared, nil, []types.Addr{m.Address})
	if err != nil {
		return nil, err
	}
	res.AddMessages(revokes...)
	if err := graph.Clear(deps.Store, id); err != nil {
		return nil, err
	}

	if m.Kind == module.KindAdapter {
		res.AddMessage(host.WasmExecute{
			Contract: m.Address,
			Msg:      protocol.AdapterExecuteMsg{Base: &protocol.AdapterBaseMsg{Remove: &protocol.Empty{}}},
		})
	}
	if whitelisted(m.Kind) {
		proxy, err := proxyAddr(deps.Store)
		if err != nil {
			return nil, err
		}
		res.AddMessage(host.WasmExecute{
			Contract: proxy,
			Msg:      protocol.ProxyExecuteMsg{RemoveModule: &protocol.ProxyModuleMsg{Module: m.Address}},
		})
	}
	if err := removeInstalled(deps.Store, id); err != nil {
		return nil, err
	}
	deps.Log.Info("module uninstalled", "module", id, "address", m.Address, "account", cfg.AccountID)
	return res, nil
}

func execOnModule(deps host.Deps, info host.MessageInfo, msg protocol.ExecOnModuleMsg) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "execute on modules"); err != nil {
		return nil, err
	}
	if err := assertActive(cfg); err != nil {
		return nil, err
	}
	m, err := mustInstalled(deps.Store, msg.ModuleID)
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddMessage(host.WasmExecute{Contract: m.Address, Msg: msg.ExecMsg, Funds: info.Funds}).
		AddAttribute("action", "exec_on_module").
		AddAttribute("module", string(msg.ModuleID)), nil
}

// updateModuleAddresses binds or unbinds addresses directly. The account factory
// uses it to attach the proxy. Bindings made this way are not whitelisted and do
// not take part in dependency tracking.
func updateModuleAddresses(deps host.Deps, info host.MessageInfo, msg protocol.UpdateModuleAddressesMsg) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Owner && info.Sender != cfg.AccountFactory {
		return nil, protocol.Unauthorized(info.Sender, "update module addresses", "account owner or account factory")
	}
	for _, add := range msg.ToAdd {
		if err := add.ID.Validate(); err != nil {
			return nil, err
		}
		if err := add.Address.Validate(); err != nil {
			return nil, err
		}
		kind := module.KindService
		if isProtected(add.ID) {
			kind = module.KindAccountBase
		} else if m, ok, err := loadInstalled(deps.Store, add.ID); err != nil {
			return nil, err
		} else if ok {
			kind = m.Kind
		}
		if err := saveInstalled(deps.Store, add.ID, installed{Address: add.Address, Kind: kind}); err != nil {
			return nil, err
		}
	}
	for _, id := range msg.ToRemove {
		if id == module.ProxyID {
			return nil, fmt.Errorf("%w: %s", ErrProtectedModule, id)
		}
		dependents, err := graph.Dependents(deps.Store, id)
		if err != nil {
			return nil, err
		}
		if len(dependents) > 0 {
			return nil, &HasDependentsError{Module: id, Dependents: dependents}
		}
		if err := graph.Clear(deps.Store, id); err != nil {
			return nil, err
		}
		if err := removeInstalled(deps.Store, id); err != nil {
			return nil, err
		}
	}
	return host.NewResponse().AddAttribute("action", "update_module_addresses"), nil
}
