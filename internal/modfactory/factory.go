// SPDX-License-Identifier: MPL-2.0

// Package modfactory implements the module factory. It resolves a module in the
// registry on behalf of an account manager, collects the install cost, creates
// per-account instances and finally registers the module with the manager.
package modfactory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// BuilderName is the code builder the factory is stored under.
	BuilderName = "module-factory"
	// Version is the contract version of the factory.
	Version = "0.19.0"

	replyInstantiate uint64 = 1
)

var (
	// ErrModuleNotInstallable is returned for modules that cannot be installed
	// through the factory, such as account base contracts or yanked versions.
	ErrModuleNotInstallable = errors.New("module cannot be installed")
	// ErrInvalidInstallFunds is returned when the attached funds differ from the
	// install cost.
	ErrInvalidInstallFunds = errors.New("attached funds do not match the install cost")
	// ErrInitMsgNotSupported is returned when an init message is given for a
	// module that is not instantiated per account.
	ErrInitMsgNotSupported = errors.New("module does not take an init message")

	owner    = store.NewItem[types.Addr]("owner")
	registry = store.NewItem[types.Addr]("registry")
	pending  = store.NewItem[installContext]("install_context")

	_ host.Contract = (*Contract)(nil)
	_ host.Replier  = (*Contract)(nil)
)

type (
	// Contract is the module factory.
	Contract struct{}

	// installContext survives between the instantiate sub-message and its reply.
	installContext struct {
		Manager   types.Addr       `json:"manager"`
		Module    module.Info      `json:"module"`
		Reference module.Reference `json:"reference"`
	}
)

// Build satisfies host.Builder.
func Build(json.RawMessage) (host.Contract, error) {
	return &Contract{}, nil
}

// Instantiate makes the sender the factory owner.
func (Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.FactoryInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if err := msg.Registry.Validate(); err != nil {
		return nil, err
	}
	if err := owner.Save(deps.Store, info.Sender); err != nil {
		return nil, err
	}
	if err := registry.Save(deps.Store, msg.Registry); err != nil {
		return nil, err
	}
	if err := host.SetContractVersion(deps.Store, string(module.FactoryID), Version); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "instantiate"), nil
}

// Execute handles installs and config updates.
func (Contract) Execute(_ context.Context, deps host.Deps, env host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.FactoryExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.InstallModule != nil:
		return install(deps, env, info, *msg.InstallModule)
	case msg.UpdateConfig != nil:
		o, err := owner.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		if info.Sender != o {
			return nil, protocol.Unauthorized(info.Sender, "update the factory config", "factory owner")
		}
		if err := msg.UpdateConfig.Registry.Validate(); err != nil {
			return nil, err
		}
		if err := registry.Save(deps.Store, msg.UpdateConfig.Registry); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "update_config"), nil
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Query answers the config query.
func (Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.FactoryQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Config == nil {
		return nil, protocol.ErrNoVariant
	}
	o, err := owner.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	r, err := registry.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	return host.QueryResponse(protocol.FactoryConfigResponse{Owner: o, Registry: r})
}

// Reply registers a freshly instantiated module with the manager that asked for it.
func (Contract) Reply(_ context.Context, deps host.Deps, _ host.Env, reply host.Reply) (*host.Response, error) {
	if reply.ID != replyInstantiate {
		return nil, fmt.Errorf("unexpected reply id %d", reply.ID)
	}
	ictx, err := pending.Load(deps.Store)
	if err != nil {
		return nil, fmt.Errorf("install context: %w", err)
	}
	if err := pending.Remove(deps.Store); err != nil {
		return nil, err
	}
	res, err := host.ParseInstantiateResult(reply.Result.Data)
	if err != nil {
		return nil, err
	}
	deps.Log.Debug("module instantiated", "module", ictx.Module, "address", res.Address, "manager", ictx.Manager)
	return host.NewResponse().
		AddMessage(registerMsg(ictx.Manager, ictx.Module, ictx.Reference, res.Address)).
		AddAttribute("action", "register_module").
		AddAttribute("module", ictx.Module.String()).
		AddAttribute("address", res.Address.String()), nil
}

func registerMsg(manager types.Addr, mi module.Info, ref module.Reference, addr types.Addr) host.WasmExecute {
	return host.WasmExecute{
		Contract: manager,
		Msg: protocol.ManagerExecuteMsg{RegisterModule: &protocol.RegisterModuleMsg{
			Module:    mi,
			Reference: ref,
			Address:   addr,
		}},
	}
}

func install(deps host.Deps, env host.Env, info host.MessageInfo, msg protocol.InstallModuleMsg) (*host.Response, error) {
	reg, err := registry.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	base, err := verifyManager(deps.Querier, reg, info.Sender)
	if err != nil {
		return nil, err
	}

	var modules protocol.ModulesResponse
	if err := deps.Querier.QuerySmart(reg, protocol.RegistryQueryMsg{Modules: &protocol.ModulesQuery{Infos: []module.Info{msg.Module}}}, &modules); err != nil {
		return nil, err
	}
	if len(modules.Modules) != 1 {
		return nil, fmt.Errorf("registry returned %d modules for %s", len(modules.Modules), msg.Module)
	}
	m := modules.Modules[0]
	if m.Status != module.StatusRegistered {
		return nil, fmt.Errorf("%w: %s is %s", ErrModuleNotInstallable, m.Info, m.Status)
	}

	cost := m.Config.InstallCost()
	if !info.Funds.Equal(cost) {
		return nil, fmt.Errorf("%w: %s costs %q, got %q", ErrInvalidInstallFunds, m.Info, cost, info.Funds)
	}

	res := host.NewResponse().
		AddAttribute("action", "install_module").
		AddAttribute("module", m.Info.String()).
		AddAttribute("manager", info.Sender.String())

	if !m.Config.Monetization.IsFree() {
		payee, err := namespaceProxy(deps.Querier, reg, m.Info.Namespace)
		if err != nil {
			return nil, err
		}
		res.AddMessage(host.BankSend{To: payee, Amount: types.Coins{*m.Config.Monetization.InstallFee}})
	}

	switch m.Reference.Kind {
	case module.KindApp, module.KindStandalone:
		initMsg := protocol.AppInstantiateMsg{
			Base:   protocol.AppBase{Manager: base.Manager, Proxy: base.Proxy, Registry: reg},
			Module: msg.InitMsg,
		}
		if err := pending.Save(deps.Store, installContext{Manager: info.Sender, Module: m.Info, Reference: m.Reference}); err != nil {
			return nil, err
		}
		res.AddSubMessage(host.SubMsg{
			ID:      replyInstantiate,
			ReplyOn: host.ReplySuccess,
			Msg: host.WasmInstantiate{
				CodeID: m.Reference.CodeID,
				Msg:    initMsg,
				Funds:  m.Config.InstantiationFunds.Normalize(),
				Admin:  info.Sender,
				Label:  fmt.Sprintf("%s for account %s at height %d", m.Info, base.Proxy, env.Height),
			},
		})
	case module.KindAdapter, module.KindService:
		if len(msg.InitMsg) > 0 && string(msg.InitMsg) != "null" {
			return nil, fmt.Errorf("%w: %s", ErrInitMsgNotSupported, m.Info)
		}
		res.AddMessage(registerMsg(info.Sender, m.Info, m.Reference, m.Reference.Address))
	default:
		return nil, fmt.Errorf("%w: %s is a %s module", ErrModuleNotInstallable, m.Info, m.Reference.Kind)
	}
	return res, nil
}

// verifyManager checks with the registry that sender is the manager of an account.
func verifyManager(q host.Querier, reg, sender types.Addr) (protocol.AccountBase, error) {
	var cfg protocol.ManagerConfigResponse
	if err := q.QuerySmart(sender, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return protocol.AccountBase{}, fmt.Errorf("%w: %w", protocol.Unauthorized(sender, "install modules", "account manager"), err)
	}
	var acc protocol.AccountResponse
	if err := q.QuerySmart(reg, protocol.RegistryQueryMsg{Account: &protocol.AccountQuery{AccountID: cfg.AccountID}}, &acc); err != nil {
		return protocol.AccountBase{}, err
	}
	if acc.Base.Manager != sender {
		return protocol.AccountBase{}, protocol.Unauthorized(sender, "install modules", "manager of account "+cfg.AccountID.String())
	}
	return acc.Base, nil
}

func namespaceProxy(q host.Querier, reg types.Addr, ns module.Namespace) (types.Addr, error) {
	var resp protocol.NamespaceResponse
	if err := q.QuerySmart(reg, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: ns}}, &resp); err != nil {
		return "", err
	}
	if !resp.Claimed || resp.Base == nil {
		return "", fmt.Errorf("namespace %s has no account to pay", ns)
	}
	return resp.Base.Proxy, nil
}
