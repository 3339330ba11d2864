// SPDX-License-Identifier: MPL-2.0

// Package proxy implements the account proxy: the contract holding an account's
// funds and acting for the modules its manager whitelists.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// BuilderName is the code builder the proxy is stored under.
const BuilderName = "proxy"

var (
	// ErrAlreadyWhitelisted is returned when whitelisting an address twice.
	ErrAlreadyWhitelisted = errors.New("module is already whitelisted")
	// ErrNotWhitelisted is returned when removing an address that is not whitelisted.
	ErrNotWhitelisted = errors.New("module is not whitelisted")

	accountID = store.NewItem[types.AccountID]("account_id")
	manager   = store.NewItem[types.Addr]("manager")
	modules   = store.NewItem[[]types.Addr]("modules")

	_ host.Contract = (*Contract)(nil)
	_ host.Migrator = (*Contract)(nil)
)

type (
	// Params carry the code version of the proxy.
	Params struct {
		Version string `json:"version"`
	}

	// Contract is the proxy code.
	Contract struct {
		version string
	}
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
	return module.Data{Module: module.ProxyID, Version: c.version}
}

// Instantiate whitelists the manager.
func (c *Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, _ host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.ProxyInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if err := msg.Manager.Validate(); err != nil {
		return nil, err
	}
	if err := modbase.Init(deps.Store, c.data()); err != nil {
		return nil, err
	}
	if err := accountID.Save(deps.Store, msg.AccountID); err != nil {
		return nil, err
	}
	if err := manager.Save(deps.Store, msg.Manager); err != nil {
		return nil, err
	}
	if err := modules.Save(deps.Store, []types.Addr{msg.Manager}); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("account_id", msg.AccountID.String()), nil
}

// Execute handles whitelist changes and module actions.
func (c *Contract) Execute(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.ProxyExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.AddModules != nil:
		return addModules(deps, info.Sender, msg.AddModules.Modules)
	case msg.RemoveModule != nil:
		return removeModule(deps, info.Sender, msg.RemoveModule.Module)
	case msg.ModuleAction != nil:
		return moduleAction(deps, info.Sender, *msg.ModuleAction)
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Query answers the config query.
func (c *Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.ProxyQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	if msg.Config == nil {
		return nil, protocol.ErrNoVariant
	}
	id, err := accountID.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	m, err := manager.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	list, err := modules.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	return host.QueryResponse(protocol.ProxyConfigResponse{AccountID: id, Manager: m, Modules: list})
}

// Migrate moves the proxy to newer code.
func (c *Contract) Migrate(_ context.Context, deps host.Deps, _ host.Env, _ json.RawMessage) (*host.Response, error) {
	if err := modbase.Migrate(deps.Store, c.data()); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "migrate").AddAttribute("version", c.version), nil
}

func assertManager(deps host.Deps, sender types.Addr, action string) error {
	m, err := manager.Load(deps.Store)
	if err != nil {
		return err
	}
	if sender != m {
		return protocol.Unauthorized(sender, action, "account manager")
	}
	return nil
}

func addModules(deps host.Deps, sender types.Addr, add []types.Addr) (*host.Response, error) {
	if err := assertManager(deps, sender, "whitelist modules"); err != nil {
		return nil, err
	}
	list, err := modules.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	for _, a := range add {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if slices.Contains(list, a) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyWhitelisted, a)
		}
		list = append(list, a)
	}
	if err := modules.Save(deps.Store, list); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "add_modules"), nil
}

func removeModule(deps host.Deps, sender, addr types.Addr) (*host.Response, error) {
	if err := assertManager(deps, sender, "remove modules"); err != nil {
		return nil, err
	}
	list, err := modules.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	i := slices.Index(list, addr)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotWhitelisted, addr)
	}
	if err := modules.Save(deps.Store, slices.Delete(list, i, i+1)); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "remove_module").AddAttribute("module", addr.String()), nil
}

func moduleAction(deps host.Deps, sender types.Addr, msg protocol.ModuleActionMsg) (*host.Response, error) {
	list, err := modules.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(list, sender) {
		return nil, protocol.Unauthorized(sender, "act for the account", "whitelisted module")
	}
	if err := msg.To.Validate(); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddMessage(host.BankSend{To: msg.To, Amount: msg.Amount}).
		AddAttribute("action", "module_action").
		AddAttribute("module", sender.String()), nil
}
