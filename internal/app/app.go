// SPDX-License-Identifier: MPL-2.0

// Package app implements the code shared by app and standalone modules: one
// instance per account, administered by the account's manager.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// BuilderName is the code builder apps are stored under.
	BuilderName = "app"
	// StandaloneBuilderName is the code builder standalone modules are stored under.
	StandaloneBuilderName = "standalone"
)

type (
	// Params describe the module served by stored code.
	Params struct {
		Module       module.ID           `json:"module"`
		Version      string              `json:"version"`
		Dependencies []module.Dependency `json:"dependencies,omitempty"`
	}

	// Contract is an app built from Params.
	Contract struct {
		data module.Data
	}

	// Request is the module-specific execute surface.
	Request struct {
		Ping        *protocol.Empty    `json:"ping,omitempty"`
		CallAdapter *CallAdapterRequest `json:"call_adapter,omitempty"`
	}

	// CallAdapterRequest forwards a request to an adapter installed on the same
	// account, acting as one of its authorized callers.
	CallAdapterRequest struct {
		Adapter module.ID       `json:"adapter"`
		Request json.RawMessage `json:"request"`
	}

	// StateResponse answers the module query.
	StateResponse struct {
		Pings uint64 `json:"pings"`
	}
)

var (
	base  = store.NewItem[protocol.AppBase]("base")
	pings = store.NewItem[uint64]("pings")

	_ host.Contract = (*Contract)(nil)
	_ host.Migrator = (*Contract)(nil)
)

// Build satisfies host.Builder.
func Build(raw json.RawMessage) (host.Contract, error) {
	p, err := host.Decode[Params](raw)
	if err != nil {
		return nil, err
	}
	data := module.Data{Module: p.Module, Version: p.Version, Dependencies: p.Dependencies}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("app params: %w", err)
	}
	return &Contract{data: data}, nil
}

// Instantiate records the account the app belongs to.
func (c *Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, _ host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.AppInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	for _, a := range []types.Addr{msg.Base.Manager, msg.Base.Proxy, msg.Base.Registry} {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	if err := base.Save(deps.Store, msg.Base); err != nil {
		return nil, err
	}
	if err := modbase.Init(deps.Store, c.data); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("module", string(c.data.Module)).
		AddAttribute("version", c.data.Version), nil
}

// Execute serves module requests. Only the account's manager may call.
func (c *Contract) Execute(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.AppExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	if len(msg.Module) == 0 {
		return nil, protocol.ErrNoVariant
	}
	b, err := base.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != b.Manager {
		return nil, protocol.Unauthorized(info.Sender, "call "+string(c.data.Module), "account manager")
	}
	req, err := host.Decode[Request](msg.Module)
	if err != nil {
		return nil, err
	}
	switch {
	case req.Ping != nil:
		n, _, err := pings.MayLoad(deps.Store)
		if err != nil {
			return nil, err
		}
		if err := pings.Save(deps.Store, n+1); err != nil {
			return nil, err
		}
		return host.NewResponse().AddAttribute("action", "ping").AddAttribute("module", string(c.data.Module)), nil
	case req.CallAdapter != nil:
		return c.callAdapter(deps, b, *req.CallAdapter)
	default:
		return nil, protocol.ErrNoVariant
	}
}

func (c *Contract) callAdapter(deps host.Deps, b protocol.AppBase, req CallAdapterRequest) (*host.Response, error) {
	var resp protocol.ModuleAddressesResponse
	q := protocol.ManagerQueryMsg{ModuleAddresses: &protocol.ModuleAddressesQuery{IDs: []module.ID{req.Adapter}}}
	if err := deps.Querier.QuerySmart(b.Manager, q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Modules) == 0 {
		return nil, fmt.Errorf("adapter %s is not installed on %s", req.Adapter, b.Manager)
	}
	call := protocol.AdapterExecuteMsg{Module: &protocol.AdapterRequestMsg{ProxyAddress: b.Proxy, Request: req.Request}}
	return host.NewResponse().
		AddMessage(host.WasmExecute{Contract: resp.Modules[0].Address, Msg: call}).
		AddAttribute("action", "call_adapter").
		AddAttribute("adapter", string(req.Adapter)), nil
}

// Query answers base and module queries.
func (c *Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.AppQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.Base != nil && msg.Base.Config != nil:
		b, err := base.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return host.QueryResponse(protocol.AppConfigResponse{Base: b, Module: c.data.Module})
	case msg.Base != nil && msg.Base.ModuleData != nil:
		data, err := modbase.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return host.QueryResponse(data)
	case len(msg.Module) > 0:
		n, _, err := pings.MayLoad(deps.Store)
		if err != nil {
			return nil, err
		}
		return host.QueryResponse(StateResponse{Pings: n})
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Migrate upgrades the stored module data to the version of this code.
func (c *Contract) Migrate(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (*host.Response, error) {
	if _, err := host.Decode[map[string]json.RawMessage](raw); err != nil {
		return nil, err
	}
	if err := modbase.Migrate(deps.Store, c.data); err != nil {
		return nil, err
	}
	deps.Log.Info("module migrated", "module", c.data.Module, "version", c.data.Version)
	return host.NewResponse().
		AddAttribute("action", "migrate").
		AddAttribute("module", string(c.data.Module)).
		AddAttribute("version", c.data.Version), nil
}

// PingMsg is the execute message an account owner forwards to ping an app.
func PingMsg() protocol.AppExecuteMsg {
	return protocol.AppExecuteMsg{Module: json.RawMessage(`{"ping":{}}`)}
}

