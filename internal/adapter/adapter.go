// SPDX-License-Identifier: MPL-2.0

// Package adapter implements the shared adapter contract. One adapter instance
// serves every account that installs it; for each account it keeps the list of
// callers, besides the account's manager, that may send it requests.
package adapter

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

	"github.com/tidwall/gjson"
)

const (
	// BuilderName is the code builder adapters are stored under.
	BuilderName = "adapter"

	// MaxAuthorizedAddresses caps the authorized callers per account.
	MaxAuthorizedAddresses = 15
)

var (
	// ErrAuthorizedAddressPresent is returned when adding a caller twice.
	ErrAuthorizedAddressPresent = errors.New("address is already authorized")
	// ErrAuthorizedAddressMissing is returned when removing an unknown caller.
	ErrAuthorizedAddressMissing = errors.New("address is not authorized")
	// ErrTooManyAuthorized is returned when an account exceeds MaxAuthorizedAddresses.
	ErrTooManyAuthorized = errors.New("too many authorized addresses")
)

type (
	// Params describe the adapter module served by stored code.
	Params struct {
		Module       module.ID           `json:"module"`
		Version      string              `json:"version"`
		Dependencies []module.Dependency `json:"dependencies,omitempty"`
	}

	// Contract is an adapter built from Params.
	Contract struct {
		data module.Data
	}

	// RequestCountQuery asks how many requests were handled for an account.
	RequestCountQuery struct {
		ProxyAddress types.Addr `json:"proxy_address"`
	}

	// RequestCountResponse answers RequestCountQuery.
	RequestCountResponse struct {
		Count uint64 `json:"count"`
	}
)

var (
	registryAddr = store.NewItem[types.Addr]("registry")
	authorized   = store.NewMap[[]types.Addr]("authorized_addresses")
	requests     = store.NewMap[uint64]("requests")

	_ host.Contract = (*Contract)(nil)
)

// Build satisfies host.Builder.
func Build(raw json.RawMessage) (host.Contract, error) {
	p, err := host.Decode[Params](raw)
	if err != nil {
		return nil, err
	}
	data := module.Data{Module: p.Module, Version: p.Version, Dependencies: p.Dependencies}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("adapter params: %w", err)
	}
	return &Contract{data: data}, nil
}

// Instantiate records the registry used to verify managers.
func (c *Contract) Instantiate(_ context.Context, deps host.Deps, _ host.Env, _ host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.AdapterInstantiateMsg](raw)
	if err != nil {
		return nil, err
	}
	if err := msg.Registry.Validate(); err != nil {
		return nil, err
	}
	if err := registryAddr.Save(deps.Store, msg.Registry); err != nil {
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

// Execute handles base management messages and module requests.
func (c *Contract) Execute(_ context.Context, deps host.Deps, _ host.Env, info host.MessageInfo, raw json.RawMessage) (*host.Response, error) {
	msg, err := host.Decode[protocol.AdapterExecuteMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.Base != nil && msg.Base.UpdateAuthorizedAddresses != nil:
		return c.updateAuthorizedAddresses(deps, info.Sender, *msg.Base.UpdateAuthorizedAddresses)
	case msg.Base != nil && msg.Base.Remove != nil:
		return c.remove(deps, info.Sender)
	case msg.Module != nil:
		return c.handleRequest(deps, info.Sender, *msg.Module)
	default:
		return nil, protocol.ErrNoVariant
	}
}

// Query answers base queries and request counts.
func (c *Contract) Query(_ context.Context, deps host.Deps, _ host.Env, raw json.RawMessage) (json.RawMessage, error) {
	msg, err := host.Decode[protocol.AdapterQueryMsg](raw)
	if err != nil {
		return nil, err
	}
	switch {
	case msg.Base != nil && msg.Base.AuthorizedAddresses != nil:
		addrs, _, err := authorized.MayLoad(deps.Store, string(msg.Base.AuthorizedAddresses.ProxyAddress))
		if err != nil {
			return nil, err
		}
		if addrs == nil {
			addrs = []types.Addr{}
		}
		return host.QueryResponse(protocol.AuthorizedAddressesResponse{Addresses: addrs})
	case msg.Base != nil && msg.Base.ModuleData != nil:
		data, err := modbase.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return host.QueryResponse(data)
	case len(msg.Module) > 0:
		q, err := host.Decode[RequestCountQuery](msg.Module)
		if err != nil {
			return nil, err
		}
		n, _, err := requests.MayLoad(deps.Store, string(q.ProxyAddress))
		if err != nil {
			return nil, err
		}
		return host.QueryResponse(RequestCountResponse{Count: n})
	default:
		return nil, protocol.ErrNoVariant
	}
}

// assertManager checks with the registry that sender is the manager of an
// account and returns that account.
func assertManager(deps host.Deps, sender types.Addr) (protocol.AccountBase, error) {
	var cfg protocol.ManagerConfigResponse
	if err := deps.Querier.QuerySmart(sender, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return protocol.AccountBase{}, fmt.Errorf("%w: %w", protocol.Unauthorized(sender, "manage adapter", "account manager"), err)
	}
	base, err := accountBase(deps, cfg.AccountID)
	if err != nil {
		return protocol.AccountBase{}, err
	}
	if base.Manager != sender {
		return protocol.AccountBase{}, protocol.Unauthorized(sender, "manage adapter", "manager of account "+cfg.AccountID.String())
	}
	return base, nil
}

func accountBase(deps host.Deps, id types.AccountID) (protocol.AccountBase, error) {
	reg, err := registryAddr.Load(deps.Store)
	if err != nil {
		return protocol.AccountBase{}, err
	}
	var acc protocol.AccountResponse
	if err := deps.Querier.QuerySmart(reg, protocol.RegistryQueryMsg{Account: &protocol.AccountQuery{AccountID: id}}, &acc); err != nil {
		return protocol.AccountBase{}, err
	}
	return acc.Base, nil
}

func (c *Contract) updateAuthorizedAddresses(deps host.Deps, sender types.Addr, msg protocol.UpdateAuthorizedAddressesMsg) (*host.Response, error) {
	base, err := assertManager(deps, sender)
	if err != nil {
		return nil, err
	}
	addrs, _, err := authorized.MayLoad(deps.Store, string(base.Proxy))
	if err != nil {
		return nil, err
	}
	for _, a := range msg.ToAdd {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if slices.Contains(addrs, a) {
			return nil, fmt.Errorf("%w: %s", ErrAuthorizedAddressPresent, a)
		}
		addrs = append(addrs, a)
	}
	for _, a := range msg.ToRemove {
		i := slices.Index(addrs, a)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrAuthorizedAddressMissing, a)
		}
		addrs = slices.Delete(addrs, i, i+1)
	}
	if len(addrs) > MaxAuthorizedAddresses {
		return nil, fmt.Errorf("%w: max %d", ErrTooManyAuthorized, MaxAuthorizedAddresses)
	}
	if len(addrs) == 0 {
		err = authorized.Remove(deps.Store, string(base.Proxy))
	} else {
		err = authorized.Save(deps.Store, addrs, string(base.Proxy))
	}
	if err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "update_authorized_addresses").
		AddAttribute("module", string(c.data.Module)).
		AddAttribute("proxy", base.Proxy.String()), nil
}

// remove forgets an account. The manager revokes this adapter from its own
// dependencies.
func (c *Contract) remove(deps host.Deps, sender types.Addr) (*host.Response, error) {
	base, err := assertManager(deps, sender)
	if err != nil {
		return nil, err
	}
	if err := authorized.Remove(deps.Store, string(base.Proxy)); err != nil {
		return nil, err
	}
	deps.Log.Debug("adapter removed from account", "module", c.data.Module, "proxy", base.Proxy)
	return host.NewResponse().
		AddAttribute("action", "remove").
		AddAttribute("module", string(c.data.Module)).
		AddAttribute("proxy", base.Proxy.String()), nil
}

// handleRequest serves a domain request for an account. The sender must be the
// account's manager or one of its authorized callers.
func (c *Contract) handleRequest(deps host.Deps, sender types.Addr, msg protocol.AdapterRequestMsg) (*host.Response, error) {
	proxy := msg.ProxyAddress
	if proxy.IsEmpty() {
		base, err := assertManager(deps, sender)
		if err != nil {
			return nil, err
		}
		proxy = base.Proxy
	} else {
		addrs, _, err := authorized.MayLoad(deps.Store, string(proxy))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(addrs, sender) {
			base, err := proxyAccount(deps, proxy)
			if err != nil {
				return nil, err
			}
			if base.Manager != sender {
				return nil, protocol.Unauthorized(sender, "call "+string(c.data.Module)+" for "+proxy.String(), "manager or authorized address")
			}
		}
	}

	n, _, err := requests.MayLoad(deps.Store, string(proxy))
	if err != nil {
		return nil, err
	}
	if err := requests.Save(deps.Store, n+1, string(proxy)); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "handle_request").
		AddAttribute("module", string(c.data.Module)).
		AddAttribute("proxy", proxy.String()).
		AddAttribute("request", requestVariant(msg.Request)), nil
}

func proxyAccount(deps host.Deps, proxy types.Addr) (protocol.AccountBase, error) {
	var cfg protocol.ProxyConfigResponse
	if err := deps.Querier.QuerySmart(proxy, protocol.ProxyQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return protocol.AccountBase{}, err
	}
	base, err := accountBase(deps, cfg.AccountID)
	if err != nil {
		return protocol.AccountBase{}, err
	}
	if base.Proxy != proxy {
		return protocol.AccountBase{}, fmt.Errorf("%s is not the proxy of account %s", proxy, cfg.AccountID)
	}
	return base, nil
}

// requestVariant names the request by its top-level key, or "unknown".
func requestVariant(raw json.RawMessage) string {
	variant := "unknown"
	gjson.ParseBytes(raw).ForEach(func(key, _ gjson.Result) bool {
		variant = key.String()
		return false
	})
	return variant
}
