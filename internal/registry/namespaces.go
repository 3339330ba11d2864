// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// claimNamespaceMsg binds a namespace to an account. The registry owner may always
// claim; account owners may claim for their own account only while security is
// disabled. A configured fee must be paid exactly and is forwarded to the treasury.
func claimNamespaceMsg(deps host.Deps, info host.MessageInfo, msg protocol.ClaimNamespaceMsg) (*host.Response, error) {
	if err := msg.Namespace.Validate(); err != nil {
		return nil, err
	}
	cfg, err := regConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	regOwner, err := owner.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != regOwner {
		if cfg.SecurityEnabled {
			return nil, protocol.Unauthorized(info.Sender, "claim namespaces", "registry owner")
		}
		accOwner, err := accountOwner(deps, msg.AccountID)
		if err != nil {
			return nil, err
		}
		if info.Sender != accOwner {
			return nil, protocol.Unauthorized(info.Sender, "claim namespaces for account "+msg.AccountID.String(), "account owner")
		}
	} else if _, err := loadAccount(deps.Store, msg.AccountID); err != nil {
		return nil, err
	}

	holder, ok, err := namespaces.MayLoad(deps.Store, string(msg.Namespace))
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, &NamespaceOccupiedError{Namespace: msg.Namespace, AccountID: holder}
	}
	if cfg.NamespaceLimit > 0 {
		held, err := namespaceCount(deps.Store, msg.AccountID)
		if err != nil {
			return nil, err
		}
		if held >= int(cfg.NamespaceLimit) {
			return nil, fmt.Errorf("%w: account %s holds %d of %d", ErrExceedsNamespaceLimit, msg.AccountID, held, cfg.NamespaceLimit)
		}
	}

	res := host.NewResponse().
		AddAttribute("action", "claim_namespace").
		AddAttribute("namespace", string(msg.Namespace)).
		AddAttribute("account_id", msg.AccountID.String())

	if cfg.NamespaceFee != nil && cfg.NamespaceFee.Amount > 0 {
		fee := types.Coins{*cfg.NamespaceFee}
		if !info.Funds.Equal(fee) {
			return nil, fmt.Errorf("%w: namespace registration costs %s, got %q", ErrInvalidFee, fee, info.Funds)
		}
		treasury, err := loadAccount(deps.Store, TreasuryAccount)
		if err != nil {
			return nil, err
		}
		res.AddMessage(host.BankSend{To: treasury.Proxy, Amount: fee})
	} else if !info.Funds.IsZero() {
		return nil, fmt.Errorf("%w: no namespace fee is configured, got %s", ErrInvalidFee, info.Funds)
	}

	if err := claimNamespace(deps.Store, msg.Namespace, msg.AccountID); err != nil {
		return nil, err
	}
	deps.Log.Info("namespace claimed", "namespace", msg.Namespace, "account", msg.AccountID)
	return res, nil
}

// removeNamespaces releases namespaces. Registered modules under a released
// namespace are yanked and its pending proposals are dropped.
func removeNamespaces(deps host.Deps, info host.MessageInfo, list []module.Namespace) (*host.Response, error) {
	res := host.NewResponse().AddAttribute("action", "remove_namespaces")
	regOwner, err := owner.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	for _, ns := range list {
		if ns.IsReserved() {
			return nil, fmt.Errorf("%w: %s", ErrReservedNamespace, ns)
		}
		holder, ok, err := namespaces.MayLoad(deps.Store, string(ns))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, ns)
		}
		if info.Sender != regOwner {
			if err := assertNamespaceOwner(deps, info.Sender, ns, "remove namespace "+string(ns)); err != nil {
				return nil, err
			}
		}

		live, err := registered.entries.Entries(deps.Store, []string{string(ns)}, nil, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range live {
			if err := yank(deps, ns, module.Name(e.Key[1]), e.Key[2], e.Value); err != nil {
				return nil, err
			}
		}
		if err := pending.entries.Clear(deps.Store, string(ns)); err != nil {
			return nil, err
		}
		if err := releaseNamespace(deps.Store, ns, holder); err != nil {
			return nil, err
		}
		deps.Log.Info("namespace removed", "namespace", ns, "account", holder, "yanked", len(live))
		res.AddEvent(host.Event{Type: "abstract_registry", Attributes: []host.Attribute{
			{Key: "action", Value: "remove_namespace"},
			{Key: "namespace", Value: string(ns)},
			{Key: "yanked", Value: fmt.Sprint(len(live))},
		}})
	}
	return res, nil
}

// addAccount records an account created by the account factory.
func addAccount(deps host.Deps, info host.MessageInfo, msg protocol.AddAccountMsg) (*host.Response, error) {
	cfg, err := regConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.AccountFactory {
		return nil, protocol.Unauthorized(info.Sender, "add accounts", "account factory")
	}
	if err := msg.Base.Manager.Validate(); err != nil {
		return nil, err
	}
	if err := msg.Base.Proxy.Validate(); err != nil {
		return nil, err
	}
	exists, err := accounts.Has(deps.Store, accountKey(msg.AccountID))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, msg.AccountID)
	}
	if err := accounts.Save(deps.Store, msg.Base, accountKey(msg.AccountID)); err != nil {
		return nil, err
	}
	return host.NewResponse().
		AddAttribute("action", "add_account").
		AddAttribute("account_id", msg.AccountID.String()).
		AddAttribute("manager", msg.Base.Manager.String()), nil
}

func updateConfig(deps host.Deps, info host.MessageInfo, msg protocol.UpdateRegistryConfigMsg) (*host.Response, error) {
	if err := assertOwner(deps, info.Sender, "update the registry config"); err != nil {
		return nil, err
	}
	cfg, err := regConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	if msg.SecurityEnabled != nil {
		cfg.SecurityEnabled = *msg.SecurityEnabled
	}
	if msg.NamespaceLimit != nil {
		cfg.NamespaceLimit = *msg.NamespaceLimit
	}
	if msg.ClearNamespaceFee {
		cfg.NamespaceFee = nil
	}
	if msg.NamespaceFee != nil {
		fee := *msg.NamespaceFee
		cfg.NamespaceFee = &fee
	}
	if msg.AccountFactory != nil {
		if err := msg.AccountFactory.Validate(); err != nil {
			return nil, err
		}
		cfg.AccountFactory = *msg.AccountFactory
	}
	if err := regConfig.Save(deps.Store, cfg); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "update_config"), nil
}

func updateOwnership(deps host.Deps, info host.MessageInfo, next types.Addr) (*host.Response, error) {
	if err := assertOwner(deps, info.Sender, "transfer the registry"); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := owner.Save(deps.Store, next); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "update_ownership").AddAttribute("owner", next.String()), nil
}
