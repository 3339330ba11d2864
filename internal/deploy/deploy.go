// SPDX-License-Identifier: MPL-2.0

// Package deploy bootstraps the framework on a host: it stores the contract
// codes, instantiates the registry and module factory, creates the treasury
// account and offers helpers to create accounts and publish modules.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/adapter"
	"github.com/abstractsdk/abstract/internal/app"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modfactory"
	"github.com/abstractsdk/abstract/internal/proxy"
	"github.com/abstractsdk/abstract/internal/registry"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// DefaultVersion is the version account base contracts are published at.
const DefaultVersion = "0.19.0"

// ErrNotDeployed is returned when loading a deployment from an empty store.
var ErrNotDeployed = errors.New("framework is not deployed")

var record = store.NewItem[Record]("deploy/record")

type (
	// Options configure Bootstrap.
	Options struct {
		SecurityEnabled bool
		NamespaceLimit  uint32
		NamespaceFee    *types.Coin
		// Version of the manager and proxy codes. Defaults to DefaultVersion.
		Version string
	}

	// Account is a created account.
	Account struct {
		ID      types.AccountID `json:"id"`
		Owner   types.Addr      `json:"owner"`
		Manager types.Addr      `json:"manager"`
		Proxy   types.Addr      `json:"proxy"`
	}

	// Record is what a deployment persists to find its contracts again.
	Record struct {
		Admin       types.Addr  `json:"admin"`
		Registry    types.Addr  `json:"registry"`
		Factory     types.Addr  `json:"module_factory"`
		ManagerCode host.CodeID `json:"manager_code"`
		ProxyCode   host.CodeID `json:"proxy_code"`
		Treasury    Account     `json:"treasury"`
	}

	// Deployment is a framework instance on a host.
	Deployment struct {
		Record
		Chain *host.Chain
	}
)

// RegisterBuilders makes every contract of the framework available on c.
func RegisterBuilders(c *host.Chain) {
	c.RegisterBuilder(registry.BuilderName, registry.Build)
	c.RegisterBuilder(modfactory.BuilderName, modfactory.Build)
	c.RegisterBuilder(account.BuilderName, account.Build)
	c.RegisterBuilder(proxy.BuilderName, proxy.Build)
	c.RegisterBuilder(app.BuilderName, app.Build)
	c.RegisterBuilder(app.StandaloneBuilderName, app.Build)
	c.RegisterBuilder(adapter.BuilderName, adapter.Build)
}

// Bootstrap deploys the framework with admin as registry owner and account
// factory. The treasury account (id 0) is created for admin.
func Bootstrap(ctx context.Context, c *host.Chain, admin types.Addr, opts Options) (*Deployment, error) {
	if err := admin.Validate(); err != nil {
		return nil, err
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	RegisterBuilders(c)

	regCode, err := c.StoreCode(registry.BuilderName, nil)
	if err != nil {
		return nil, err
	}
	factoryCode, err := c.StoreCode(modfactory.BuilderName, nil)
	if err != nil {
		return nil, err
	}

	d := &Deployment{Chain: c, Record: Record{Admin: admin}}
	d.Registry, _, err = c.Instantiate(ctx, admin, regCode, protocol.RegistryInstantiateMsg{
		SecurityEnabled: opts.SecurityEnabled,
		NamespaceLimit:  opts.NamespaceLimit,
		NamespaceFee:    opts.NamespaceFee,
		AccountFactory:  admin,
	}, nil, admin, "registry")
	if err != nil {
		return nil, fmt.Errorf("instantiate registry: %w", err)
	}
	d.Factory, _, err = c.Instantiate(ctx, admin, factoryCode, protocol.FactoryInstantiateMsg{Registry: d.Registry}, nil, admin, "module factory")
	if err != nil {
		return nil, fmt.Errorf("instantiate module factory: %w", err)
	}
	if err := d.PublishAccountBase(ctx, opts.Version); err != nil {
		return nil, err
	}
	d.Treasury, err = d.CreateAccount(ctx, admin, "")
	if err != nil {
		return nil, fmt.Errorf("create treasury: %w", err)
	}
	if d.Treasury.ID != registry.TreasuryAccount {
		return nil, fmt.Errorf("treasury got account id %s", d.Treasury.ID)
	}
	c.Logger().Info("framework deployed", "registry", d.Registry, "factory", d.Factory, "treasury", d.Treasury.Proxy)
	return d, nil
}

// PublishAccountBase stores manager and proxy code at version and registers
// them as abstract:manager and abstract:proxy. New accounts use the latest codes.
func (d *Deployment) PublishAccountBase(ctx context.Context, version string) error {
	managerCode, err := d.Chain.StoreCode(account.BuilderName, account.Params{Version: version})
	if err != nil {
		return err
	}
	proxyCode, err := d.Chain.StoreCode(proxy.BuilderName, proxy.Params{Version: version})
	if err != nil {
		return err
	}
	_, err = d.Chain.Execute(ctx, d.Admin, d.Registry, protocol.RegistryExecuteMsg{ProposeModules: &protocol.ProposeModulesMsg{
		Modules: []protocol.ModuleEntry{
			{Info: infoAt(module.ManagerID, version), Reference: module.AccountBaseRef(managerCode)},
			{Info: infoAt(module.ProxyID, version), Reference: module.AccountBaseRef(proxyCode)},
		},
	}}, nil)
	if err != nil {
		return fmt.Errorf("publish account base %s: %w", version, err)
	}
	if err := d.approveIfPending(ctx, infoAt(module.ManagerID, version), infoAt(module.ProxyID, version)); err != nil {
		return err
	}
	d.ManagerCode, d.ProxyCode = managerCode, proxyCode
	return nil
}

// approveIfPending approves reserved-namespace proposals the registry parked
// because security is enabled. The admin owns the registry.
func (d *Deployment) approveIfPending(ctx context.Context, infos ...module.Info) error {
	var pending []module.Info
	for _, mi := range infos {
		var resp protocol.ModuleListResponse
		filter := &protocol.ModuleFilter{Namespace: mi.Namespace, Name: mi.Name, Status: module.StatusPending}
		if err := d.Chain.Query(ctx, d.Registry, protocol.RegistryQueryMsg{ModuleList: &protocol.ModuleListQuery{Filter: filter}}, &resp); err != nil {
			return err
		}
		for _, m := range resp.Modules {
			if m.Info == mi {
				pending = append(pending, mi)
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}
	_, err := d.Chain.Execute(ctx, d.Admin, d.Registry, protocol.RegistryExecuteMsg{
		ApproveOrRejectModules: &protocol.ApproveOrRejectModulesMsg{Approves: pending},
	}, nil)
	return err
}

func infoAt(id module.ID, version string) module.Info {
	ns, name, _ := id.Split()
	return module.Info{Namespace: ns, Name: name, Version: module.Exact(version)}
}

// CreateAccount creates an account for owner and, when namespace is set, claims
// it for the account. The admin pays the namespace fee if one is configured.
// Each step is its own transaction.
func (d *Deployment) CreateAccount(ctx context.Context, owner types.Addr, namespace module.Namespace) (Account, error) {
	if err := owner.Validate(); err != nil {
		return Account{}, err
	}
	id, err := d.nextAccountID(ctx)
	if err != nil {
		return Account{}, err
	}
	acc := Account{ID: id, Owner: owner}

	acc.Manager, _, err = d.Chain.Instantiate(ctx, d.Admin, d.ManagerCode, protocol.ManagerInstantiateMsg{
		AccountID:      id,
		Owner:          owner,
		Registry:       d.Registry,
		ModuleFactory:  d.Factory,
		AccountFactory: d.Admin,
	}, nil, d.Admin, "manager "+id.String())
	if err != nil {
		return Account{}, fmt.Errorf("instantiate manager: %w", err)
	}
	if err := d.Chain.UpdateAdmin(ctx, d.Admin, acc.Manager, acc.Manager); err != nil {
		return Account{}, err
	}
	acc.Proxy, _, err = d.Chain.Instantiate(ctx, d.Admin, d.ProxyCode, protocol.ProxyInstantiateMsg{
		AccountID: id,
		Manager:   acc.Manager,
	}, nil, acc.Manager, "proxy "+id.String())
	if err != nil {
		return Account{}, fmt.Errorf("instantiate proxy: %w", err)
	}
	if _, err := d.Chain.Execute(ctx, d.Admin, acc.Manager, protocol.ManagerExecuteMsg{UpdateModuleAddresses: &protocol.UpdateModuleAddressesMsg{
		ToAdd: []protocol.ModuleAddress{{ID: module.ProxyID, Address: acc.Proxy}},
	}}, nil); err != nil {
		return Account{}, err
	}
	if _, err := d.Chain.Execute(ctx, d.Admin, d.Registry, protocol.RegistryExecuteMsg{AddAccount: &protocol.AddAccountMsg{
		AccountID: id,
		Base:      protocol.AccountBase{Manager: acc.Manager, Proxy: acc.Proxy},
	}}, nil); err != nil {
		return Account{}, err
	}
	if namespace != "" {
		if err := d.ClaimNamespace(ctx, d.Admin, id, namespace); err != nil {
			return Account{}, err
		}
	}
	d.Chain.Logger().Info("account created", "account", id, "owner", owner, "manager", acc.Manager, "proxy", acc.Proxy)
	return acc, nil
}

// ClaimNamespace claims namespace for account id on behalf of sender, attaching
// the configured fee.
func (d *Deployment) ClaimNamespace(ctx context.Context, sender types.Addr, id types.AccountID, namespace module.Namespace) error {
	var cfg protocol.RegistryConfigResponse
	if err := d.Chain.Query(ctx, d.Registry, protocol.RegistryQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return err
	}
	var funds types.Coins
	if cfg.NamespaceFee != nil && cfg.NamespaceFee.Amount > 0 {
		funds = types.Coins{*cfg.NamespaceFee}
	}
	_, err := d.Chain.Execute(ctx, sender, d.Registry, protocol.RegistryExecuteMsg{ClaimNamespace: &protocol.ClaimNamespaceMsg{
		AccountID: id,
		Namespace: namespace,
	}}, funds)
	return err
}

func (d *Deployment) nextAccountID(ctx context.Context) (types.AccountID, error) {
	var (
		next       types.AccountID
		startAfter *types.AccountID
	)
	for {
		var page protocol.AccountListResponse
		q := protocol.AccountListQuery{StartAfter: startAfter}
		if err := d.Chain.Query(ctx, d.Registry, protocol.RegistryQueryMsg{AccountList: &q}, &page); err != nil {
			return 0, err
		}
		if len(page.Accounts) == 0 {
			return next, nil
		}
		last := page.Accounts[len(page.Accounts)-1].AccountID
		next = last + 1
		startAfter = &last
	}
}

// Save persists the deployment record in s.
func (d *Deployment) Save(s store.KVStore) error {
	return record.Save(s, d.Record)
}

// Load restores a deployment saved in s. Builders are registered on c.
func Load(s store.KVStore, c *host.Chain) (*Deployment, error) {
	r, ok, err := record.MayLoad(s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotDeployed
	}
	RegisterBuilders(c)
	return &Deployment{Record: r, Chain: c}, nil
}

// Account looks up account id in the registry and reads its owner from the
// manager.
func (d *Deployment) Account(ctx context.Context, id types.AccountID) (Account, error) {
	var entry protocol.AccountResponse
	if err := d.Chain.Query(ctx, d.Registry, protocol.RegistryQueryMsg{Account: &protocol.AccountQuery{AccountID: id}}, &entry); err != nil {
		return Account{}, err
	}
	var cfg protocol.ManagerConfigResponse
	if err := d.Chain.Query(ctx, entry.Base.Manager, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return Account{}, err
	}
	return Account{ID: id, Owner: cfg.Owner, Manager: entry.Base.Manager, Proxy: entry.Base.Proxy}, nil
}
