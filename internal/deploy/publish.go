// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/adapter"
	"github.com/abstractsdk/abstract/internal/app"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/registry"
	"github.com/abstractsdk/abstract/pkg/manifest"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// Deploy creates the code or instance behind a module without proposing it.
// Apps and standalone modules get stored code; adapters get a new admin-less
// instance.
func (d *Deployment) Deploy(ctx context.Context, publisher types.Addr, mi module.Info, kind module.ReferenceKind, deps []module.Dependency) (module.Reference, error) {
	version, err := mi.ExactVersion()
	if err != nil {
		return module.Reference{}, err
	}
	switch kind {
	case module.KindApp, module.KindStandalone:
		builder := app.BuilderName
		if kind == module.KindStandalone {
			builder = app.StandaloneBuilderName
		}
		code, err := d.Chain.StoreCode(builder, app.Params{Module: mi.ID(), Version: version, Dependencies: deps})
		if err != nil {
			return module.Reference{}, err
		}
		if kind == module.KindStandalone {
			return module.StandaloneRef(code), nil
		}
		return module.AppRef(code), nil
	case module.KindAdapter:
		code, err := d.Chain.StoreCode(adapter.BuilderName, adapter.Params{Module: mi.ID(), Version: version, Dependencies: deps})
		if err != nil {
			return module.Reference{}, err
		}
		addr, _, err := d.Chain.Instantiate(ctx, publisher, code, protocol.AdapterInstantiateMsg{Registry: d.Registry}, nil, "", mi.String())
		if err != nil {
			return module.Reference{}, err
		}
		return module.AdapterRef(addr), nil
	case module.KindAccountBase, module.KindService:
		return module.Reference{}, fmt.Errorf("%w: cannot deploy %s modules", module.ErrInvalidReference, kind)
	default:
		return module.Reference{}, fmt.Errorf("%w: unknown kind %q", module.ErrInvalidReference, kind)
	}
}

// Publish deploys a module and proposes it to the registry as publisher.
func (d *Deployment) Publish(ctx context.Context, publisher types.Addr, mi module.Info, kind module.ReferenceKind, deps []module.Dependency) (module.Reference, error) {
	ref, err := d.Deploy(ctx, publisher, mi, kind, deps)
	if err != nil {
		return module.Reference{}, err
	}
	if err := d.Propose(ctx, publisher, protocol.ModuleEntry{Info: mi, Reference: ref}); err != nil {
		return module.Reference{}, err
	}
	return ref, nil
}

// Propose submits entries to the registry as publisher.
func (d *Deployment) Propose(ctx context.Context, publisher types.Addr, entries ...protocol.ModuleEntry) error {
	_, err := d.Chain.Execute(ctx, publisher, d.Registry, protocol.RegistryExecuteMsg{
		ProposeModules: &protocol.ProposeModulesMsg{Modules: entries},
	}, nil)
	return err
}

// PublishManifest publishes every module listed in m as publisher and returns
// the references in manifest order.
func (d *Deployment) PublishManifest(ctx context.Context, publisher types.Addr, m *manifest.Manifest) ([]protocol.ModuleEntry, error) {
	entries := make([]protocol.ModuleEntry, 0, len(m.Modules))
	for _, mod := range m.Modules {
		mi, err := mod.Info()
		if err != nil {
			return entries, err
		}
		ref, err := d.Publish(ctx, publisher, mi, mod.Kind, mod.Dependencies)
		if err != nil {
			return entries, fmt.Errorf("publish %s: %w", mi, err)
		}
		entries = append(entries, protocol.ModuleEntry{Info: mi, Reference: ref})
		if mod.Config == nil {
			continue
		}
		err = d.Configure(ctx, publisher, mi, *mod.Config)
		var notFound *registry.ModuleNotFoundError
		if errors.As(err, &notFound) {
			d.Chain.Logger().Warn("module pending approval, config not applied", "module", mi)
			continue
		}
		if err != nil {
			return entries, fmt.Errorf("configure %s: %w", mi, err)
		}
	}
	return entries, nil
}

// Configure sets the config of a module version, or the default config when mi
// selects the latest version.
func (d *Deployment) Configure(ctx context.Context, publisher types.Addr, mi module.Info, cfg module.Config) error {
	_, err := d.Chain.Execute(ctx, publisher, d.Registry, protocol.RegistryExecuteMsg{
		UpdateModuleConfiguration: &protocol.UpdateModuleConfigMsg{Module: mi, Config: cfg},
	}, nil)
	return err
}

// Install asks the manager of acc to install mi, attaching funds.
func (d *Deployment) Install(ctx context.Context, acc Account, mi module.Info, initMsg []byte, funds types.Coins) (*host.Result, error) {
	return d.Chain.Execute(ctx, acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
		InstallModule: &protocol.InstallModuleMsg{Module: mi, InitMsg: initMsg},
	}, funds)
}

// Uninstall asks the manager of acc to remove id.
func (d *Deployment) Uninstall(ctx context.Context, acc Account, id module.ID) (*host.Result, error) {
	return d.Chain.Execute(ctx, acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
		UninstallModule: &protocol.UninstallModuleMsg{ModuleID: id},
	}, nil)
}

// Upgrade asks the manager of acc to upgrade a batch of modules.
func (d *Deployment) Upgrade(ctx context.Context, acc Account, batch ...protocol.ModuleUpgrade) (*host.Result, error) {
	return d.Chain.Execute(ctx, acc.Owner, acc.Manager, protocol.ManagerExecuteMsg{
		UpgradeModules: &protocol.UpgradeModulesMsg{Modules: batch},
	}, nil)
}

// ModuleAddress returns the address acc has installed id at.
func (d *Deployment) ModuleAddress(ctx context.Context, acc Account, id module.ID) (types.Addr, bool, error) {
	var resp protocol.ModuleAddressesResponse
	err := d.Chain.Query(ctx, acc.Manager, protocol.ManagerQueryMsg{ModuleAddresses: &protocol.ModuleAddressesQuery{IDs: []module.ID{id}}}, &resp)
	if err != nil || len(resp.Modules) == 0 {
		return "", false, err
	}
	return resp.Modules[0].Address, true, nil
}

// InstalledModules pages through every module installed behind manager.
func (d *Deployment) InstalledModules(ctx context.Context, manager types.Addr) ([]protocol.ModuleInfo, error) {
	mods := []protocol.ModuleInfo{}
	var after *module.ID
	for {
		var page protocol.ModuleInfosResponse
		q := protocol.ManagerQueryMsg{ModuleInfos: &protocol.ModuleInfosQuery{StartAfter: after}}
		if err := d.Chain.Query(ctx, manager, q, &page); err != nil {
			return nil, err
		}
		if len(page.Modules) == 0 {
			return mods, nil
		}
		mods = append(mods, page.Modules...)
		last := page.Modules[len(page.Modules)-1].ID
		after = &last
	}
}
