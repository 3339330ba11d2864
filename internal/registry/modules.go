// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

func moduleEvent(action string, info module.Info, attrs ...host.Attribute) host.Event {
	return host.Event{
		Type:       "abstract_registry",
		Attributes: append([]host.Attribute{{Key: "action", Value: action}, {Key: "module", Value: info.String()}}, attrs...),
	}
}

// proposeModules publishes module versions. Without security every proposal is
// registered immediately. With security, address-based references whose contract
// already describes itself as the proposed version are registered and everything
// else waits for the owner in pending.
func proposeModules(deps host.Deps, info host.MessageInfo, entries []protocol.ModuleEntry) (*host.Response, error) {
	cfg, err := regConfig.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	res := host.NewResponse().AddAttribute("action", "propose_modules")
	for _, entry := range entries {
		mi, ref := entry.Info, entry.Reference
		if err := mi.Validate(); err != nil {
			return nil, err
		}
		version, err := mi.ExactVersion()
		if err != nil {
			return nil, err
		}
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		if err := assertNamespaceOwner(deps, info.Sender, mi.Namespace, "propose modules under "+string(mi.Namespace)); err != nil {
			return nil, err
		}
		_, status, found, err := find(deps.Store, mi.Namespace, mi.Name, version)
		if err != nil {
			return nil, err
		}
		if found {
			return nil, &DuplicateModuleError{Module: mi, Status: status}
		}
		if err := validateReference(deps.Querier, mi, ref); err != nil {
			return nil, err
		}

		target := registered
		if cfg.SecurityEnabled && !selfDescribed(deps.Querier, mi, ref) {
			target = pending
		}
		if err := target.save(deps.Store, mi.Namespace, mi.Name, version, ref); err != nil {
			return nil, err
		}
		if err := removed.Remove(deps.Store, versionKey(mi.Namespace, mi.Name, version)...); err != nil {
			return nil, err
		}
		deps.Log.Info("module proposed", "module", mi, "reference", ref, "status", target.status)
		res.AddEvent(moduleEvent("propose", mi,
			host.Attribute{Key: "reference", Value: ref.String()},
			host.Attribute{Key: "status", Value: target.status.String()}))
	}
	return res, nil
}

// validateReference checks that the referenced code or contract exists.
func validateReference(q host.Querier, mi module.Info, ref module.Reference) error {
	switch ref.Kind {
	case module.KindAccountBase:
		if !mi.Namespace.IsReserved() {
			return ErrAccountBaseNamespace
		}
		fallthrough
	case module.KindApp, module.KindStandalone:
		if !q.CodeExists(ref.CodeID) {
			return fmt.Errorf("%w: code %d of %s", host.ErrUnknownCode, ref.CodeID, mi)
		}
	case module.KindAdapter:
		ci, err := q.ContractInfo(ref.Address)
		if err != nil {
			return err
		}
		if !ci.Admin.IsEmpty() {
			return fmt.Errorf("%w: %s has admin %s", ErrAdminMustBeNone, ref.Address, ci.Admin)
		}
	case module.KindService:
		if _, err := q.ContractInfo(ref.Address); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", module.ErrInvalidReference, ref.Kind)
	}
	return nil
}

// selfDescribed reports whether an address-based reference already runs the
// proposed version according to its own contract version and module data.
func selfDescribed(q host.Querier, mi module.Info, ref module.Reference) bool {
	if ref.Kind.IsCodeBased() {
		return false
	}
	return modbase.AssertValidity(q, ref.Address, mi) == nil
}

func approveOrReject(deps host.Deps, info host.MessageInfo, msg protocol.ApproveOrRejectModulesMsg) (*host.Response, error) {
	if err := assertOwner(deps, info.Sender, "approve or reject modules"); err != nil {
		return nil, err
	}
	res := host.NewResponse().AddAttribute("action", "approve_or_reject_modules")
	for _, mi := range msg.Approves {
		version, ref, err := loadPending(deps, mi)
		if err != nil {
			return nil, err
		}
		if err := pending.remove(deps.Store, mi.Namespace, mi.Name, version); err != nil {
			return nil, err
		}
		if err := registered.save(deps.Store, mi.Namespace, mi.Name, version, ref); err != nil {
			return nil, err
		}
		res.AddEvent(moduleEvent("approve", mi))
	}
	for _, mi := range msg.Rejects {
		version, _, err := loadPending(deps, mi)
		if err != nil {
			return nil, err
		}
		if err := pending.remove(deps.Store, mi.Namespace, mi.Name, version); err != nil {
			return nil, err
		}
		res.AddEvent(moduleEvent("reject", mi))
	}
	return res, nil
}

func loadPending(deps host.Deps, mi module.Info) (string, module.Reference, error) {
	version, err := mi.ExactVersion()
	if err != nil {
		return "", module.Reference{}, err
	}
	ref, ok, err := pending.load(deps.Store, mi.Namespace, mi.Name, version)
	if err != nil {
		return "", module.Reference{}, err
	}
	if !ok {
		return "", module.Reference{}, &ModuleNotFoundError{Module: mi, Status: module.StatusPending}
	}
	return version, ref, nil
}

// removeModule permanently deletes a registered or yanked version. Removing an
// already removed version is a no-op. The default config of the module is dropped
// once no registered or yanked version remains.
func removeModule(deps host.Deps, info host.MessageInfo, mi module.Info) (*host.Response, error) {
	if err := assertOwner(deps, info.Sender, "remove modules"); err != nil {
		return nil, err
	}
	version, err := mi.ExactVersion()
	if err != nil {
		return nil, err
	}
	res := host.NewResponse().AddAttribute("action", "remove_module").AddAttribute("module", mi.String())

	deleted := false
	for _, m := range []statusMap{registered, yanked} {
		_, ok, err := m.load(deps.Store, mi.Namespace, mi.Name, version)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := m.remove(deps.Store, mi.Namespace, mi.Name, version); err != nil {
			return nil, err
		}
		deleted = true
	}
	if !deleted {
		gone, err := removed.Has(deps.Store, versionKey(mi.Namespace, mi.Name, version)...)
		if err != nil {
			return nil, err
		}
		if gone {
			return res.AddAttribute("result", "already_removed"), nil
		}
		return nil, &ModuleNotFoundError{Module: mi}
	}

	if err := removed.Save(deps.Store, struct{}{}, versionKey(mi.Namespace, mi.Name, version)...); err != nil {
		return nil, err
	}
	if err := versionConfigs.Remove(deps.Store, versionKey(mi.Namespace, mi.Name, version)...); err != nil {
		return nil, err
	}
	live, err := hasLiveVersion(deps.Store, mi.Namespace, mi.Name)
	if err != nil {
		return nil, err
	}
	if !live {
		if err := defaultConfigs.Remove(deps.Store, string(mi.Namespace), string(mi.Name)); err != nil {
			return nil, err
		}
	}
	deps.Log.Info("module removed", "module", mi)
	return res.AddAttribute("result", "removed"), nil
}

// yankModule moves a registered version to yanked. Installed copies keep working
// but new installations and upgrades can no longer select it.
func yankModule(deps host.Deps, info host.MessageInfo, mi module.Info) (*host.Response, error) {
	if err := assertNamespaceOwner(deps, info.Sender, mi.Namespace, "yank modules under "+string(mi.Namespace)); err != nil {
		return nil, err
	}
	version, err := mi.ExactVersion()
	if err != nil {
		return nil, err
	}
	ref, ok, err := registered.load(deps.Store, mi.Namespace, mi.Name, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ModuleNotFoundError{Module: mi, Status: module.StatusRegistered}
	}
	if err := yank(deps, mi.Namespace, mi.Name, version, ref); err != nil {
		return nil, err
	}
	return host.NewResponse().AddAttribute("action", "yank_module").AddAttribute("module", mi.String()), nil
}

func yank(deps host.Deps, ns module.Namespace, name module.Name, version string, ref module.Reference) error {
	if err := registered.remove(deps.Store, ns, name, version); err != nil {
		return err
	}
	deps.Log.Info("module yanked", "module", module.Info{Namespace: ns, Name: name, Version: module.Exact(version)})
	return yanked.save(deps.Store, ns, name, version, ref)
}

// updateModuleConfig sets the default config when the descriptor selects latest
// and the versioned config of a registered version otherwise.
func updateModuleConfig(deps host.Deps, info host.MessageInfo, msg protocol.UpdateModuleConfigMsg) (*host.Response, error) {
	mi := msg.Module
	if err := mi.Validate(); err != nil {
		return nil, err
	}
	if err := assertNamespaceOwner(deps, info.Sender, mi.Namespace, "configure modules under "+string(mi.Namespace)); err != nil {
		return nil, err
	}
	if fee := msg.Config.Monetization.InstallFee; fee != nil && fee.Amount > 0 && fee.Denom == "" {
		return nil, fmt.Errorf("%w: install fee without denom", types.ErrInvalidCoin)
	}

	res := host.NewResponse().AddAttribute("action", "update_module_configuration").AddAttribute("module", mi.String())
	version, exact := mi.Version.Exact()
	if !exact {
		latest, ref, ok, err := latestRegistered(deps.Store, mi.Namespace, mi.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ModuleNotFoundError{Module: mi, Status: module.StatusRegistered}
		}
		if err := assertInitFunds(ref, msg.Config.InstantiationFunds); err != nil {
			return nil, fmt.Errorf("%s: %w", mi.WithVersion(latest), err)
		}
		if err := defaultConfigs.Save(deps.Store, msg.Config, string(mi.Namespace), string(mi.Name)); err != nil {
			return nil, err
		}
		return res.AddAttribute("scope", "default"), nil
	}

	ref, ok, err := registered.load(deps.Store, mi.Namespace, mi.Name, version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ModuleNotFoundError{Module: mi, Status: module.StatusRegistered}
	}
	if err := assertInitFunds(ref, msg.Config.InstantiationFunds); err != nil {
		return nil, err
	}
	if err := versionConfigs.Save(deps.Store, msg.Config, versionKey(mi.Namespace, mi.Name, version)...); err != nil {
		return nil, err
	}
	return res.AddAttribute("scope", "version"), nil
}

func assertInitFunds(ref module.Reference, funds types.Coins) error {
	if funds.IsZero() {
		return nil
	}
	switch ref.Kind {
	case module.KindApp, module.KindStandalone:
		return nil
	case module.KindAccountBase, module.KindAdapter, module.KindService:
		return ErrRedundantInitFunds
	default:
		return ErrRedundantInitFunds
	}
}
