// SPDX-License-Identifier: MPL-2.0

package account

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/abstractsdk/abstract/internal/adapter"
	"github.com/abstractsdk/abstract/internal/depgraph"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/modbase"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// upgradeTarget is one validated entry of an upgrade batch.
type upgradeTarget struct {
	upgrade  protocol.ModuleUpgrade
	resolved protocol.ModuleResponse
	current  installed
}

// upgradeModules validates a batch, emits one migration per module with
// dependencies ahead of their dependents and the manager's own migration last,
// then schedules the verification callback.
func upgradeModules(deps host.Deps, env host.Env, info host.MessageInfo, batch []protocol.ModuleUpgrade) (*host.Response, error) {
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(cfg, info.Sender, "upgrade modules"); err != nil {
		return nil, err
	}
	if err := assertActive(cfg); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, ErrNoUpdates
	}
	inProgress, _, err := migrations.MayLoad(deps.Store)
	if err != nil {
		return nil, err
	}
	if len(inProgress) > 0 {
		return nil, ErrMigrationInProgress
	}

	targets := make(map[module.ID]upgradeTarget, len(batch))
	var ids []module.ID
	for _, u := range batch {
		if err := u.Module.Validate(); err != nil {
			return nil, err
		}
		id := u.Module.ID()
		if _, dup := targets[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUpgrade, id)
		}
		t, err := planUpgrade(deps, env, cfg, u)
		if err != nil {
			return nil, err
		}
		targets[id] = t
		ids = append(ids, id)
	}
	for _, id := range ids {
		if err := assertDependentsAccept(deps, id, targets); err != nil {
			return nil, err
		}
	}

	others := slices.DeleteFunc(slices.Clone(ids), func(id module.ID) bool { return id == module.ManagerID })
	order, err := graph.MigrationOrder(deps.Store, others)
	if err != nil {
		return nil, err
	}
	proxy, err := proxyAddr(deps.Store)
	if err != nil {
		return nil, err
	}

	res := host.NewResponse().AddAttribute("action", "upgrade_modules")
	entries := make([]protocol.MigrationEntry, 0, len(ids))
	for _, id := range order {
		t := targets[id]
		old, err := graph.Declared(deps.Store, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, protocol.MigrationEntry{ID: id, OldDeps: old})

		switch t.resolved.Reference.Kind {
		case module.KindAdapter:
			newAddr := t.resolved.Reference.Address
			revokes, err := adapterUpdates(deps, old, nil, []types.Addr{t.current.Address})
			if err != nil {
				return nil, err
			}
			replace, err := adapter.ReplaceMsgs(deps.Querier, proxy, t.current.Address, newAddr)
			if err != nil {
				return nil, fmt.Errorf("upgrade %s: %w", id, err)
			}
			res.AddMessages(revokes...)
			res.AddMessages(replace...)
			if err := saveInstalled(deps.Store, id, installed{Address: newAddr, Kind: module.KindAdapter}); err != nil {
				return nil, err
			}
		case module.KindApp, module.KindStandalone, module.KindAccountBase:
			payload, err := migratePayload(t)
			if err != nil {
				return nil, err
			}
			res.AddMessage(host.WasmMigrate{Contract: t.current.Address, NewCodeID: t.resolved.Reference.CodeID, Msg: payload})
		case module.KindService:
			return nil, fmt.Errorf("%w: %s is a %s module", ErrNotUpgradeable, id, t.resolved.Reference.Kind)
		default:
			return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrNotUpgradeable, id, t.resolved.Reference.Kind)
		}
		res.AddEvent(upgradeEvent(t))
	}

	if self, ok := targets[module.ManagerID]; ok {
		payload, err := migratePayload(self)
		if err != nil {
			return nil, err
		}
		entries = append(entries, protocol.MigrationEntry{ID: module.ManagerID})
		res.AddMessage(host.WasmMigrate{Contract: env.Contract, NewCodeID: self.resolved.Reference.CodeID, Msg: payload})
		res.AddEvent(upgradeEvent(self))
	}

	if err := migrations.Save(deps.Store, entries); err != nil {
		return nil, err
	}
	res.AddMessage(host.WasmExecute{Contract: env.Contract, Msg: protocol.ManagerExecuteMsg{Callback: &protocol.Empty{}}})
	deps.Log.Info("upgrading modules", "account", cfg.AccountID, "modules", len(entries))
	return res, nil
}

func upgradeEvent(t upgradeTarget) host.Event {
	return host.Event{Type: EventType, Attributes: []host.Attribute{
		{Key: "action", Value: "upgrade"},
		{Key: "module", Value: t.resolved.Info.String()},
		{Key: "kind", Value: t.resolved.Reference.Kind.String()},
	}}
}

// planUpgrade resolves the target version and checks it against what runs now.
func planUpgrade(deps host.Deps, env host.Env, cfg config, u protocol.ModuleUpgrade) (upgradeTarget, error) {
	id := u.Module.ID()
	resolved, err := resolve(deps.Querier, cfg.Registry, u.Module)
	if err != nil {
		return upgradeTarget{}, err
	}

	var (
		current installed
		cv      module.ContractVersion
	)
	if id == module.ManagerID {
		current = installed{Address: env.Contract, Kind: module.KindAccountBase}
		cv, err = host.GetContractVersion(deps.Store)
	} else {
		current, err = mustInstalled(deps.Store, id)
		if err != nil {
			return upgradeTarget{}, err
		}
		cv, err = host.QueryContractVersion(deps.Querier, current.Address)
	}
	if err != nil {
		return upgradeTarget{}, fmt.Errorf("installed version of %s: %w", id, err)
	}

	if current.Kind != resolved.Reference.Kind {
		return upgradeTarget{}, fmt.Errorf("%w: %s is installed as %s, registry has %s", ErrKindMismatch, id, current.Kind, resolved.Reference.Kind)
	}
	target, _ := resolved.Info.Version.Exact()
	cmp, err := module.CompareVersions(target, cv.Version)
	if err != nil {
		return upgradeTarget{}, err
	}
	if cmp < 0 {
		return upgradeTarget{}, &OlderVersionError{Module: id, Current: cv.Version, Target: target}
	}
	return upgradeTarget{upgrade: u, resolved: resolved, current: current}, nil
}

// assertDependentsAccept checks that installed dependents of id that are not part
// of the batch accept the version id is upgraded to. Dependents within the batch
// are checked by the callback against their new declarations.
func assertDependentsAccept(deps host.Deps, id module.ID, targets map[module.ID]upgradeTarget) error {
	dependents, err := graph.Dependents(deps.Store, id)
	if err != nil {
		return err
	}
	target, _ := targets[id].resolved.Info.Version.Exact()
	for _, dependent := range dependents {
		if _, inBatch := targets[dependent]; inBatch {
			continue
		}
		declared, err := graph.Declared(deps.Store, dependent)
		if err != nil {
			return err
		}
		for _, d := range declared {
			if d.ID != id {
				continue
			}
			if err := d.Check(target); err != nil {
				return fmt.Errorf("upgrade %s breaks dependent %s: %w", id, dependent, err)
			}
		}
	}
	return nil
}

// migratePayload returns the migrate message of t. Apps default to an empty
// object; standalone and account base modules require one.
func migratePayload(t upgradeTarget) (json.RawMessage, error) {
	raw := t.upgrade.MigrateMsg
	if len(raw) > 0 && string(raw) != "null" {
		return raw, nil
	}
	if t.resolved.Reference.Kind == module.KindApp {
		return json.RawMessage(`{}`), nil
	}
	return nil, fmt.Errorf("%w: %s is a %s module", ErrMissingMigrateMsg, t.resolved.Info, t.resolved.Reference.Kind)
}

// relinked is a migrated module whose dependency declaration was refreshed.
type relinked struct {
	id   module.ID
	mod  installed
	data module.Data
	diff depgraph.Diff
}

// callback runs after every migration of a batch. It refreshes the dependency
// index from the migrated modules' own declarations, verifies that every
// requirement still holds, fixes adapter authorizations and clears the
// migration context. Failures here happen after code was already migrated.
func callback(deps host.Deps, env host.Env, info host.MessageInfo) (*host.Response, error) {
	if info.Sender != env.Contract {
		return nil, protocol.Unauthorized(info.Sender, "run the migration callback", "account manager itself")
	}
	cfg, err := loadConfig(deps)
	if err != nil {
		return nil, err
	}
	if err := assertActive(cfg); err != nil {
		return nil, err
	}
	entries, _, err := migrations.MayLoad(deps.Store)
	if err != nil {
		return nil, err
	}

	fail := func(id module.ID, err error) (*host.Response, error) {
		verr := &VerificationError{Module: id, Err: err}
		deps.Log.Error("post-migration verification failed", "module", id, "err", err, "contract", env.Contract)
		return nil, verr
	}

	var done []relinked
	for _, e := range entries {
		if e.ID == module.ManagerID {
			continue
		}
		m, ok, err := loadInstalled(deps.Store, e.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return fail(e.ID, ErrModuleNotInstalled)
		}
		if !m.Kind.HasDependencies() {
			continue
		}
		data, err := modbase.Query(deps.Querier, m.Address)
		if err != nil {
			return fail(e.ID, err)
		}
		if data.Module != e.ID {
			return fail(e.ID, &modbase.DataMismatchError{Address: m.Address, Expected: string(e.ID), Actual: string(data.Module)})
		}
		diff, err := graph.Relink(deps.Store, e.ID, data.Dependencies)
		if err != nil {
			return nil, err
		}
		done = append(done, relinked{id: e.ID, mod: m, data: data, diff: diff})
	}

	for _, r := range done {
		for _, d := range r.data.Dependencies {
			if err := assertDependency(deps, d); err != nil {
				return fail(r.id, err)
			}
		}
		if err := assertDependentsMet(deps, r.id, r.mod.Address); err != nil {
			return fail(r.id, err)
		}
	}

	res := host.NewResponse().AddAttribute("action", "migration_callback")
	for _, r := range done {
		var grants, revokes []host.Msg
		if r.mod.Kind == module.KindAdapter {
			grants, err = adapterUpdates(deps, r.data.Dependencies, []types.Addr{r.mod.Address}, nil)
		} else {
			grants, err = adapterUpdates(deps, r.diff.Added, []types.Addr{r.mod.Address}, nil)
			if err == nil {
				revokes, err = adapterUpdates(deps, r.diff.Removed, nil, []types.Addr{r.mod.Address})
			}
		}
		if err != nil {
			return nil, err
		}
		res.AddMessages(revokes...)
		res.AddMessages(grants...)
	}

	if err := migrations.Remove(deps.Store); err != nil {
		return nil, err
	}
	deps.Log.Info("migration verified", "modules", len(entries))
	return res.AddAttribute("verified", fmt.Sprint(len(entries))), nil
}

// assertDependentsMet checks every dependent of id against the version running at addr.
func assertDependentsMet(deps host.Deps, id module.ID, addr types.Addr) error {
	dependents, err := graph.Dependents(deps.Store, id)
	if err != nil || len(dependents) == 0 {
		return err
	}
	cv, err := host.QueryContractVersion(deps.Querier, addr)
	if err != nil {
		return err
	}
	for _, dependent := range dependents {
		declared, err := graph.Declared(deps.Store, dependent)
		if err != nil {
			return err
		}
		for _, d := range declared {
			if d.ID != id {
				continue
			}
			if err := d.Check(cv.Version); err != nil {
				return fmt.Errorf("dependent %s: %w", dependent, err)
			}
		}
	}
	return nil
}
