// SPDX-License-Identifier: MPL-2.0

// Package depgraph tracks, per account, which installed modules depend on which.
//
// Two indexes are kept in the account's storage: the dependencies each installed
// module declared when it was registered (or last migrated), and the reverse
// dependents index mapping a module id to every installed module relying on it.
// The dependents index is what blocks uninstalling a module that is still needed.
package depgraph

import (
	"fmt"
	"slices"

	"github.com/abstractsdk/abstract/internal/dag"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
)

type (
	// Graph reads and writes the dependency indexes of one account store.
	Graph struct {
		dependents store.Map[struct{}]
		declared   store.Map[[]module.Dependency]
	}

	// Diff is the change between two dependency declarations of the same module.
	Diff struct {
		Added   []module.Dependency
		Removed []module.Dependency
	}
)

// New returns a Graph using the default storage namespaces.
func New() Graph {
	return Graph{
		dependents: store.NewMap[struct{}]("dependents"),
		declared:   store.NewMap[[]module.Dependency]("declared_deps"),
	}
}

// SetAsDependent records that dependent relies on dependency. Idempotent.
func (g Graph) SetAsDependent(s store.KVStore, dependency, dependent module.ID) error {
	return g.dependents.Save(s, struct{}{}, string(dependency), string(dependent))
}

// RemoveAsDependent drops the dependent -> dependency edge. Idempotent.
func (g Graph) RemoveAsDependent(s store.KVStore, dependency, dependent module.ID) error {
	return g.dependents.Remove(s, string(dependency), string(dependent))
}

// Dependents lists the installed modules that depend on id, sorted.
func (g Graph) Dependents(s store.KVStore, id module.ID) ([]module.ID, error) {
	var out []module.ID
	err := g.dependents.Range(s, []string{string(id)}, nil, func(key []string, _ struct{}) (bool, error) {
		out = append(out, module.ID(key[len(key)-1]))
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dependents of %s: %w", id, err)
	}
	return out, nil
}

// Declared returns the dependencies id declared when it was linked.
func (g Graph) Declared(s store.KVStore, id module.ID) ([]module.Dependency, error) {
	deps, _, err := g.declared.MayLoad(s, string(id))
	return deps, err
}

// Link records the declared dependencies of id and adds id to the dependents of
// each of them.
func (g Graph) Link(s store.KVStore, id module.ID, deps []module.Dependency) error {
	for _, d := range deps {
		if err := g.SetAsDependent(s, d.ID, id); err != nil {
			return err
		}
	}
	if len(deps) == 0 {
		return g.declared.Remove(s, string(id))
	}
	return g.declared.Save(s, deps, string(id))
}

// Unlink removes id from the dependents of everything it declared and forgets its
// declaration. Entries listing id as a dependency are left untouched.
func (g Graph) Unlink(s store.KVStore, id module.ID) ([]module.Dependency, error) {
	deps, err := g.Declared(s, id)
	if err != nil {
		return nil, err
	}
	for _, d := range deps {
		if err := g.RemoveAsDependent(s, d.ID, id); err != nil {
			return nil, err
		}
	}
	if err := g.declared.Remove(s, string(id)); err != nil {
		return nil, err
	}
	return deps, nil
}

// Relink replaces the declared dependencies of id with deps, updating only the
// edges that changed, and reports the difference.
func (g Graph) Relink(s store.KVStore, id module.ID, deps []module.Dependency) (Diff, error) {
	old, err := g.Declared(s, id)
	if err != nil {
		return Diff{}, err
	}
	diff := DiffDependencies(old, deps)
	for _, d := range diff.Removed {
		if err := g.RemoveAsDependent(s, d.ID, id); err != nil {
			return Diff{}, err
		}
	}
	if err := g.Link(s, id, deps); err != nil {
		return Diff{}, err
	}
	return diff, nil
}

// Clear drops both index entries owned by id.
func (g Graph) Clear(s store.KVStore, id module.ID) error {
	if _, err := g.Unlink(s, id); err != nil {
		return err
	}
	return g.dependents.Clear(s, string(id))
}

// DiffDependencies compares two declarations by module id. Requirement changes on
// a kept id are neither added nor removed.
func DiffDependencies(old, next []module.Dependency) Diff {
	var diff Diff
	for _, d := range next {
		if !containsID(old, d.ID) {
			diff.Added = append(diff.Added, d)
		}
	}
	for _, d := range old {
		if !containsID(next, d.ID) {
			diff.Removed = append(diff.Removed, d)
		}
	}
	return diff
}

func containsID(deps []module.Dependency, id module.ID) bool {
	return slices.ContainsFunc(deps, func(d module.Dependency) bool { return d.ID == id })
}

// MigrationOrder sorts an upgrade batch so that every module comes after the
// batch members it depends on. Unrelated modules keep their input order.
func (g Graph) MigrationOrder(s store.KVStore, batch []module.ID) ([]module.ID, error) {
	graph := dag.New[module.ID]()
	for _, id := range batch {
		graph.AddNode(id)
	}
	for _, id := range batch {
		deps, err := g.Declared(s, id)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if graph.Has(d.ID) {
				graph.AddEdge(d.ID, id)
			}
		}
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("order migrations: %w", err)
	}
	return order, nil
}
