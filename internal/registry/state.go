// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	config struct {
		SecurityEnabled bool        `json:"security_enabled"`
		NamespaceLimit  uint32      `json:"namespace_limit"`
		NamespaceFee    *types.Coin `json:"namespace_registration_fee,omitempty"`
		AccountFactory  types.Addr  `json:"account_factory"`
	}

	// statusMap is the storage of one module status.
	statusMap struct {
		status  module.Status
		entries store.Map[module.Reference]
	}
)

var (
	owner     = store.NewItem[types.Addr]("owner")
	regConfig = store.NewItem[config]("config")

	registered = statusMap{status: module.StatusRegistered, entries: store.NewMap[module.Reference]("registered")}
	yanked     = statusMap{status: module.StatusYanked, entries: store.NewMap[module.Reference]("yanked")}
	pending    = statusMap{status: module.StatusPending, entries: store.NewMap[module.Reference]("pending")}

	// removed marks versions deleted by remove_module so a repeated removal is a no-op.
	removed = store.NewMap[struct{}]("removed")

	versionConfigs = store.NewMap[module.Config]("module_config")
	defaultConfigs = store.NewMap[module.Config]("default_config")

	namespaces        = store.NewMap[types.AccountID]("namespaces")
	accountNamespaces = store.NewMap[struct{}]("account_namespaces")
	accounts          = store.NewMap[protocol.AccountBase]("accounts")
)

// lookupOrder is the order in which states are searched for a version.
var lookupOrder = []statusMap{registered, yanked, pending}

func versionKey(ns module.Namespace, name module.Name, version string) []string {
	return []string{string(ns), string(name), version}
}

func accountKey(id types.AccountID) string {
	return fmt.Sprintf("%010d", uint32(id))
}

func (m statusMap) load(s store.KVStore, ns module.Namespace, name module.Name, version string) (module.Reference, bool, error) {
	return m.entries.MayLoad(s, versionKey(ns, name, version)...)
}

func (m statusMap) save(s store.KVStore, ns module.Namespace, name module.Name, version string, ref module.Reference) error {
	return m.entries.Save(s, ref, versionKey(ns, name, version)...)
}

func (m statusMap) remove(s store.KVStore, ns module.Namespace, name module.Name, version string) error {
	return m.entries.Remove(s, versionKey(ns, name, version)...)
}

// find reports the status and reference of an exact version in any state.
func find(s store.KVStore, ns module.Namespace, name module.Name, version string) (module.Reference, module.Status, bool, error) {
	for _, m := range lookupOrder {
		ref, ok, err := m.load(s, ns, name, version)
		if err != nil {
			return module.Reference{}, "", false, err
		}
		if ok {
			return ref, m.status, true, nil
		}
	}
	return module.Reference{}, "", false, nil
}

// latestRegistered returns the greatest registered version of ns:name.
func latestRegistered(s store.KVStore, ns module.Namespace, name module.Name) (string, module.Reference, bool, error) {
	var (
		best    string
		bestRef module.Reference
	)
	err := registered.entries.Range(s, []string{string(ns), string(name)}, nil, func(key []string, ref module.Reference) (bool, error) {
		v := key[len(key)-1]
		if best == "" {
			best, bestRef = v, ref
			return true, nil
		}
		cmp, err := module.CompareVersions(v, best)
		if err != nil {
			return false, err
		}
		if cmp > 0 {
			best, bestRef = v, ref
		}
		return true, nil
	})
	if err != nil {
		return "", module.Reference{}, false, err
	}
	return best, bestRef, best != "", nil
}

// hasLiveVersion reports whether any registered or yanked version of ns:name remains.
func hasLiveVersion(s store.KVStore, ns module.Namespace, name module.Name) (bool, error) {
	for _, m := range []statusMap{registered, yanked} {
		entries, err := m.entries.Entries(s, []string{string(ns), string(name)}, nil, 1)
		if err != nil {
			return false, err
		}
		if len(entries) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// moduleConfig resolves the versioned config, falling back to the default config.
func moduleConfig(s store.KVStore, ns module.Namespace, name module.Name, version string) (module.Config, error) {
	cfg, ok, err := versionConfigs.MayLoad(s, versionKey(ns, name, version)...)
	if err != nil || ok {
		return cfg, err
	}
	cfg, _, err = defaultConfigs.MayLoad(s, string(ns), string(name))
	return cfg, err
}

// namespaceCount counts the namespaces held by an account.
func namespaceCount(s store.KVStore, id types.AccountID) (int, error) {
	n := 0
	err := accountNamespaces.Range(s, []string{accountKey(id)}, nil, func([]string, struct{}) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

func claimNamespace(s store.KVStore, ns module.Namespace, id types.AccountID) error {
	if err := namespaces.Save(s, id, string(ns)); err != nil {
		return err
	}
	return accountNamespaces.Save(s, struct{}{}, accountKey(id), string(ns))
}

func releaseNamespace(s store.KVStore, ns module.Namespace, id types.AccountID) error {
	if err := namespaces.Remove(s, string(ns)); err != nil {
		return err
	}
	return accountNamespaces.Remove(s, accountKey(id), string(ns))
}

func loadAccount(s store.KVStore, id types.AccountID) (protocol.AccountBase, error) {
	base, ok, err := accounts.MayLoad(s, accountKey(id))
	if err != nil {
		return base, err
	}
	if !ok {
		return base, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return base, nil
}
