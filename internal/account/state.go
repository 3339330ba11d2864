// SPDX-License-Identifier: MPL-2.0

package account

import (
	"fmt"

	"github.com/abstractsdk/abstract/internal/depgraph"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

type config struct {
	AccountID      types.AccountID `json:"account_id"`
	Owner          types.Addr      `json:"owner"`
	Registry       types.Addr      `json:"registry"`
	ModuleFactory  types.Addr      `json:"module_factory"`
	AccountFactory types.Addr      `json:"account_factory"`
	Suspended      bool            `json:"suspended"`
}

var (
	accountConfig = store.NewItem[config]("config")
	modules       = store.NewMap[types.Addr]("modules")
	kinds         = store.NewMap[module.ReferenceKind]("module_kinds")
	migrations    = store.NewItem[[]protocol.MigrationEntry]("migration_context")
	graph         = depgraph.New()
)

// installed is one entry of the installed-modules index.
type installed struct {
	Address types.Addr
	Kind    module.ReferenceKind
}

func loadInstalled(s store.KVStore, id module.ID) (installed, bool, error) {
	addr, ok, err := modules.MayLoad(s, string(id))
	if err != nil || !ok {
		return installed{}, ok, err
	}
	kind, _, err := kinds.MayLoad(s, string(id))
	if err != nil {
		return installed{}, false, err
	}
	return installed{Address: addr, Kind: kind}, true, nil
}

func mustInstalled(s store.KVStore, id module.ID) (installed, error) {
	m, ok, err := loadInstalled(s, id)
	if err != nil {
		return installed{}, err
	}
	if !ok {
		return installed{}, fmt.Errorf("%w: %s", ErrModuleNotInstalled, id)
	}
	return m, nil
}

func saveInstalled(s store.KVStore, id module.ID, m installed) error {
	if err := modules.Save(s, m.Address, string(id)); err != nil {
		return err
	}
	return kinds.Save(s, m.Kind, string(id))
}

func removeInstalled(s store.KVStore, id module.ID) error {
	if err := modules.Remove(s, string(id)); err != nil {
		return err
	}
	return kinds.Remove(s, string(id))
}

// whitelisted reports whether modules of kind act through the proxy.
func whitelisted(kind module.ReferenceKind) bool {
	switch kind {
	case module.KindApp, module.KindAdapter, module.KindStandalone:
		return true
	default:
		return false
	}
}

func proxyAddr(s store.KVStore) (types.Addr, error) {
	proxy, ok, err := modules.MayLoad(s, string(module.ProxyID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModuleNotInstalled, module.ProxyID)
	}
	return proxy, nil
}

// resolve looks a module up in the registry. Only registered versions resolve.
func resolve(q host.Querier, registry types.Addr, mi module.Info) (protocol.ModuleResponse, error) {
	var resp protocol.ModulesResponse
	if err := q.QuerySmart(registry, protocol.RegistryQueryMsg{Modules: &protocol.ModulesQuery{Infos: []module.Info{mi}}}, &resp); err != nil {
		return protocol.ModuleResponse{}, err
	}
	if len(resp.Modules) != 1 {
		return protocol.ModuleResponse{}, fmt.Errorf("registry returned %d modules for %s", len(resp.Modules), mi)
	}
	m := resp.Modules[0]
	if m.Status != module.StatusRegistered {
		return protocol.ModuleResponse{}, fmt.Errorf("%w: %s is %s", ErrModuleNotRegistered, m.Info, m.Status)
	}
	return m, nil
}
