// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"
)

// queryModules resolves each descriptor. Latest selects the greatest registered
// version; an exact version is looked up among registered and then yanked modules.
func queryModules(deps host.Deps, infos []module.Info) (protocol.ModulesResponse, error) {
	resp := protocol.ModulesResponse{Modules: make([]protocol.ModuleResponse, 0, len(infos))}
	for _, mi := range infos {
		m, err := resolve(deps, mi)
		if err != nil {
			return resp, err
		}
		resp.Modules = append(resp.Modules, m)
	}
	return resp, nil
}

func resolve(deps host.Deps, mi module.Info) (protocol.ModuleResponse, error) {
	if err := mi.Validate(); err != nil {
		return protocol.ModuleResponse{}, err
	}
	version, exact := mi.Version.Exact()
	var (
		ref    module.Reference
		status = module.StatusRegistered
	)
	if !exact {
		v, r, ok, err := latestRegistered(deps.Store, mi.Namespace, mi.Name)
		if err != nil {
			return protocol.ModuleResponse{}, err
		}
		if !ok {
			return protocol.ModuleResponse{}, &ModuleNotFoundError{Module: mi, Status: module.StatusRegistered}
		}
		version, ref = v, r
	} else {
		found := false
		for _, m := range []statusMap{registered, yanked} {
			r, ok, err := m.load(deps.Store, mi.Namespace, mi.Name, version)
			if err != nil {
				return protocol.ModuleResponse{}, err
			}
			if ok {
				ref, status, found = r, m.status, true
				break
			}
		}
		if !found {
			return protocol.ModuleResponse{}, &ModuleNotFoundError{Module: mi}
		}
	}
	cfg, err := moduleConfig(deps.Store, mi.Namespace, mi.Name, version)
	if err != nil {
		return protocol.ModuleResponse{}, err
	}
	return protocol.ModuleResponse{
		Info:      mi.WithVersion(version),
		Reference: ref,
		Config:    cfg,
		Status:    status,
	}, nil
}

func queryModuleList(deps host.Deps, q protocol.ModuleListQuery) (protocol.ModuleListResponse, error) {
	filter := protocol.ModuleFilter{}
	if q.Filter != nil {
		filter = *q.Filter
	}
	m := registered
	switch filter.Status {
	case module.StatusPending:
		m = pending
	case module.StatusYanked:
		m = yanked
	case "", module.StatusRegistered:
	default:
		return protocol.ModuleListResponse{}, filter.Status.Validate()
	}

	var prefix []string
	if filter.Namespace != "" {
		prefix = append(prefix, string(filter.Namespace))
		if filter.Name != "" {
			prefix = append(prefix, string(filter.Name))
		}
	}
	var startAfter []string
	if q.StartAfter != nil {
		v, _ := q.StartAfter.Version.Exact()
		startAfter = versionKey(q.StartAfter.Namespace, q.StartAfter.Name, v)
	}
	limit := protocol.PageLimit(q.Limit)

	resp := protocol.ModuleListResponse{Modules: []protocol.ModuleResponse{}}
	err := m.entries.Range(deps.Store, prefix, startAfter, func(key []string, ref module.Reference) (bool, error) {
		ns, name, version := module.Namespace(key[0]), module.Name(key[1]), key[2]
		if filter.Name != "" && name != filter.Name {
			return true, nil
		}
		if filter.Version != "" && version != filter.Version {
			return true, nil
		}
		cfg, err := moduleConfig(deps.Store, ns, name, version)
		if err != nil {
			return false, err
		}
		resp.Modules = append(resp.Modules, protocol.ModuleResponse{
			Info:      module.Info{Namespace: ns, Name: name, Version: module.Exact(version)},
			Reference: ref,
			Config:    cfg,
			Status:    m.status,
		})
		return len(resp.Modules) < limit, nil
	})
	return resp, err
}

func queryNamespace(deps host.Deps, ns module.Namespace) (protocol.NamespaceResponse, error) {
	resp := protocol.NamespaceResponse{Namespace: ns}
	id, ok, err := namespaces.MayLoad(deps.Store, string(ns))
	if err != nil || !ok {
		return resp, err
	}
	resp.Claimed = true
	resp.AccountID = id
	if base, ok, err := accounts.MayLoad(deps.Store, accountKey(id)); err != nil {
		return resp, err
	} else if ok {
		resp.Base = &base
	}
	return resp, nil
}

func queryNamespaces(deps host.Deps, ids []types.AccountID) (protocol.NamespacesResponse, error) {
	resp := protocol.NamespacesResponse{Namespaces: []protocol.NamespaceEntry{}}
	for _, id := range ids {
		err := accountNamespaces.Range(deps.Store, []string{accountKey(id)}, nil, func(key []string, _ struct{}) (bool, error) {
			resp.Namespaces = append(resp.Namespaces, protocol.NamespaceEntry{Namespace: module.Namespace(key[1]), AccountID: id})
			return true, nil
		})
		if err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func queryNamespaceList(deps host.Deps, q protocol.NamespaceListQuery) (protocol.NamespacesResponse, error) {
	var startAfter []string
	if q.StartAfter != nil {
		startAfter = []string{string(*q.StartAfter)}
	}
	entries, err := namespaces.Entries(deps.Store, nil, startAfter, protocol.PageLimit(q.Limit))
	if err != nil {
		return protocol.NamespacesResponse{}, err
	}
	resp := protocol.NamespacesResponse{Namespaces: make([]protocol.NamespaceEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Namespaces = append(resp.Namespaces, protocol.NamespaceEntry{Namespace: module.Namespace(e.Key[0]), AccountID: e.Value})
	}
	return resp, nil
}

func queryAccount(deps host.Deps, id types.AccountID) (protocol.AccountResponse, error) {
	base, err := loadAccount(deps.Store, id)
	if err != nil {
		return protocol.AccountResponse{}, err
	}
	return protocol.AccountResponse{AccountID: id, Base: base}, nil
}

func queryAccountList(deps host.Deps, q protocol.AccountListQuery) (protocol.AccountListResponse, error) {
	var startAfter []string
	if q.StartAfter != nil {
		startAfter = []string{accountKey(*q.StartAfter)}
	}
	entries, err := accounts.Entries(deps.Store, nil, startAfter, protocol.PageLimit(q.Limit))
	if err != nil {
		return protocol.AccountListResponse{}, err
	}
	resp := protocol.AccountListResponse{Accounts: make([]protocol.AccountResponse, 0, len(entries))}
	for _, e := range entries {
		id, err := types.ParseAccountID(e.Key[0])
		if err != nil {
			return resp, err
		}
		resp.Accounts = append(resp.Accounts, protocol.AccountResponse{AccountID: id, Base: e.Value})
	}
	return resp, nil
}

func queryConfig(deps host.Deps) (protocol.RegistryConfigResponse, error) {
	cfg, err := regConfig.Load(deps.Store)
	if err != nil {
		return protocol.RegistryConfigResponse{}, err
	}
	o, err := owner.Load(deps.Store)
	if err != nil {
		return protocol.RegistryConfigResponse{}, err
	}
	return protocol.RegistryConfigResponse{
		Owner:           o,
		SecurityEnabled: cfg.SecurityEnabled,
		NamespaceLimit:  cfg.NamespaceLimit,
		NamespaceFee:    cfg.NamespaceFee,
		AccountFactory:  cfg.AccountFactory,
	}, nil
}
