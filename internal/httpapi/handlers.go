// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/protocol"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/go-chi/chi/v5"
)

// AccountView joins the registry entry of an account with its manager state.
type AccountView struct {
	protocol.AccountResponse
	Owner       types.Addr            `json:"owner"`
	IsSuspended bool                  `json:"is_suspended"`
	Namespaces  []module.Namespace    `json:"namespaces"`
	Modules     []protocol.ModuleInfo `json:"modules"`
}

func (s *Server) queryRegistry(r *http.Request, msg protocol.RegistryQueryMsg, out any) error {
	return s.d.Chain.Query(r.Context(), s.d.Registry, msg, out)
}

func (s *Server) registryConfig(r *http.Request) (any, error) {
	var resp protocol.RegistryConfigResponse
	err := s.queryRegistry(r, protocol.RegistryQueryMsg{Config: &protocol.Empty{}}, &resp)
	return resp, err
}

func (s *Server) listModules(r *http.Request) (any, error) {
	q := r.URL.Query()
	filter := &protocol.ModuleFilter{
		Namespace: module.Namespace(q.Get("namespace")),
		Name:      module.Name(q.Get("name")),
		Version:   q.Get("version"),
		Status:    module.Status(q.Get("status")),
	}
	if filter.Status != "" {
		if err := filter.Status.Validate(); err != nil {
			return nil, badRequest(err)
		}
	}
	limit, err := parseLimit(r)
	if err != nil {
		return nil, err
	}
	query := &protocol.ModuleListQuery{Filter: filter, Limit: limit}
	if after := q.Get("start_after"); after != "" {
		mi, err := module.ParseInfo(after)
		if err != nil {
			return nil, badRequest(err)
		}
		query.StartAfter = &mi
	}
	var resp protocol.ModuleListResponse
	err = s.queryRegistry(r, protocol.RegistryQueryMsg{ModuleList: query}, &resp)
	return resp, err
}

func (s *Server) getModule(r *http.Request) (any, error) {
	mi, err := module.ParseInfo(chi.URLParam(r, "module"))
	if err != nil {
		return nil, badRequest(err)
	}
	var resp protocol.ModulesResponse
	if err := s.queryRegistry(r, protocol.RegistryQueryMsg{Modules: &protocol.ModulesQuery{Infos: []module.Info{mi}}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Modules) == 0 {
		return nil, notFound(fmt.Errorf("module %s not found", mi))
	}
	return resp.Modules[0], nil
}

func (s *Server) listNamespaces(r *http.Request) (any, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return nil, err
	}
	query := &protocol.NamespaceListQuery{Limit: limit}
	if after := r.URL.Query().Get("start_after"); after != "" {
		ns := module.Namespace(after)
		query.StartAfter = &ns
	}
	var resp protocol.NamespacesResponse
	err = s.queryRegistry(r, protocol.RegistryQueryMsg{NamespaceList: query}, &resp)
	return resp, err
}

func (s *Server) getNamespace(r *http.Request) (any, error) {
	ns := module.Namespace(chi.URLParam(r, "namespace"))
	if err := ns.Validate(); err != nil {
		return nil, badRequest(err)
	}
	var resp protocol.NamespaceResponse
	if err := s.queryRegistry(r, protocol.RegistryQueryMsg{Namespace: &protocol.NamespaceQuery{Namespace: ns}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Claimed {
		return nil, notFound(fmt.Errorf("namespace %s is not claimed", ns))
	}
	return resp, nil
}

func (s *Server) listAccounts(r *http.Request) (any, error) {
	limit, err := parseLimit(r)
	if err != nil {
		return nil, err
	}
	query := &protocol.AccountListQuery{Limit: limit}
	if after := r.URL.Query().Get("start_after"); after != "" {
		id, err := types.ParseAccountID(after)
		if err != nil {
			return nil, badRequest(err)
		}
		query.StartAfter = &id
	}
	var resp protocol.AccountListResponse
	err = s.queryRegistry(r, protocol.RegistryQueryMsg{AccountList: query}, &resp)
	return resp, err
}

// account resolves the {account} URL parameter through the registry.
func (s *Server) account(r *http.Request) (protocol.AccountResponse, error) {
	id, err := types.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		return protocol.AccountResponse{}, badRequest(err)
	}
	var resp protocol.AccountResponse
	err = s.queryRegistry(r, protocol.RegistryQueryMsg{Account: &protocol.AccountQuery{AccountID: id}}, &resp)
	return resp, err
}

func (s *Server) getAccount(r *http.Request) (any, error) {
	acc, err := s.account(r)
	if err != nil {
		return nil, err
	}
	view := AccountView{AccountResponse: acc}

	var cfg protocol.ManagerConfigResponse
	if err := s.d.Chain.Query(r.Context(), acc.Base.Manager, protocol.ManagerQueryMsg{Config: &protocol.Empty{}}, &cfg); err != nil {
		return nil, err
	}
	view.Owner, view.IsSuspended = cfg.Owner, cfg.IsSuspended

	var ns protocol.NamespacesResponse
	if err := s.queryRegistry(r, protocol.RegistryQueryMsg{Namespaces: &protocol.NamespacesQuery{Accounts: []types.AccountID{acc.AccountID}}}, &ns); err != nil {
		return nil, err
	}
	view.Namespaces = make([]module.Namespace, 0, len(ns.Namespaces))
	for _, e := range ns.Namespaces {
		view.Namespaces = append(view.Namespaces, e.Namespace)
	}

	view.Modules, err = s.installed(r, acc)
	return view, err
}

func (s *Server) accountModules(r *http.Request) (any, error) {
	acc, err := s.account(r)
	if err != nil {
		return nil, err
	}
	mods, err := s.installed(r, acc)
	return protocol.ModuleInfosResponse{Modules: mods}, err
}

func (s *Server) installed(r *http.Request, acc protocol.AccountResponse) ([]protocol.ModuleInfo, error) {
	return s.d.InstalledModules(r.Context(), acc.Base.Manager)
}

func (s *Server) accountDependents(r *http.Request) (any, error) {
	acc, err := s.account(r)
	if err != nil {
		return nil, err
	}
	id := module.ID(chi.URLParam(r, "module"))
	if err := id.Validate(); err != nil {
		return nil, badRequest(err)
	}
	var resp protocol.DependentsResponse
	err = s.d.Chain.Query(r.Context(), acc.Base.Manager, protocol.ManagerQueryMsg{Dependents: &protocol.DependentsQuery{ModuleID: id}}, &resp)
	return resp, err
}

func parseLimit(r *http.Request) (*uint32, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, badRequest(fmt.Errorf("limit: %w", err))
	}
	limit := uint32(n)
	return &limit, nil
}
