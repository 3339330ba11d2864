// SPDX-License-Identifier: MPL-2.0

package host

import (
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

// ContractVersionKey is the raw storage key holding a contract's name and version.
const ContractVersionKey = "contract_info"

var contractVersion = store.NewItem[module.ContractVersion](ContractVersionKey)

// SetContractVersion records the name and version of the running code.
func SetContractVersion(s store.KVStore, contract, version string) error {
	return contractVersion.Save(s, module.ContractVersion{Contract: contract, Version: version})
}

// GetContractVersion reads the name and version from a contract's own storage.
func GetContractVersion(s store.KVStore) (module.ContractVersion, error) {
	return contractVersion.Load(s)
}

// QueryContractVersion reads the name and version of another contract.
func QueryContractVersion(q Querier, addr types.Addr) (module.ContractVersion, error) {
	var cv module.ContractVersion
	raw, err := q.QueryRaw(addr, []byte(ContractVersionKey))
	if err != nil {
		return cv, err
	}
	if raw == nil {
		return cv, fmt.Errorf("contract %s has no version info: %w", addr, store.ErrNotFound)
	}
	if err := json.Unmarshal(raw, &cv); err != nil {
		return cv, fmt.Errorf("decode version info of %s: %w", addr, err)
	}
	return cv, nil
}
