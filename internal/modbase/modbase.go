// SPDX-License-Identifier: MPL-2.0

// Package modbase holds the storage every module contract shares: its module data
// (id, version and declared dependencies) and its contract version record.
package modbase

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

// ModuleDataKey is the raw storage key holding a module's self-description.
const ModuleDataKey = "module_data"

var (
	// ErrInvalidModuleData is the sentinel error wrapped by DataMismatchError.
	ErrInvalidModuleData = errors.New("invalid module data")

	moduleData = store.NewItem[module.Data](ModuleDataKey)
)

// DataMismatchError reports a module whose stored self-description disagrees with
// the registry entry it was installed from.
type DataMismatchError struct {
	Address  types.Addr
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *DataMismatchError) Error() string {
	return fmt.Sprintf("module at %s reports %s, expected %s", e.Address, e.Actual, e.Expected)
}

// Unwrap returns ErrInvalidModuleData for errors.Is() compatibility.
func (e *DataMismatchError) Unwrap() error { return ErrInvalidModuleData }

// Init stores the module data and the matching contract version.
func Init(s store.KVStore, data module.Data) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if err := moduleData.Save(s, data); err != nil {
		return err
	}
	return host.SetContractVersion(s, string(data.Module), data.Version)
}

// Migrate checks that data is a strict upgrade of the stored version and records it.
func Migrate(s store.KVStore, data module.Data) error {
	current, err := host.GetContractVersion(s)
	if err != nil {
		return err
	}
	if err := module.AssertContractUpgrade(current, string(data.Module), data.Version); err != nil {
		return err
	}
	return Init(s, data)
}

// Load reads the module data of the running contract.
func Load(s store.KVStore) (module.Data, error) {
	return moduleData.Load(s)
}

// Query reads the module data of the contract at addr. Contracts without module
// data yield an error wrapping store.ErrNotFound.
func Query(q host.Querier, addr types.Addr) (module.Data, error) {
	var data module.Data
	raw, err := q.QueryRaw(addr, []byte(ModuleDataKey))
	if err != nil {
		return data, err
	}
	if raw == nil {
		return data, fmt.Errorf("module data of %s: %w", addr, store.ErrNotFound)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("decode module data of %s: %w", addr, err)
	}
	return data, nil
}

// AssertValidity checks that the contract at addr is the module version info
// describes: its contract version and module data must both name info.
func AssertValidity(q host.Querier, addr types.Addr, info module.Info) error {
	expected := info.String()
	cv, err := host.QueryContractVersion(q, addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModuleData, err)
	}
	if cv.Contract != string(info.ID()) || cv.Version != info.Version.String() {
		return &DataMismatchError{Address: addr, Expected: expected, Actual: cv.Contract + "@" + cv.Version}
	}
	data, err := Query(q, addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidModuleData, err)
	}
	if data.Module != info.ID() || data.Version != info.Version.String() {
		return &DataMismatchError{Address: addr, Expected: expected, Actual: string(data.Module) + "@" + data.Version}
	}
	return nil
}
