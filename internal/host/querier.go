// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	// Querier gives contracts read access to other contracts and the bank.
	// During a call it observes the uncommitted state of the current transaction.
	Querier interface {
		QuerySmart(contract types.Addr, msg any, out any) error
		QueryRaw(contract types.Addr, key []byte) ([]byte, error)
		ContractInfo(contract types.Addr) (ContractInfo, error)
		CodeExists(id CodeID) bool
		Balance(addr types.Addr) (types.Coins, error)
	}

	querier struct {
		chain  *Chain
		st     store.KVStore
		ctx    context.Context
		height uint64
	}
)

func (q *querier) QuerySmart(contract types.Addr, msg any, out any) error {
	ctx := q.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := loadContractInfo(q.st, contract)
	if err != nil {
		return err
	}
	code, err := q.chain.code(q.st, info.CodeID)
	if err != nil {
		return err
	}
	raw, err := Encode(msg)
	if err != nil {
		return err
	}
	deps := Deps{
		Store:   store.NewReadOnly(contractStore(q.st, contract)),
		Querier: q,
		Log:     q.chain.log.With("contract", contract),
	}
	data, err := code.Query(ctx, deps, Env{Height: q.height, Contract: contract}, raw)
	if err != nil {
		return &ContractError{Contract: contract, Entry: "query", Variant: msgVariant(raw), Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode query response from %s: %w", contract, err)
	}
	return nil
}

func (q *querier) QueryRaw(contract types.Addr, key []byte) ([]byte, error) {
	if _, err := loadContractInfo(q.st, contract); err != nil {
		return nil, err
	}
	return contractStore(q.st, contract).Get(key)
}

func (q *querier) ContractInfo(contract types.Addr) (ContractInfo, error) {
	return loadContractInfo(q.st, contract)
}

func (q *querier) CodeExists(id CodeID) bool {
	ok, err := codeInfos.Has(q.st, codeKey(id))
	return err == nil && ok
}

func (q *querier) Balance(addr types.Addr) (types.Coins, error) {
	return balance(q.st, addr)
}

// QueryResponse encodes v as a query answer.
func QueryResponse(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode query response: %w", err)
	}
	return raw, nil
}
