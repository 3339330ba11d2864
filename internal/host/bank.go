// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/types"
)

var balances = store.NewMap[uint64]("host/bank")

func balance(s store.KVStore, addr types.Addr) (types.Coins, error) {
	var out types.Coins
	err := balances.Range(s, []string{string(addr)}, nil, func(key []string, amount uint64) (bool, error) {
		out = append(out, types.NewCoin(key[1], amount))
		return true, nil
	})
	return out.Normalize(), err
}

func transfer(s store.KVStore, from, to types.Addr, amount types.Coins) error {
	for _, coin := range amount.Normalize() {
		have, _, err := balances.MayLoad(s, string(from), coin.Denom)
		if err != nil {
			return err
		}
		if have < coin.Amount {
			return fmt.Errorf("%s sending %s: %w", from, coin, types.ErrInsufficientFunds)
		}
		if err := setBalance(s, from, coin.Denom, have-coin.Amount); err != nil {
			return err
		}
		got, _, err := balances.MayLoad(s, string(to), coin.Denom)
		if err != nil {
			return err
		}
		if err := setBalance(s, to, coin.Denom, got+coin.Amount); err != nil {
			return err
		}
	}
	return nil
}

func setBalance(s store.KVStore, addr types.Addr, denom string, amount uint64) error {
	if amount == 0 {
		return balances.Remove(s, string(addr), denom)
	}
	return balances.Save(s, amount, string(addr), denom)
}

// Balance returns the committed balance of addr.
func (c *Chain) Balance(addr types.Addr) (types.Coins, error) {
	return balance(c.root, addr)
}

// Mint credits coins to addr outside of any contract call.
func (c *Chain) Mint(ctx context.Context, addr types.Addr, coins types.Coins) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tx := store.NewCache(c.root)
	for _, coin := range coins.Normalize() {
		have, _, err := balances.MayLoad(tx, string(addr), coin.Denom)
		if err != nil {
			return err
		}
		if err := setBalance(tx, addr, coin.Denom, have+coin.Amount); err != nil {
			return err
		}
	}
	return tx.Write()
}
