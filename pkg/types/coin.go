// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCoin is the sentinel error for malformed coin strings.
	ErrInvalidCoin = errors.New("invalid coin")
	// ErrInsufficientFunds is returned when a subtraction would underflow a balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type (
	// Coin is an amount of a single denomination.
	Coin struct {
		Denom  string `json:"denom"`
		Amount uint64 `json:"amount"`
	}

	// Coins is a set of coins. Normalized sets are sorted by denom, contain each
	// denom at most once and have no zero amounts.
	Coins []Coin
)

// NewCoin creates a coin.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// String renders the coin as "<amount><denom>".
func (c Coin) String() string {
	return strconv.FormatUint(c.Amount, 10) + c.Denom
}

// ParseCoin parses a "<amount><denom>" string such as "100uabs".
func ParseCoin(s string) (Coin, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return Coin{}, fmt.Errorf("%w: %q", ErrInvalidCoin, s)
	}
	amount, err := strconv.ParseUint(s[:i], 10, 64)
	if err != nil {
		return Coin{}, fmt.Errorf("%w: %q: %w", ErrInvalidCoin, s, err)
	}
	return Coin{Denom: s[i:], Amount: amount}, nil
}

// ParseCoins parses a comma separated list of coins. The empty string yields no coins.
func ParseCoins(s string) (Coins, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out Coins
	for part := range strings.SplitSeq(s, ",") {
		c, err := ParseCoin(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out.Normalize(), nil
}

// Normalize merges duplicate denoms, drops zero amounts and sorts by denom.
func (cs Coins) Normalize() Coins {
	if len(cs) == 0 {
		return nil
	}
	sums := make(map[string]uint64, len(cs))
	for _, c := range cs {
		sums[c.Denom] += c.Amount
	}
	out := make(Coins, 0, len(sums))
	for denom, amount := range sums {
		if amount > 0 {
			out = append(out, Coin{Denom: denom, Amount: amount})
		}
	}
	slices.SortFunc(out, func(a, b Coin) int { return strings.Compare(a.Denom, b.Denom) })
	if len(out) == 0 {
		return nil
	}
	return out
}

// AmountOf returns the amount held of denom.
func (cs Coins) AmountOf(denom string) uint64 {
	var total uint64
	for _, c := range cs {
		if c.Denom == denom {
			total += c.Amount
		}
	}
	return total
}

// IsZero reports whether the set holds no value.
func (cs Coins) IsZero() bool {
	return len(cs.Normalize()) == 0
}

// Add returns the normalized sum of both sets.
func (cs Coins) Add(other ...Coin) Coins {
	merged := make(Coins, 0, len(cs)+len(other))
	merged = append(merged, cs...)
	merged = append(merged, other...)
	return merged.Normalize()
}

// Sub returns cs minus other, failing with ErrInsufficientFunds on underflow.
func (cs Coins) Sub(other Coins) (Coins, error) {
	left := cs.Normalize()
	for _, c := range other.Normalize() {
		have := left.AmountOf(c.Denom)
		if have < c.Amount {
			return nil, fmt.Errorf("%w: have %d%s, need %s", ErrInsufficientFunds, have, c.Denom, c)
		}
		for i := range left {
			if left[i].Denom == c.Denom {
				left[i].Amount -= c.Amount
			}
		}
	}
	return left.Normalize(), nil
}

// Equal reports whether both sets hold the same amounts.
func (cs Coins) Equal(other Coins) bool {
	return slices.Equal(cs.Normalize(), other.Normalize())
}

// String renders the set as a comma separated list.
func (cs Coins) String() string {
	norm := cs.Normalize()
	parts := make([]string, len(norm))
	for i, c := range norm {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
