// SPDX-License-Identifier: MPL-2.0

package module

import "github.com/abstractsdk/abstract/pkg/types"

type (
	// Monetization describes what an account pays to install a module.
	// A nil InstallFee means the module is free.
	Monetization struct {
		InstallFee *types.Coin `json:"install_fee,omitempty"`
	}

	// Config is the publisher-controlled configuration of a module. A default config
	// applies to every version of a module; a versioned config overrides it.
	Config struct {
		Monetization       Monetization `json:"monetization"`
		Metadata           string       `json:"metadata,omitempty"`
		InstantiationFunds types.Coins  `json:"instantiation_funds,omitempty"`
	}
)

// IsFree reports whether installation costs nothing beyond instantiation funds.
func (m Monetization) IsFree() bool {
	return m.InstallFee == nil || m.InstallFee.Amount == 0
}

// InstallCost is the total a manager must attach when installing the module.
func (c Config) InstallCost() types.Coins {
	cost := c.InstantiationFunds.Normalize()
	if !c.Monetization.IsFree() {
		cost = cost.Add(*c.Monetization.InstallFee)
	}
	return cost
}
