// SPDX-License-Identifier: MPL-2.0

package host

import (
	"github.com/abstractsdk/abstract/pkg/types"
)

// Event bus topics. Handlers receive a TxEvent.
const (
	TopicTxCommitted = "tx:committed"
	TopicTxFailed    = "tx:failed"
)

// TxEvent describes a finished top-level transaction.
type TxEvent struct {
	TxID   string
	Height uint64
	Sender types.Addr
	Events []Event
	Err    error
}

// Actions returns the "action" attribute of every event, in order.
func (e TxEvent) Actions() []string {
	var actions []string
	for _, ev := range e.Events {
		if a, ok := ev.Attr("action"); ok {
			actions = append(actions, a)
		}
	}
	return actions
}
