// SPDX-License-Identifier: MPL-2.0

package host

import (
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/pkg/types"
)

type (
	// Msg is a message a contract asks the host to dispatch. The set of messages is
	// closed: WasmExecute, WasmInstantiate, WasmMigrate, UpdateAdmin and BankSend.
	Msg interface {
		isMsg()
	}

	// WasmExecute calls Execute on Contract. Msg is any JSON-encodable value.
	WasmExecute struct {
		Contract types.Addr
		Msg      any
		Funds    types.Coins
	}

	// WasmInstantiate creates a new instance of CodeID.
	WasmInstantiate struct {
		CodeID CodeID
		Msg    any
		Funds  types.Coins
		Admin  types.Addr
		Label  string
	}

	// WasmMigrate swaps the code of Contract and calls Migrate. Only the admin may
	// migrate.
	WasmMigrate struct {
		Contract  types.Addr
		NewCodeID CodeID
		Msg       any
	}

	// UpdateAdmin changes the admin of Contract. Only the current admin may.
	UpdateAdmin struct {
		Contract types.Addr
		Admin    types.Addr
	}

	// BankSend moves funds from the sender to To.
	BankSend struct {
		To     types.Addr
		Amount types.Coins
	}
)

func (WasmExecute) isMsg()     {}
func (WasmInstantiate) isMsg() {}
func (WasmMigrate) isMsg()     {}
func (UpdateAdmin) isMsg()     {}
func (BankSend) isMsg()        {}

// Encode marshals a message payload. Raw JSON passes through unchanged and a nil
// payload encodes as an empty object.
func Encode(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return raw, nil
}

// Decode unmarshals a message payload into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidMsg, err)
	}
	return v, nil
}
