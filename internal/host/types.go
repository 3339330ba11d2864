// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/charmbracelet/log"
)

// Reply modes for sub-messages.
const (
	ReplyNever ReplyOn = iota
	ReplySuccess
	ReplyError
	ReplyAlways
)

type (
	// CodeID identifies stored contract code.
	CodeID = uint64

	// Env describes the context of a contract call.
	Env struct {
		Height   uint64
		TxID     string
		Contract types.Addr
	}

	// MessageInfo carries the caller and the funds sent along with the call.
	MessageInfo struct {
		Sender types.Addr
		Funds  types.Coins
	}

	// Deps gives a contract access to its own storage, to the rest of the host and
	// to a logger scoped to the contract.
	Deps struct {
		Store   store.KVStore
		Querier Querier
		Log     *log.Logger
	}

	// Contract is the code behind a contract address.
	Contract interface {
		Instantiate(ctx context.Context, deps Deps, env Env, info MessageInfo, msg json.RawMessage) (*Response, error)
		Execute(ctx context.Context, deps Deps, env Env, info MessageInfo, msg json.RawMessage) (*Response, error)
		Query(ctx context.Context, deps Deps, env Env, msg json.RawMessage) (json.RawMessage, error)
	}

	// Migrator is implemented by contracts that accept code migrations.
	Migrator interface {
		Migrate(ctx context.Context, deps Deps, env Env, msg json.RawMessage) (*Response, error)
	}

	// Replier is implemented by contracts that emit sub-messages expecting a reply.
	Replier interface {
		Reply(ctx context.Context, deps Deps, env Env, reply Reply) (*Response, error)
	}

	// ReplyOn selects when a sub-message result is delivered back to the emitter.
	ReplyOn int

	// SubMsg is a message emitted by a contract. ID correlates the reply.
	SubMsg struct {
		ID      uint64
		Msg     Msg
		ReplyOn ReplyOn
	}

	// Attribute is a key-value pair attached to an event.
	Attribute struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}

	// Event is emitted by a contract call.
	Event struct {
		Type       string      `json:"type"`
		Contract   types.Addr  `json:"contract"`
		Attributes []Attribute `json:"attributes"`
	}

	// Response is what a contract entry point returns.
	Response struct {
		Messages   []SubMsg
		Attributes []Attribute
		Events     []Event
		Data       json.RawMessage
	}

	// SubMsgResult is the outcome of a sub-message. Err is set on failure.
	SubMsgResult struct {
		Events []Event
		Data   json.RawMessage
		Err    string
	}

	// Reply delivers a sub-message result to the contract that emitted it.
	Reply struct {
		ID     uint64
		Result SubMsgResult
	}

	// Result is the outcome of a successful call, including everything it emitted.
	Result struct {
		Events []Event
		Data   json.RawMessage
	}

	// InstantiateResult is the data returned by instantiation.
	InstantiateResult struct {
		Address types.Addr      `json:"address"`
		Data    json.RawMessage `json:"data,omitempty"`
	}

	// ContractInfo is the host's record of a contract instance.
	ContractInfo struct {
		CodeID  CodeID     `json:"code_id"`
		Creator types.Addr `json:"creator"`
		Admin   types.Addr `json:"admin,omitempty"`
		Label   string     `json:"label"`
	}

	// CodeInfo records how to rebuild stored code.
	CodeInfo struct {
		Builder string          `json:"builder"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
)

// NewResponse creates an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddMessage appends a message that does not expect a reply.
func (r *Response) AddMessage(msg Msg) *Response {
	r.Messages = append(r.Messages, SubMsg{Msg: msg, ReplyOn: ReplyNever})
	return r
}

// AddMessages appends several messages that do not expect a reply.
func (r *Response) AddMessages(msgs ...Msg) *Response {
	for _, m := range msgs {
		r.AddMessage(m)
	}
	return r
}

// AddSubMessage appends a message with reply handling.
func (r *Response) AddSubMessage(sub SubMsg) *Response {
	r.Messages = append(r.Messages, sub)
	return r
}

// AddAttribute appends an attribute to the call's event.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddEvent appends a custom event.
func (r *Response) AddEvent(ev Event) *Response {
	r.Events = append(r.Events, ev)
	return r
}

// SetData encodes v as the call's return data.
func (r *Response) SetData(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response data: %w", err)
	}
	r.Data = raw
	return nil
}

// IsErr reports whether the sub-message failed.
func (r SubMsgResult) IsErr() bool { return r.Err != "" }

// Attr returns the value of the first attribute with key, and whether it exists.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// ParseInstantiateResult decodes the data of an instantiation reply.
func ParseInstantiateResult(data json.RawMessage) (InstantiateResult, error) {
	var res InstantiateResult
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("decode instantiate result: %w", err)
	}
	if res.Address == "" {
		return res, fmt.Errorf("instantiate result has no address")
	}
	return res, nil
}
