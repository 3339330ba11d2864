// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/asaskevich/EventBus"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const maxCallDepth = 32

var (
	heightItem   = store.NewItem[uint64]("host/height")
	instanceSeq  = store.NewItem[uint64]("host/instance_seq")
	codeSeq      = store.NewItem[uint64]("host/code_seq")
	codeInfos    = store.NewMap[CodeInfo]("host/code")
	contractInfo = store.NewMap[ContractInfo]("host/contract")
)

type (
	// Builder creates the Contract for stored code from the code's params.
	Builder func(params json.RawMessage) (Contract, error)

	// Chain is the host. Top-level calls are serialized; queries may run
	// concurrently with them and observe committed state.
	Chain struct {
		mu   sync.Mutex
		root store.KVStore
		log  *log.Logger
		bus  EventBus.Bus

		buildersMu sync.RWMutex
		builders   map[string]Builder

		codesMu sync.Mutex
		codes   map[CodeID]Contract
	}

	// Option configures a Chain.
	Option func(*Chain)

	// txContext is shared by every call within one top-level transaction.
	txContext struct {
		id     string
		height uint64
	}
)

// WithLogger sets the host logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Chain) { c.log = l }
}

// WithEventBus publishes transaction events on bus.
func WithEventBus(bus EventBus.Bus) Option {
	return func(c *Chain) { c.bus = bus }
}

// New creates a host over root.
func New(root store.KVStore, opts ...Option) *Chain {
	c := &Chain{
		root:     root,
		builders: make(map[string]Builder),
		codes:    make(map[CodeID]Contract),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.New(io.Discard)
	}
	if c.bus == nil {
		c.bus = EventBus.New()
	}
	return c
}

// Bus returns the event bus transactions are published on.
func (c *Chain) Bus() EventBus.Bus { return c.bus }

// Logger returns the host logger.
func (c *Chain) Logger() *log.Logger { return c.log }

// RegisterBuilder makes a code builder available under name.
func (c *Chain) RegisterBuilder(name string, b Builder) {
	c.buildersMu.Lock()
	defer c.buildersMu.Unlock()
	c.builders[name] = b
}

// StoreCode stores code built by builder from params and returns its id.
func (c *Chain) StoreCode(builder string, params any) (CodeID, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encode code params: %w", err)
	}
	contract, err := c.build(CodeInfo{Builder: builder, Params: raw})
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx := store.NewCache(c.root)
	seq, _, err := codeSeq.MayLoad(tx)
	if err != nil {
		return 0, err
	}
	id := seq + 1
	if err := codeSeq.Save(tx, id); err != nil {
		return 0, err
	}
	if err := codeInfos.Save(tx, CodeInfo{Builder: builder, Params: raw}, codeKey(id)); err != nil {
		return 0, err
	}
	if err := tx.Write(); err != nil {
		return 0, err
	}

	c.codesMu.Lock()
	c.codes[id] = contract
	c.codesMu.Unlock()

	c.log.Debug("stored code", "code_id", id, "builder", builder)
	return id, nil
}

// CodeInfo returns how code id was stored.
func (c *Chain) CodeInfo(id CodeID) (CodeInfo, error) {
	info, ok, err := codeInfos.MayLoad(c.root, codeKey(id))
	if err != nil {
		return info, err
	}
	if !ok {
		return info, fmt.Errorf("%w: %d", ErrUnknownCode, id)
	}
	return info, nil
}

// Codes returns every stored code in id order.
func (c *Chain) Codes() (map[CodeID]CodeInfo, error) {
	out := make(map[CodeID]CodeInfo)
	err := codeInfos.Range(c.root, nil, nil, func(key []string, info CodeInfo) (bool, error) {
		id, err := strconv.ParseUint(key[0], 10, 64)
		if err != nil {
			return false, err
		}
		out[id] = info
		return true, nil
	})
	return out, err
}

func (c *Chain) build(info CodeInfo) (Contract, error) {
	c.buildersMu.RLock()
	b, ok := c.builders[info.Builder]
	c.buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilder, info.Builder)
	}
	contract, err := b(info.Params)
	if err != nil {
		return nil, fmt.Errorf("build %s code: %w", info.Builder, err)
	}
	return contract, nil
}

// code returns the contract for id, rebuilding it from stored params on first use.
func (c *Chain) code(s store.KVStore, id CodeID) (Contract, error) {
	c.codesMu.Lock()
	contract, ok := c.codes[id]
	c.codesMu.Unlock()
	if ok {
		return contract, nil
	}

	info, found, err := codeInfos.MayLoad(s, codeKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCode, id)
	}
	contract, err = c.build(info)
	if err != nil {
		return nil, err
	}

	c.codesMu.Lock()
	c.codes[id] = contract
	c.codesMu.Unlock()
	return contract, nil
}

// Instantiate creates a contract from code and returns its address.
func (c *Chain) Instantiate(ctx context.Context, sender types.Addr, codeID CodeID, msg any, funds types.Coins, admin types.Addr, label string) (types.Addr, *Result, error) {
	res, err := c.apply(ctx, sender, WasmInstantiate{CodeID: codeID, Msg: msg, Funds: funds, Admin: admin, Label: label})
	if err != nil {
		return "", nil, err
	}
	ir, err := ParseInstantiateResult(res.Data)
	if err != nil {
		return "", nil, err
	}
	return ir.Address, res, nil
}

// Execute calls a contract.
func (c *Chain) Execute(ctx context.Context, sender, contract types.Addr, msg any, funds types.Coins) (*Result, error) {
	return c.apply(ctx, sender, WasmExecute{Contract: contract, Msg: msg, Funds: funds})
}

// Migrate swaps the code of a contract. sender must be its admin.
func (c *Chain) Migrate(ctx context.Context, sender, contract types.Addr, newCodeID CodeID, msg any) (*Result, error) {
	return c.apply(ctx, sender, WasmMigrate{Contract: contract, NewCodeID: newCodeID, Msg: msg})
}

// Send moves funds between addresses.
func (c *Chain) Send(ctx context.Context, sender, to types.Addr, amount types.Coins) error {
	_, err := c.apply(ctx, sender, BankSend{To: to, Amount: amount})
	return err
}

// UpdateAdmin hands the admin role of a contract to admin. sender must be the
// current admin.
func (c *Chain) UpdateAdmin(ctx context.Context, sender, contract, admin types.Addr) error {
	_, err := c.apply(ctx, sender, UpdateAdmin{Contract: contract, Admin: admin})
	return err
}

// apply runs msg as one atomic top-level transaction.
func (c *Chain) apply(ctx context.Context, sender types.Addr, msg Msg) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx := store.NewCache(c.root)
	height, _, err := heightItem.MayLoad(tx)
	if err != nil {
		return nil, err
	}
	txc := txContext{id: uuid.NewString(), height: height + 1}
	logger := c.log.With("tx", txc.id)

	res, err := c.dispatch(ctx, tx, txc, sender, msg, 0)
	if err != nil {
		logger.Debug("transaction reverted", "sender", sender, "err", err)
		c.bus.Publish(TopicTxFailed, TxEvent{TxID: txc.id, Height: txc.height, Sender: sender, Err: err})
		return nil, err
	}
	if err := heightItem.Save(tx, txc.height); err != nil {
		return nil, err
	}
	if err := tx.Write(); err != nil {
		return nil, fmt.Errorf("commit transaction %s: %w", txc.id, err)
	}

	logger.Debug("transaction committed", "sender", sender, "height", txc.height, "events", len(res.Events))
	c.bus.Publish(TopicTxCommitted, TxEvent{TxID: txc.id, Height: txc.height, Sender: sender, Events: res.Events})
	return res, nil
}

// Query runs a smart query against committed state and decodes the answer into out.
func (c *Chain) Query(ctx context.Context, contract types.Addr, msg any, out any) error {
	height, _, err := heightItem.MayLoad(c.root)
	if err != nil {
		return err
	}
	q := &querier{chain: c, st: c.root, ctx: ctx, height: height}
	return q.QuerySmart(contract, msg, out)
}

// Querier returns a querier over committed state, as contracts see it.
func (c *Chain) Querier(ctx context.Context) Querier {
	return &querier{chain: c, st: c.root, ctx: ctx, height: c.Height()}
}

// QueryRaw reads a raw key from a contract's committed storage.
func (c *Chain) QueryRaw(contract types.Addr, key []byte) ([]byte, error) {
	return (&querier{chain: c, st: c.root}).QueryRaw(contract, key)
}

// ContractInfo returns the host record of a contract.
func (c *Chain) ContractInfo(contract types.Addr) (ContractInfo, error) {
	return loadContractInfo(c.root, contract)
}

// ContractStore returns a read-only view of a contract's committed storage.
func (c *Chain) ContractStore(contract types.Addr) store.KVStore {
	return store.NewReadOnly(contractStore(c.root, contract))
}

// Height returns the height of the last committed transaction.
func (c *Chain) Height() uint64 {
	h, _, _ := heightItem.MayLoad(c.root)
	return h
}

func codeKey(id CodeID) string { return strconv.FormatUint(id, 10) }

func contractStore(s store.KVStore, addr types.Addr) store.KVStore {
	return store.NewPrefixed(s, []byte("c/"+string(addr)+"/"))
}

func loadContractInfo(s store.KVStore, addr types.Addr) (ContractInfo, error) {
	info, ok, err := contractInfo.MayLoad(s, string(addr))
	if err != nil {
		return info, err
	}
	if !ok {
		return info, fmt.Errorf("%w: %s", ErrUnknownContract, addr)
	}
	return info, nil
}
