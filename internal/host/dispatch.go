// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abstractsdk/abstract/internal/store"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/tidwall/gjson"
)

// dispatch runs msg on behalf of sender against st. Callers pass a branch they
// can discard: on error nothing written to st may be kept.
func (c *Chain) dispatch(ctx context.Context, st store.KVStore, txc txContext, sender types.Addr, msg Msg, depth int) (*Result, error) {
	if depth > maxCallDepth {
		return nil, ErrCallDepth
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case WasmExecute:
		return c.execute(ctx, st, txc, sender, m, depth)
	case WasmInstantiate:
		return c.instantiate(ctx, st, txc, sender, m, depth)
	case WasmMigrate:
		return c.migrate(ctx, st, txc, sender, m, depth)
	case UpdateAdmin:
		return c.updateAdmin(st, sender, m)
	case BankSend:
		if err := transfer(st, sender, m.To, m.Amount); err != nil {
			return nil, err
		}
		return &Result{}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMsg, msg)
	}
}

func (c *Chain) execute(ctx context.Context, st store.KVStore, txc txContext, sender types.Addr, m WasmExecute, depth int) (*Result, error) {
	info, err := loadContractInfo(st, m.Contract)
	if err != nil {
		return nil, err
	}
	contract, err := c.code(st, info.CodeID)
	if err != nil {
		return nil, err
	}
	raw, err := Encode(m.Msg)
	if err != nil {
		return nil, err
	}
	if err := transfer(st, sender, m.Contract, m.Funds); err != nil {
		return nil, err
	}

	variant := msgVariant(raw)
	c.log.Debug("execute", "contract", m.Contract, "msg", variant, "sender", sender, "depth", depth)

	resp, err := contract.Execute(ctx, c.deps(ctx, st, txc, m.Contract), c.env(txc, m.Contract), MessageInfo{Sender: sender, Funds: m.Funds.Normalize()}, raw)
	if err != nil {
		return nil, &ContractError{Contract: m.Contract, Entry: "execute", Variant: variant, Err: err}
	}
	return c.finish(ctx, st, txc, m.Contract, resp, depth)
}

func (c *Chain) instantiate(ctx context.Context, st store.KVStore, txc txContext, sender types.Addr, m WasmInstantiate, depth int) (*Result, error) {
	contract, err := c.code(st, m.CodeID)
	if err != nil {
		return nil, err
	}
	raw, err := Encode(m.Msg)
	if err != nil {
		return nil, err
	}

	seq, _, err := instanceSeq.MayLoad(st)
	if err != nil {
		return nil, err
	}
	seq++
	if err := instanceSeq.Save(st, seq); err != nil {
		return nil, err
	}
	addr := types.Addr(fmt.Sprintf("contract%d", seq))
	info := ContractInfo{CodeID: m.CodeID, Creator: sender, Admin: m.Admin, Label: m.Label}
	if err := contractInfo.Save(st, info, string(addr)); err != nil {
		return nil, err
	}
	if err := transfer(st, sender, addr, m.Funds); err != nil {
		return nil, err
	}

	c.log.Debug("instantiate", "code_id", m.CodeID, "address", addr, "label", m.Label, "sender", sender)

	resp, err := contract.Instantiate(ctx, c.deps(ctx, st, txc, addr), c.env(txc, addr), MessageInfo{Sender: sender, Funds: m.Funds.Normalize()}, raw)
	if err != nil {
		return nil, &ContractError{Contract: addr, Entry: "instantiate", Variant: m.Label, Err: err}
	}
	res, err := c.finish(ctx, st, txc, addr, resp, depth)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(InstantiateResult{Address: addr, Data: res.Data})
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

func (c *Chain) migrate(ctx context.Context, st store.KVStore, txc txContext, sender types.Addr, m WasmMigrate, depth int) (*Result, error) {
	info, err := loadContractInfo(st, m.Contract)
	if err != nil {
		return nil, err
	}
	if info.Admin == "" || info.Admin != sender {
		return nil, fmt.Errorf("migrate %s: %w", m.Contract, ErrNotAdmin)
	}
	contract, err := c.code(st, m.NewCodeID)
	if err != nil {
		return nil, err
	}
	migrator, ok := contract.(Migrator)
	if !ok {
		return nil, fmt.Errorf("code %d: %w", m.NewCodeID, ErrNotMigratable)
	}
	raw, err := Encode(m.Msg)
	if err != nil {
		return nil, err
	}

	info.CodeID = m.NewCodeID
	if err := contractInfo.Save(st, info, string(m.Contract)); err != nil {
		return nil, err
	}

	c.log.Debug("migrate", "contract", m.Contract, "code_id", m.NewCodeID, "sender", sender)

	resp, err := migrator.Migrate(ctx, c.deps(ctx, st, txc, m.Contract), c.env(txc, m.Contract), raw)
	if err != nil {
		return nil, &ContractError{Contract: m.Contract, Entry: "migrate", Err: err}
	}
	return c.finish(ctx, st, txc, m.Contract, resp, depth)
}

func (c *Chain) updateAdmin(st store.KVStore, sender types.Addr, m UpdateAdmin) (*Result, error) {
	info, err := loadContractInfo(st, m.Contract)
	if err != nil {
		return nil, err
	}
	if info.Admin == "" || info.Admin != sender {
		return nil, fmt.Errorf("update admin of %s: %w", m.Contract, ErrNotAdmin)
	}
	info.Admin = m.Admin
	if err := contractInfo.Save(st, info, string(m.Contract)); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// finish records the contract's event and runs its emitted messages in order.
func (c *Chain) finish(ctx context.Context, st store.KVStore, txc txContext, addr types.Addr, resp *Response, depth int) (*Result, error) {
	if resp == nil {
		resp = NewResponse()
	}
	res := &Result{Data: resp.Data}
	if len(resp.Attributes) > 0 {
		res.Events = append(res.Events, Event{Type: "wasm", Contract: addr, Attributes: resp.Attributes})
	}
	for _, ev := range resp.Events {
		ev.Contract = addr
		res.Events = append(res.Events, ev)
	}

	for i, sub := range resp.Messages {
		branch := store.NewCache(st)
		subRes, err := c.dispatch(ctx, branch, txc, addr, sub.Msg, depth+1)
		if err == nil {
			if err := branch.Write(); err != nil {
				return nil, err
			}
			res.Events = append(res.Events, subRes.Events...)
			if sub.ReplyOn != ReplySuccess && sub.ReplyOn != ReplyAlways {
				continue
			}
			replyRes, err := c.reply(ctx, st, txc, addr, Reply{ID: sub.ID, Result: SubMsgResult{Events: subRes.Events, Data: subRes.Data}}, depth)
			if err != nil {
				return nil, err
			}
			res.merge(replyRes)
			continue
		}

		if sub.ReplyOn != ReplyError && sub.ReplyOn != ReplyAlways {
			return nil, &SubMsgError{Contract: addr, Index: i, ID: sub.ID, Err: err}
		}
		c.log.Debug("sub-message failed, replying", "contract", addr, "id", sub.ID, "err", err)
		replyRes, rerr := c.reply(ctx, st, txc, addr, Reply{ID: sub.ID, Result: SubMsgResult{Err: err.Error()}}, depth)
		if rerr != nil {
			return nil, rerr
		}
		res.merge(replyRes)
	}
	return res, nil
}

func (c *Chain) reply(ctx context.Context, st store.KVStore, txc txContext, addr types.Addr, reply Reply, depth int) (*Result, error) {
	info, err := loadContractInfo(st, addr)
	if err != nil {
		return nil, err
	}
	contract, err := c.code(st, info.CodeID)
	if err != nil {
		return nil, err
	}
	replier, ok := contract.(Replier)
	if !ok {
		return nil, fmt.Errorf("reply %d to %s: %w", reply.ID, addr, ErrNoReplyHandler)
	}
	resp, err := replier.Reply(ctx, c.deps(ctx, st, txc, addr), c.env(txc, addr), reply)
	if err != nil {
		return nil, &ContractError{Contract: addr, Entry: "reply", Variant: fmt.Sprintf("id %d", reply.ID), Err: err}
	}
	return c.finish(ctx, st, txc, addr, resp, depth+1)
}

// merge folds a reply's outcome into the result; reply data overrides call data.
func (r *Result) merge(other *Result) {
	r.Events = append(r.Events, other.Events...)
	if other.Data != nil {
		r.Data = other.Data
	}
}

func (c *Chain) deps(ctx context.Context, st store.KVStore, txc txContext, addr types.Addr) Deps {
	return Deps{
		Store:   contractStore(st, addr),
		Querier: &querier{chain: c, st: st, ctx: ctx, height: txc.height},
		Log:     c.log.With("contract", addr),
	}
}

func (c *Chain) env(txc txContext, addr types.Addr) Env {
	return Env{Height: txc.height, TxID: txc.id, Contract: addr}
}

// msgVariant returns the top-level key of an externally tagged JSON message.
func msgVariant(raw []byte) string {
	variant := ""
	gjson.ParseBytes(raw).ForEach(func(key, _ gjson.Result) bool {
		variant = key.String()
		return false
	})
	return variant
}
