// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/forkline/blockchain/business/sys/validate"
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/state"
	"github.com/forkline/blockchain/foundation/events"
	"github.com/forkline/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SignalMining signals the node to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker != nil {
		h.State.Worker.SignalStartMining()
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Info summarizes the chain, the pending forks, the orphans and the mempool.
func (h Handlers) Info(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.Chain()

	info := chainInfo{
		LatestBlock:  chain.Tip().Hash(),
		ChainLength:  chain.Length(),
		PendingForks: len(h.State.PendingForks()),
		Orphans:      len(h.State.OrphanBlocks()),
		Uncommitted:  h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// Blocks returns the canonical chain, oldest block first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.Chain()

	blocks := make([]block, chain.Length())
	for i, blk := range chain {
		blocks[i] = toBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Forks returns the blocks of every pending fork.
func (h Handlers) Forks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	forks := h.State.PendingForks()

	resp := make([][]block, len(forks))
	for i, fork := range forks {
		blocks := make([]block, len(fork))
		for j, blk := range fork {
			blocks[j] = toBlock(blk)
		}
		resp[i] = blocks
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Orphans returns the orphaned blocks in arrival order.
func (h Handlers) Orphans(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	orphans := h.State.OrphanBlocks()

	blocks := make([]block, len(orphans))
	for i, blk := range orphans {
		blocks[i] = toBlock(blk)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = toTx(tran)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SubmitWalletTransaction adds new user transactions to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := signedTx.Validate(h.State.RetrieveGenesis().ChainID); err != nil {
		return validate.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value, "tip", signedTx.Tip)
	h.State.NewTransaction(database.NewBlockTx(signedTx, uint64(time.Now().UTC().Unix())))

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transactions added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
