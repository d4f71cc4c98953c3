// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/forkline/blockchain/business/sys/validate"
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/peer"
	"github.com/forkline/blockchain/foundation/blockchain/state"
	"github.com/forkline/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	topBlock := h.State.TopBlock()

	status := peer.Status{
		LatestBlockHash:   topBlock.Hash(),
		LatestBlockNumber: topBlock.Header.Number,
		KnownPeers:        h.State.RetrieveKnownPeers(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// SubmitPeer adds the caller to the known peer list.
func (h Handlers) SubmitPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pr peer.Peer
	if err := web.Decode(r, &pr); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if h.State.AddKnownPeer(pr) {
		h.Log.Infow("add peer", "traceid", v.TraceID, "host", pr.Host)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// GetBlocks queues a request to send every block above the caller's top
// block. The blocks are delivered out of band through the caller's inv
// endpoint, this response only acknowledges the request.
func (h Handlers) GetBlocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req getBlocksRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.State.GetBlocks(req.TopHash, peer.New(req.Host))

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Inv accepts a batch of blocks from a peer for merging into the chain.
func (h Handlers) Inv(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var blockData []database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	blocks := make([]database.Block, len(blockData))
	for i, bd := range blockData {
		blocks[i] = database.ToBlock(bd)
	}

	h.State.Inv(blocks)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// BlockFound takes a block mined by a peer and hands it to the resolution
// engine. Whether the block lands on the chain, in a fork or with the
// orphans is not reflected in the response.
func (h Handlers) BlockFound(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var blockData database.BlockData
	if err := web.Decode(r, &blockData); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	block := database.ToBlock(blockData)

	h.Log.Infow("block found", "traceid", v.TraceID, "block", block.Hash(), "number", block.Header.Number)
	h.State.NewBlockFound(block)

	// Keep the gossip going. The seen cache keeps this from looping.
	go func() {
		if err := h.State.NetSendBlockToPeers(block); err != nil {
			h.Log.Infow("block found", "traceid", v.TraceID, "WARNING", err)
		}
	}()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// SubmitNodeTransaction adds new node transactions to the mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.BlockTx
	if err := web.Decode(r, &tx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := tx.Validate(h.State.RetrieveGenesis().ChainID); err != nil {
		return validate.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "from:nonce", tx, "to", tx.ToID, "value", tx.Value, "tip", tx.Tip)
	h.State.NewTransaction(tx)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transactions added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}
