package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/peer"
)

// baseURL is the url prefix for the node to node API.
const baseURL = "http://%s/v1/node"

// =============================================================================

// NetRequestPeerStatus queries the specified peer for their current status.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.Status, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.Status
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.Status{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr.Host, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// NetRequestBlocks asks the specified peer for the blocks this node is
// missing. The peer answers out of band through our inv endpoint.
func (s *State) NetRequestBlocks(pr peer.Peer) error {
	s.evHandler("state: NetRequestBlocks: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestBlocks: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/getblocks", fmt.Sprintf(baseURL, pr.Host))

	req := struct {
		TopHash string `json:"top_hash"`
		Host    string `json:"host"`
	}{
		TopHash: s.TopBlock().Hash(),
		Host:    s.host,
	}

	return send(http.MethodPost, url, req, nil)
}

// NetRequestAddPeer asks the specified peer to add this node to their
// known peer list.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))

	return send(http.MethodPost, url, peer.New(s.host), nil)
}

// NetSendInv delivers the specified blocks to the peer that asked for them.
func (s *State) NetSendInv(pr peer.Peer, blocks []database.Block) error {
	s.evHandler("state: NetSendInv: started: %s: blocks[%d]", pr.Host, len(blocks))
	defer s.evHandler("state: NetSendInv: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/inv", fmt.Sprintf(baseURL, pr.Host))

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return send(http.MethodPost, url, blockData, nil)
}

// NetSendBlockToPeers shares a new block with every known peer. A block
// already shared once is not shared again.
func (s *State) NetSendBlockToPeers(block database.Block) error {
	s.evHandler("state: NetSendBlockToPeers: started")
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	if found, _ := s.seenBlocks.ContainsOrAdd(block.Hash(), nil); found {
		return nil
	}

	for _, pr := range s.RetrieveKnownPeers() {
		s.evHandler("state: NetSendBlockToPeers: send: %s: block[%s]", pr.Host, block.Hash())

		url := fmt.Sprintf("%s/block/found", fmt.Sprintf(baseURL, pr.Host))

		if err := send(http.MethodPost, url, database.NewBlockData(block), nil); err != nil {
			return fmt.Errorf("%s: %w", pr.Host, err)
		}
	}

	return nil
}

// NetSendTxToPeers shares a new transaction with every known peer. A
// transaction already shared once is not shared again.
func (s *State) NetSendTxToPeers(tx database.BlockTx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	if found, _ := s.seenTxs.ContainsOrAdd(tx.SignatureString(), nil); found {
		return
	}

	for _, pr := range s.RetrieveKnownPeers() {
		s.evHandler("state: NetSendTxToPeers: send: %s: tx[%s]", pr.Host, tx)

		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, pr.Host))

		if err := send(http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s: %s", pr.Host, err)
		}
	}
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}

	default:
		var err error
		req, err = http.NewRequest(method, url, nil)
		if err != nil {
			return err
		}
	}

	var client http.Client
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("%s", string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
