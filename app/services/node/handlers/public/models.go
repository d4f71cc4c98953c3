package public

import (
	"github.com/forkline/blockchain/foundation/blockchain/database"
)

// tx is the public view of a mempool transaction.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	To          database.AccountID `json:"to"`
	ChainID     uint16             `json:"chain_id"`
	Nonce       uint64             `json:"nonce"`
	Value       uint64             `json:"value"`
	Tip         uint64             `json:"tip"`
	Data        []byte             `json:"data"`
	TimeStamp   uint64             `json:"timestamp"`
	Sig         string             `json:"sig"`
}

// block is the public view of a block in the chain.
type block struct {
	Hash          string             `json:"hash"`
	ParentHash    string             `json:"parent_hash"`
	Number        uint64             `json:"number"`
	BeneficiaryID database.AccountID `json:"beneficiary"`
	Difficulty    uint16             `json:"difficulty"`
	Nonce         uint64             `json:"nonce"`
	TimeStamp     uint64             `json:"timestamp"`
	TransRoot     string             `json:"trans_root"`
	Transactions  []tx               `json:"txs"`
}

// chainInfo summarizes the actor's view of the world.
type chainInfo struct {
	LatestBlock  string `json:"latest_block"`
	ChainLength  int    `json:"chain_length"`
	PendingForks int    `json:"pending_forks"`
	Orphans      int    `json:"orphans"`
	Uncommitted  int    `json:"uncommitted"`
}

// =============================================================================

func toTx(blockTx database.BlockTx) tx {
	account, _ := blockTx.FromAccount()

	return tx{
		FromAccount: account,
		To:          blockTx.ToID,
		ChainID:     blockTx.ChainID,
		Nonce:       blockTx.Nonce,
		Value:       blockTx.Value,
		Tip:         blockTx.Tip,
		Data:        blockTx.Data,
		TimeStamp:   blockTx.TimeStamp,
		Sig:         blockTx.SignatureString(),
	}
}

func toBlock(blk database.Block) block {
	trans := make([]tx, len(blk.Trans))
	for i, blockTx := range blk.Trans {
		trans[i] = toTx(blockTx)
	}

	return block{
		Hash:          blk.Hash(),
		ParentHash:    blk.Header.ParentHash,
		Number:        blk.Header.Number,
		BeneficiaryID: blk.Header.BeneficiaryID,
		Difficulty:    blk.Header.Difficulty,
		Nonce:         blk.Header.Nonce,
		TimeStamp:     blk.Header.TimeStamp,
		TransRoot:     blk.Header.TransRoot,
		Transactions:  trans,
	}
}
