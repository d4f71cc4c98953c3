package database

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/forkline/blockchain/foundation/blockchain/signature"
)

// UserTx is the transactional information between two parties.
type UserTx struct {
	ChainID uint16    `json:"chain_id"` // The chain id that is listed in the genesis file.
	Nonce   uint64    `json:"nonce"`    // Unique id for the transaction supplied by the user.
	ToID    AccountID `json:"to"`       // Account receiving the benefit of the transaction.
	Value   uint64    `json:"value"`    // Monetary value received from this transaction.
	Tip     uint64    `json:"tip"`      // Tip offered by the sender as an incentive to mine this transaction.
	Data    []byte    `json:"data"`     // Extra data related to the transaction.
}

// NewUserTx constructs a new user transaction.
func NewUserTx(chainID uint16, nonce uint64, toID AccountID, value uint64, tip uint64, data []byte) (UserTx, error) {
	if !toID.IsAccountID() {
		return UserTx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := UserTx{
		ChainID: chainID,
		Nonce:   nonce,
		ToID:    toID,
		Value:   value,
		Tip:     tip,
		Data:    data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the user transaction.
func (tx UserTx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		UserTx: tx,
		V:      v,
		R:      r,
		S:      s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the user transaction.
type SignedTx struct {
	UserTx
	V *big.Int `json:"v"` // Recovery identifier, either 29 or 30 with forklineID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and is associated with the data claimed to be signed. It
// also checks the format of the to account.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("invalid chain id, got[%d] exp[%d]", tx.ChainID, chainID)
	}

	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for transaction")
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.UserTx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx, timeStamp uint64) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: timeStamp,
	}
}

// Hash implements the merkle Hashable interface for providing a hash of a
// block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	return hexutil.Decode(signature.Hash(tx))
}

// Equals returns true if the two transactions carry the same signature.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	txSig := signature.ToSignatureBytes(tx.V, tx.R, tx.S)
	otherTxSig := signature.ToSignatureBytes(otherTx.V, otherTx.R, otherTx.S)

	return tx.Nonce == otherTx.Nonce && bytes.Equal(txSig, otherTxSig)
}
