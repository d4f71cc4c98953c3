package private

import (
	"github.com/forkline/blockchain/business/sys/validate"
)

// getBlocksRequest identifies the caller and the newest block it already has.
type getBlocksRequest struct {
	TopHash string `json:"top_hash" validate:"required"`
	Host    string `json:"host" validate:"required"`
}

// Validate checks the request contains the expected fields.
func (req getBlocksRequest) Validate() error {
	return validate.Check(req)
}
