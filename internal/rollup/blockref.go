package rollup

import (
	"github.com/prysmaticlabs/rollup-node/internal/eth"
)

// DeriveL2BlockRef lifts an imported execution payload into an L2 block
// reference, attaching the L1 origin of its parent.
//
// The L1 origin is not recoverable from the payload alone (the execution
// payload has no L1-origin field), so the parent's L1 origin is carried
// through unchanged; an L1 origin that advanced with this block is not
// reflected in the returned reference.
func DeriveL2BlockRef(payload *eth.ExecutionPayload, parent eth.L2BlockRef) eth.L2BlockRef {
	return eth.L2BlockRef{
		Hash:       payload.BlockHash,
		Number:     payload.BlockNumber,
		ParentHash: payload.ParentHash,
		Time:       payload.Timestamp,
		L1Origin:   parent.L1Origin,
	}
}

// GenesisBlockRef returns the L2 block reference for the rollup's genesis
// block, used to seed a fresh EngineState.
func (c *Config) GenesisBlockRef() eth.L2BlockRef {
	return eth.L2BlockRef{
		Hash:     c.Genesis.L2.Hash,
		Number:   c.Genesis.L2.Number,
		Time:     c.Genesis.L2Time,
		L1Origin: c.Genesis.L1,
	}
}
