// Package eth defines the Engine API wire types and L1/L2 block references
// shared by the engine client, engine state, build task, and derivation
// packages.
package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BlockID identifies a block by number and hash, without further context.
type BlockID struct {
	Hash   common.Hash
	Number uint64
}

func (id BlockID) String() string {
	return fmt.Sprintf("%s:%d", id.Hash, id.Number)
}

// BlockInfo is a minimal L1 block reference: enough to anchor derivation to
// an L1 origin, without carrying the full L1 header.
type BlockInfo struct {
	Hash       common.Hash
	Number     uint64
	ParentHash common.Hash
	Time       uint64
}

func (b BlockInfo) ID() BlockID {
	return BlockID{Hash: b.Hash, Number: b.Number}
}

func (b BlockInfo) String() string {
	return fmt.Sprintf("%s:%d", b.Hash, b.Number)
}

// L2BlockRef is an immutable reference to an L2 block, carrying the L1
// origin it was derived from (or zero-value if sequencer-produced and not
// yet anchored).
type L2BlockRef struct {
	Hash       common.Hash
	Number     uint64
	ParentHash common.Hash
	Time       uint64
	L1Origin   BlockID
}

func (r L2BlockRef) ID() BlockID {
	return BlockID{Hash: r.Hash, Number: r.Number}
}

// IsZero reports whether this is the uninitialized reference used by the
// engine's safe-head watch before the engine has reported its first head.
func (r L2BlockRef) IsZero() bool {
	return r.Hash == (common.Hash{})
}

func (r L2BlockRef) String() string {
	return fmt.Sprintf("%s:%d", r.Hash, r.Number)
}
